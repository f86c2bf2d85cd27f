package bignumber

import "sync/atomic"

// SizeTracker records the largest numerator or denominator bit length it
// has been shown. One tracker may be shared by several goroutines.
//
// A nil *SizeTracker is valid and ignores everything, so callers can pass
// one through without checking whether instrumentation was requested.
type SizeTracker struct {
	maxBits  atomic.Int64
	observed atomic.Int64
}

// NewSizeTracker returns a tracker with a maximum of 0
func NewSizeTracker() *SizeTracker {
	return &SizeTracker{}
}

// Observe updates the running maximum with the bit lengths of values
func (st *SizeTracker) Observe(values ...*BigNumber) {
	if st == nil {
		return
	}
	for _, value := range values {
		bits := int64(value.BitLen())
		st.observed.Add(1)
		for {
			current := st.maxBits.Load()
			if bits <= current || st.maxBits.CompareAndSwap(current, bits) {
				break
			}
		}
	}
}

// MaxBits returns the largest bit length observed so far
func (st *SizeTracker) MaxBits() int64 {
	if st == nil {
		return 0
	}
	return st.maxBits.Load()
}

// Observed returns how many values have been observed
func (st *SizeTracker) Observed() int64 {
	if st == nil {
		return 0
	}
	return st.observed.Load()
}
