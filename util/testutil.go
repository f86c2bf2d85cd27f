package util

import (
	"fmt"
	"math/big"
	"math/rand"
)

// CreateInversePair returns a random dim x dim integer matrix with
// determinant 1 or -1, and its inverse, both in row-major order. Both are
// built from the identity by elementary operations: adding c times row src
// to row dst of the first matrix is undone by subtracting c times column dst
// from column src of the second. Operations stop before any entry of
// either matrix exceeds maxEntry in absolute value.
func CreateInversePair(dim int) ([]int64, []int64, error) {
	const maxMultiple = 5
	const maxOps = 12
	const maxEntry = 100
	if dim < 1 {
		return nil, nil, fmt.Errorf("CreateInversePair: dimension %d < 1", dim)
	}
	a := GetPermutationMatrix(rand.Perm(dim))
	b := make([]int64, dim*dim)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			// The inverse of a permutation matrix is its transpose
			b[j*dim+i] = a[i*dim+j]
		}
	}

	// Negating row r of a and column r of b keeps them inverses
	if r := rand.Intn(dim); rand.Intn(2) == 0 {
		for j := 0; j < dim; j++ {
			a[r*dim+j] = -a[r*dim+j]
			b[j*dim+r] = -b[j*dim+r]
		}
	}
	if dim == 1 {
		return a, b, nil
	}

	rowDst := make([]int64, dim)
	colSrc := make([]int64, dim)
	for op := 0; op < maxOps; op++ {
		src := rand.Intn(dim)
		dst := (src + 1 + rand.Intn(dim-1)) % dim
		c := int64(1 + rand.Intn(maxMultiple))
		if rand.Intn(2) == 0 {
			c = -c
		}
		for j := 0; j < dim; j++ {
			rowDst[j] = a[dst*dim+j] + c*a[src*dim+j]
			colSrc[j] = b[j*dim+src] - c*b[j*dim+dst]
			if abs(rowDst[j]) > maxEntry || abs(colSrc[j]) > maxEntry {
				return a, b, nil
			}
		}
		for j := 0; j < dim; j++ {
			a[dst*dim+j] = rowDst[j]
			b[j*dim+src] = colSrc[j]
		}
	}
	return a, b, nil
}

// IsInversePair returns whether the dim x dim matrices x and y multiply to
// the identity
func IsInversePair(x, y []int64, dim int) (bool, error) {
	product, err := MultiplyIntInt(x, y, dim)
	if err != nil {
		return false, fmt.Errorf("IsInversePair: %q", err.Error())
	}
	if len(product) != dim*dim {
		return false, fmt.Errorf("IsInversePair: product has %d entries, expected %d", len(product), dim*dim)
	}
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			expected := int64(0)
			if i == j {
				expected = 1
			}
			if product[i*dim+j] != expected {
				return false, nil
			}
		}
	}
	return true, nil
}

// GetPermutation returns a random permutation of {0,...,size-1} other than
// the identity. size must be at least 2.
func GetPermutation(size int) []int {
	permutation := rand.Perm(size)
	for i, p := range permutation {
		if p != i {
			return permutation
		}
	}
	other := 1 + rand.Intn(size-1)
	permutation[0], permutation[other] = other, 0
	return permutation
}

// GetPermutationMatrix returns the matrix with a 1 in row i, column
// permutation[i] and 0s elsewhere
func GetPermutationMatrix(permutation []int) []int64 {
	size := len(permutation)
	retVal := make([]int64, size*size)
	for i := 0; i < size; i++ {
		retVal[i*size+permutation[i]] = 1
	}
	return retVal
}

// GetRandomRationals returns count rationals with numerators in
// [-maxNumerator, maxNumerator] and denominators in [1, maxDenominator]
func GetRandomRationals(count int, maxNumerator, maxDenominator int64) []*big.Rat {
	retVal := make([]*big.Rat, count)
	for i := range retVal {
		retVal[i] = big.NewRat(rand.Int63n(2*maxNumerator+1)-maxNumerator, 1+rand.Int63n(maxDenominator))
	}
	return retVal
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
