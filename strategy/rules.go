// Copyright (c) 2023 Colin McRae

// Package strategy implements the rules that choose which variable enters
// the basis in each iteration of the simplex method. The rule is the
// "strategy" a client of simplexops can swap in order to trade pivot count
// against the guarantee of termination.
package strategy

import (
	"fmt"
	"sort"

	"github.com/rjb3977/lattice/bignumber"
)

const (
	// NameSteepest names SteepestWithBland
	NameSteepest = "steepest"
	// NameBland names Bland
	NameBland = "bland"
)

// Both rules below return an index k into nonBasic, so that nonBasic[k] is
// the entering variable, or -1 when no reduced cost is negative and the
// basis is optimal.
//
// The steepest rule takes the most negative reduced cost, which tends to
// make the most progress per pivot but can cycle forever among bases with
// the same objective value. Cycling needs a sequence of pivots that each
// move 0 distance, and that can only happen when some basic variable is
// exactly 0. So SteepestWithBland switches to Bland's rule in exactly that
// case: among variables with a negative reduced cost, the one with the
// smallest variable index enters. Together with the leaving rule in
// simplexops (ties go to the smallest basic variable in a degenerate
// basis), Bland's rule never visits a basis twice.
//
// The comparison is by variable index, not by position in nonBasic, because
// pivots permute nonBasic.

// SteepestWithBland is the entering rule that takes the most negative
// reduced cost, falling back to Bland when the basis is degenerate
func SteepestWithBland(reducedCosts []*bignumber.BigNumber, nonBasic []int, degenerate bool) int {
	if degenerate {
		return Bland(reducedCosts, nonBasic, degenerate)
	}
	best := -1
	for k, reduced := range reducedCosts {
		if reduced.Sign() >= 0 {
			continue
		}
		if best == -1 {
			best = k
			continue
		}
		cmp := reduced.Cmp(reducedCosts[best])
		if cmp < 0 || (cmp == 0 && nonBasic[k] < nonBasic[best]) {
			best = k
		}
	}
	return best
}

// Bland is the entering rule that takes the variable with the smallest
// index among those with a negative reduced cost
func Bland(reducedCosts []*bignumber.BigNumber, nonBasic []int, _ bool) int {
	best := -1
	for k, reduced := range reducedCosts {
		if reduced.Sign() >= 0 {
			continue
		}
		if best == -1 || nonBasic[k] < nonBasic[best] {
			best = k
		}
	}
	return best
}

var rules = map[string]func([]*bignumber.BigNumber, []int, bool) int{
	NameSteepest: SteepestWithBland,
	NameBland:    Bland,
}

// ByName returns the rule with the given name
func ByName(name string) (func([]*bignumber.BigNumber, []int, bool) int, error) {
	rule, ok := rules[name]
	if !ok {
		return nil, fmt.Errorf("ByName: unknown entering rule %q; choose one of %v", name, Names())
	}
	return rule, nil
}

// Names returns the names ByName accepts, sorted
func Names() []string {
	retVal := make([]string, 0, len(rules))
	for name := range rules {
		retVal = append(retVal, name)
	}
	sort.Strings(retVal)
	return retVal
}
