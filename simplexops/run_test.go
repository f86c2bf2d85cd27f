// Copyright (c) 2023 Colin McRae

package simplexops

import (
	"errors"
	"math"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/rjb3977/lattice/bigmatrix"
	"github.com/rjb3977/lattice/bignumber"
	"github.com/rjb3977/lattice/strategy"
)

var rules = map[string]EnteringRule{
	strategy.NameSteepest: strategy.SteepestWithBland,
	strategy.NameBland:    strategy.Bland,
}

func newTestState(t *testing.T, maxRows, maxCols int, rule EnteringRule) *State {
	s, err := NewState(maxRows, maxCols, rule, nil)
	require.NoError(t, err)
	return s
}

func getMatrix(t *testing.T, input []string, numRows, numCols int) *bigmatrix.BigMatrix {
	retVal, err := bigmatrix.NewFromStringArray(input, numRows, numCols)
	require.NoError(t, err)
	return retVal
}

func TestNewState(t *testing.T) {
	_, err := NewState(0, 3, strategy.SteepestWithBland, nil)
	assert.Error(t, err)
	_, err = NewState(3, 0, strategy.SteepestWithBland, nil)
	assert.Error(t, err)
	_, err = NewState(3, 3, nil, nil)
	assert.Error(t, err)
}

func TestState_Solve(t *testing.T) {
	testCases := []struct {
		name      string
		a         []string
		b         []string
		c         []string
		rows      int
		cols      int
		objective string
	}{
		{
			// min -x1 - x2 over x1 <= 3/2, x2 <= 5/2, x1 + x2 <= 3
			name: "slack form",
			a: []string{
				"1", "0", "1", "0", "0",
				"0", "1", "0", "1", "0",
				"1", "1", "0", "0", "1",
			},
			b:         []string{"3/2", "5/2", "3"},
			c:         []string{"-1", "-1", "0", "0", "0"},
			rows:      3,
			cols:      5,
			objective: "-3",
		},
		{
			// Surplus variable: x1 + x2 >= 1
			name:      "surplus",
			a:         []string{"1", "1", "-1"},
			b:         []string{"1"},
			c:         []string{"1", "2", "0"},
			rows:      1,
			cols:      3,
			objective: "1",
		},
		{
			// A negative right-hand side is negated internally
			name:      "negative right-hand side",
			a:         []string{"-1", "-1", "1", "0", "0", "1"},
			b:         []string{"-2", "1/3"},
			c:         []string{"1", "0", "0"},
			rows:      2,
			cols:      3,
			objective: "0",
		},
		{
			// The second row is twice the first, so an artificial variable
			// stays in the basis after phase 1
			name:      "redundant row",
			a:         []string{"1", "1", "2", "2"},
			b:         []string{"1", "2"},
			c:         []string{"-1", "0"},
			rows:      2,
			cols:      2,
			objective: "-1",
		},
		{
			// Beale's example, which cycles under the textbook steepest rule
			name: "beale",
			a: []string{
				"1", "0", "0", "1/4", "-8", "-1", "9",
				"0", "1", "0", "1/2", "-12", "-1/2", "3",
				"0", "0", "1", "0", "0", "1", "0",
			},
			b:         []string{"0", "0", "1"},
			c:         []string{"0", "0", "0", "-3/4", "20", "-1/2", "6"},
			rows:      3,
			cols:      7,
			objective: "-5/4",
		},
		{
			name:      "square",
			a:         []string{"2", "1", "1", "3"},
			b:         []string{"3", "4"},
			c:         []string{"5", "-1"},
			rows:      2,
			cols:      2,
			objective: "4",
		},
	}
	for _, tc := range testCases {
		for ruleName, rule := range rules {
			a := getMatrix(t, tc.a, tc.rows, tc.cols)
			b := getMatrix(t, tc.b, tc.rows, 1)
			c := getMatrix(t, tc.c, tc.cols, 1)
			s := newTestState(t, tc.rows+1, tc.cols+1, rule)
			x, err := s.Solve(a, b, c)
			require.NoErrorf(t, err, "%s with rule %s", tc.name, ruleName)
			assertFeasible(t, a, b, x)
			assert.Equalf(t, tc.objective, s.Objective().String(), "%s with rule %s", tc.name, ruleName)
			objective, err := bigmatrix.ColumnDot(c, x)
			require.NoError(t, err)
			assert.Equal(t, tc.objective, objective.String())
		}
	}
}

func TestState_Solve_Infeasible(t *testing.T) {
	// x1 + x2 = -1 has no non-negative solution
	a := getMatrix(t, []string{"1", "1"}, 1, 2)
	b := getMatrix(t, []string{"-1"}, 1, 1)
	c := getMatrix(t, []string{"1", "1"}, 2, 1)
	s := newTestState(t, 1, 2, strategy.SteepestWithBland)
	_, err := s.Solve(a, b, c)
	assert.True(t, errors.Is(err, ErrInfeasible))
	assert.False(t, errors.Is(err, ErrUnbounded))
}

func TestState_Solve_Unbounded(t *testing.T) {
	// min -x1 with x1 - x2 = 1
	a := getMatrix(t, []string{"1", "-1"}, 1, 2)
	b := getMatrix(t, []string{"1"}, 1, 1)
	c := getMatrix(t, []string{"-1", "0"}, 2, 1)
	s := newTestState(t, 1, 2, strategy.SteepestWithBland)
	_, err := s.Solve(a, b, c)
	assert.True(t, errors.Is(err, ErrUnbounded))
}

func TestState_Solve_BadShapes(t *testing.T) {
	s := newTestState(t, 2, 3, strategy.SteepestWithBland)
	a := getMatrix(t, []string{"1", "1", "1", "1"}, 2, 2)
	b := getMatrix(t, []string{"1", "1"}, 2, 1)
	c := getMatrix(t, []string{"1", "1"}, 2, 1)

	// More rows than columns
	_, err := s.Solve(getMatrix(t, []string{"1", "1"}, 2, 1), b, getMatrix(t, []string{"1"}, 1, 1))
	assert.Error(t, err)

	// Too big for the buffers
	_, err = s.Solve(bigmatrix.NewEmpty(3, 3), getMatrix(t, []string{"1", "1", "1"}, 3, 1), c)
	assert.Error(t, err)

	// Mismatched right-hand side and cost
	_, err = s.Solve(a, c, getMatrix(t, []string{"1"}, 1, 1))
	assert.Error(t, err)
	_, err = s.Solve(a, getMatrix(t, []string{"1"}, 1, 1), c)
	assert.Error(t, err)
}

func TestState_ReuseAcrossShapes(t *testing.T) {
	// One State solves problems of several shapes in turn, as the search
	// does when it adds rows
	s := newTestState(t, 3, 4, strategy.SteepestWithBland)
	a := getMatrix(t, []string{"1", "0", "1", "0", "0", "1", "0", "1"}, 2, 4)
	b := getMatrix(t, []string{"2", "3"}, 2, 1)
	c := getMatrix(t, []string{"-1", "-1", "0", "0"}, 4, 1)
	_, err := s.Solve(a, b, c)
	require.NoError(t, err)
	assert.Equal(t, "-5", s.Objective().String())
	pivots := s.PivotCount()
	assert.Greater(t, pivots, 0)

	a = getMatrix(t, []string{"1", "0", "1", "0", "0", "1", "0", "1", "1", "-1", "0", "0"}, 3, 4)
	b = getMatrix(t, []string{"2", "3", "1/2"}, 3, 1)
	x, err := s.Solve(a, b, c)
	require.NoError(t, err)
	assertFeasible(t, a, b, x)
	assert.Equal(t, "-7/2", s.Objective().String()) // x1 = 2, x2 = 3/2
	assert.Greater(t, s.PivotCount(), pivots)

	a = getMatrix(t, []string{"1", "1"}, 1, 2)
	b = getMatrix(t, []string{"5"}, 1, 1)
	c = getMatrix(t, []string{"3", "1"}, 2, 1)
	x, err = s.Solve(a, b, c)
	require.NoError(t, err)
	assert.Equal(t, "0\n5", x.String())

	// The returned objective is a copy
	objective := s.Objective()
	objective.SetInt64(17)
	assert.Equal(t, "5", s.Objective().String())
}

func TestState_SolveDepth(t *testing.T) {
	// Box rows y1 + s1 = 3, y2 + s2 = 3, then y1 - y2 = 1 as an extra row
	tableau, err := NewTableau(2, 1, 4)
	require.NoError(t, err)
	one, minusOne, zero := bignumber.NewFromInt64(1), bignumber.NewFromInt64(-1), bignumber.NewFromInt64(0)
	require.NoError(t, tableau.SetRow(0, []*bignumber.BigNumber{one, zero, one}, bignumber.NewFromInt64(3)))
	require.NoError(t, tableau.SetRow(1, []*bignumber.BigNumber{zero, one, zero, one}, bignumber.NewFromInt64(3)))
	require.NoError(t, tableau.SetExtraRow(0, []*bignumber.BigNumber{one, minusOne}, one))
	assert.Error(t, tableau.SetExtraRow(1, []*bignumber.BigNumber{one}, one))

	// max y2
	c := getMatrix(t, []string{"0", "-1", "0", "0"}, 4, 1)
	s := newTestState(t, tableau.Rows(), tableau.Cols(), strategy.SteepestWithBland)
	_, err = s.SolveDepth(tableau, 0, c)
	require.NoError(t, err)
	assert.Equal(t, "-3", s.Objective().String())
	_, err = s.SolveDepth(tableau, 1, c)
	require.NoError(t, err)
	assert.Equal(t, "-2", s.Objective().String())
	_, err = s.SolveDepth(tableau, 2, c)
	assert.Error(t, err)

	// A duplicate is independent of the original
	dup := tableau.Duplicate()
	require.NoError(t, dup.SetExtraRow(0, []*bignumber.BigNumber{one, minusOne}, bignumber.NewFromInt64(2)))
	_, err = s.SolveDepth(tableau, 1, c)
	require.NoError(t, err)
	assert.Equal(t, "-2", s.Objective().String())
	_, err = s.SolveDepth(dup, 1, c)
	require.NoError(t, err)
	assert.Equal(t, "-1", s.Objective().String())
}

// TestState_Solve_Random checks random bounded problems against every basic
// feasible solution, and against gonum's floating-point simplex
func TestState_Solve_Random(t *testing.T) {
	const tolerance = 1e-7
	for trial := 0; trial < 40; trial++ {
		rows := 1 + rand.Intn(3)
		vars := 1 + rand.Intn(3)
		a, b, c := getRandomBoundedProblem(rows, vars)
		cols := rows + vars
		expected, ok := bestVertex(t, a, b, c)
		require.True(t, ok, "random problems are feasible by construction")

		for ruleName, rule := range rules {
			s := newTestState(t, rows, cols, rule)
			x, err := s.Solve(a, b, c)
			require.NoErrorf(t, err, "rule %s on\nA =\n%s\nb =\n%s", ruleName, a.String(), b.String())
			assertFeasible(t, a, b, x)
			assert.Equalf(
				t, 0, s.Objective().Cmp(expected), "rule %s found %s, best vertex has %s",
				ruleName, s.Objective().String(), expected.String(),
			)
		}

		// gonum needs b >= 0 for its own phase 1, so flip rows as Solve does
		aFloat := mat.NewDense(rows, cols, nil)
		bFloat := make([]float64, rows)
		cFloat := make([]float64, cols)
		for i := 0; i < rows; i++ {
			sign := 1.0
			if b.At(i, 0).IsNegative() {
				sign = -1.0
			}
			bFloat[i] = sign * toFloat(b.At(i, 0))
			for j := 0; j < cols; j++ {
				aFloat.Set(i, j, sign*toFloat(a.At(i, j)))
			}
		}
		for j := 0; j < cols; j++ {
			cFloat[j] = toFloat(c.At(j, 0))
		}
		optF, _, err := lp.Simplex(cFloat, aFloat, bFloat, 0, nil)
		require.NoError(t, err)
		want := toFloat(expected)
		assert.LessOrEqual(t, math.Abs(optF-want), tolerance*math.Max(1, math.Abs(want)))
	}
}

// getRandomBoundedProblem returns constraints M y + s = b with positive M
// and b, some rows negated, so the feasible region is a bounded polytope
// containing 0
func getRandomBoundedProblem(rows, vars int) (*bigmatrix.BigMatrix, *bigmatrix.BigMatrix, *bigmatrix.BigMatrix) {
	cols := vars + rows
	a := bigmatrix.NewEmpty(rows, cols)
	b := bigmatrix.NewEmpty(rows, 1)
	c := bigmatrix.NewEmpty(cols, 1)
	for i := 0; i < rows; i++ {
		sign := int64(1)
		if rand.Intn(3) == 0 {
			sign = -1
		}
		for j := 0; j < vars; j++ {
			a.At(i, j).Set(bignumber.NewFromRat(big.NewRat(sign*(1+rand.Int63n(5)), 1+rand.Int63n(3))))
		}
		a.At(i, vars+i).SetInt64(sign)
		b.At(i, 0).Set(bignumber.NewFromRat(big.NewRat(sign*(1+rand.Int63n(20)), 1+rand.Int63n(4))))
	}
	for j := 0; j < vars; j++ {
		c.At(j, 0).Set(bignumber.NewFromRat(big.NewRat(rand.Int63n(11)-5, 1+rand.Int63n(3))))
	}
	return a, b, c
}

// bestVertex returns the least objective value over all basic feasible
// solutions of a x = b, x >= 0
func bestVertex(t *testing.T, a, b, c *bigmatrix.BigMatrix) (*bignumber.BigNumber, bool) {
	rows, cols := a.Dimensions()
	var best *bignumber.BigNumber
	for _, subset := range combinations(cols, rows) {
		basis := bigmatrix.NewEmpty(rows, rows)
		for k, j := range subset {
			for i := 0; i < rows; i++ {
				basis.At(i, k).Set(a.At(i, j))
			}
		}
		inverse, err := bigmatrix.Inverse(basis)
		if errors.Is(err, bigmatrix.ErrSingular) {
			continue
		}
		require.NoError(t, err)
		xB, err := bigmatrix.NewEmpty(0, 0).Mul(inverse, b)
		require.NoError(t, err)
		feasible := true
		objective := bignumber.NewFromInt64(0)
		for k, j := range subset {
			if xB.At(k, 0).IsNegative() {
				feasible = false
				break
			}
			objective.MulAdd(c.At(j, 0), xB.At(k, 0))
		}
		if feasible && (best == nil || objective.Cmp(best) < 0) {
			best = objective
		}
	}
	return best, best != nil
}

// combinations returns every size-element subset of {0,...,n-1} in
// increasing order
func combinations(n, size int) [][]int {
	var retVal [][]int
	var recurse func(start int, current []int)
	recurse = func(start int, current []int) {
		if len(current) == size {
			retVal = append(retVal, append([]int{}, current...))
			return
		}
		for j := start; j < n; j++ {
			recurse(j+1, append(current, j))
		}
	}
	recurse(0, []int{})
	return retVal
}

func assertFeasible(t *testing.T, a, b, x *bigmatrix.BigMatrix) {
	rows, cols := a.Dimensions()
	for j := 0; j < cols; j++ {
		assert.Falsef(t, x.At(j, 0).IsNegative(), "x[%d] = %s", j, x.At(j, 0).String())
	}
	for i := 0; i < rows; i++ {
		lhs, err := bigmatrix.DotProduct(a, x, i, 0, 0, cols)
		require.NoError(t, err)
		assert.Equalf(t, 0, lhs.Cmp(b.At(i, 0)), "row %d: %s != %s", i, lhs.String(), b.At(i, 0).String())
	}
}

func toFloat(bn *bignumber.BigNumber) float64 {
	f, _ := bn.Rat().Float64()
	return f
}
