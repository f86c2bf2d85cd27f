// Copyright (c) 2023 Colin McRae

// Package simplexops solves small linear programs exactly with a revised,
// two-phase simplex method. The basis is kept as an LU factorization that
// is corrected after each pivot rather than refactored.
package simplexops

import (
	"errors"
	"fmt"

	"github.com/rjb3977/lattice/bigmatrix"
	"github.com/rjb3977/lattice/bignumber"
)

var (
	// ErrUnbounded is returned when the ratio test finds no leaving row
	ErrUnbounded = errors.New("linear program is unbounded")
	// ErrInfeasible is returned when phase 1 ends with an artificial
	// variable at a positive value
	ErrInfeasible = errors.New("linear program is infeasible")
)

// EnteringRule chooses the variable to enter the basis. reducedCosts[k] is
// the reduced cost of variable nonBasic[k], and degenerate reports whether
// some basic variable is exactly zero. The rule returns an index into
// nonBasic, or -1 if no reduced cost is negative.
type EnteringRule func(reducedCosts []*bignumber.BigNumber, nonBasic []int, degenerate bool) int

const (
	phaseOne = 1
	phaseTwo = 2
)

// State holds the buffers of a revised simplex solver sized for linear
// programs with up to maxRows constraints over up to maxCols variables.
// A State is not safe for concurrent use; give each goroutine its own.
//
// Columns 0,...,cols-1 of the active problem are its variables, and
// columns cols,...,cols+rows-1 are the artificial variables of phase 1,
// whose columns are the columns of the identity.
type State struct {
	maxRows int
	maxCols int
	rule    EnteringRule
	tracker *bignumber.SizeTracker

	// Pre-sized storage
	aStorage      *bigmatrix.BigMatrix
	bStorage      *bigmatrix.BigMatrix
	luStorage     *bigmatrix.BigMatrix
	basicStorage  *bigmatrix.BigMatrix
	lambdaStorage *bigmatrix.BigMatrix
	dStorage      *bigmatrix.BigMatrix
	xStorage      *bigmatrix.BigMatrix
	cost          []*bignumber.BigNumber
	reducedCosts  []*bignumber.BigNumber
	pivotsStorage []int
	basicIndices  []int
	nonBasic      []int

	// Views of the active problem
	rows        int
	cols        int
	phase       int
	a           *bigmatrix.BigMatrix
	b           *bigmatrix.BigMatrix
	lu          *bigmatrix.BigMatrix
	basicValues *bigmatrix.BigMatrix
	lambda      *bigmatrix.BigMatrix
	d           *bigmatrix.BigMatrix
	x           *bigmatrix.BigMatrix
	pivots      []int
	basic       []int
	log         CorrectionLog
	objective   *bignumber.BigNumber
	pivotCount  int
	theta       *bignumber.BigNumber
	ratio       *bignumber.BigNumber
	bestRatio   *bignumber.BigNumber
	scratch     *bignumber.BigNumber
}

// NewState returns a State for linear programs with at most maxRows rows
// and maxCols columns. rule must not be nil. tracker may be nil.
func NewState(maxRows, maxCols int, rule EnteringRule, tracker *bignumber.SizeTracker) (*State, error) {
	if maxRows < 1 || maxCols < 1 {
		return nil, fmt.Errorf("NewState: invalid maximum shape %d x %d", maxRows, maxCols)
	}
	if rule == nil {
		return nil, fmt.Errorf("NewState: nil entering rule")
	}
	retVal := &State{
		maxRows:       maxRows,
		maxCols:       maxCols,
		rule:          rule,
		tracker:       tracker,
		aStorage:      bigmatrix.NewEmpty(maxRows, maxCols),
		bStorage:      bigmatrix.NewEmpty(maxRows, 1),
		luStorage:     bigmatrix.NewEmpty(maxRows, maxRows),
		basicStorage:  bigmatrix.NewEmpty(maxRows, 1),
		lambdaStorage: bigmatrix.NewEmpty(maxRows, 1),
		dStorage:      bigmatrix.NewEmpty(maxRows, 1),
		xStorage:      bigmatrix.NewEmpty(maxCols, 1),
		cost:          make([]*bignumber.BigNumber, maxCols+maxRows),
		reducedCosts:  make([]*bignumber.BigNumber, maxCols+maxRows),
		pivotsStorage: make([]int, maxRows),
		basicIndices:  make([]int, maxRows),
		nonBasic:      make([]int, 0, maxCols+maxRows),
		objective:     bignumber.NewFromInt64(0),
		theta:         bignumber.NewFromInt64(0),
		ratio:         bignumber.NewFromInt64(0),
		bestRatio:     bignumber.NewFromInt64(0),
		scratch:       bignumber.NewFromInt64(0),
	}
	for j := 0; j < maxCols+maxRows; j++ {
		retVal.cost[j] = bignumber.NewFromInt64(0)
		retVal.reducedCosts[j] = bignumber.NewFromInt64(0)
	}
	return retVal, nil
}

// Solve returns a vertex x minimizing c^T x subject to a x = b and x >= 0.
// a is rows x cols with rows <= cols, b is rows x 1 and c is cols x 1.
// The returned column is owned by s and is overwritten by the next call.
//
// ErrInfeasible is returned if no x satisfies the constraints, and
// ErrUnbounded if c^T x has no minimum over them. Both are wrapped.
func (s *State) Solve(a, b, c *bigmatrix.BigMatrix) (*bigmatrix.BigMatrix, error) {
	err := s.load(a, b, c)
	if err != nil {
		return nil, err
	}

	// Phase 1 starts from the all-artificial basis, whose factorization
	// is the identity
	s.phase = phaseOne
	for j := 0; j < s.cols+s.rows; j++ {
		if j < s.cols {
			s.cost[j].SetInt64(0)
		} else {
			s.cost[j].SetInt64(1)
		}
	}
	s.nonBasic = s.nonBasic[:0]
	for j := 0; j < s.cols; j++ {
		s.nonBasic = append(s.nonBasic, j)
	}
	for i := 0; i < s.rows; i++ {
		s.basic[i] = s.cols + i
	}
	err = s.refactor()
	if err != nil {
		return nil, fmt.Errorf("State.Solve: could not factor the phase 1 basis: %w", err)
	}
	err = s.iterate()
	if err != nil {
		return nil, fmt.Errorf("State.Solve: phase 1: %w", err)
	}
	for i := 0; i < s.rows; i++ {
		if s.basic[i] >= s.cols && s.basicValues.At(i, 0).Sign() > 0 {
			return nil, fmt.Errorf(
				"State.Solve: artificial variable %d is %s after phase 1: %w",
				s.basic[i]-s.cols, s.basicValues.At(i, 0).String(), ErrInfeasible,
			)
		}
	}
	err = s.repair()
	if err != nil {
		return nil, fmt.Errorf("State.Solve: %q", err.Error())
	}

	// Phase 2 starts from the phase 1 basis with artificial variables
	// barred from entering
	s.phase = phaseTwo
	for j := 0; j < s.cols+s.rows; j++ {
		if j < s.cols {
			s.cost[j].Set(c.At(j, 0))
		} else {
			s.cost[j].SetInt64(0)
		}
	}
	s.dropArtificialNonBasics()
	err = s.refactor()
	if err != nil {
		return nil, fmt.Errorf("State.Solve: could not factor the phase 2 basis: %w", err)
	}
	err = s.iterate()
	if err != nil {
		return nil, fmt.Errorf("State.Solve: phase 2: %w", err)
	}

	// x is 0 off the basis
	for j := 0; j < s.cols; j++ {
		s.x.At(j, 0).SetInt64(0)
	}
	s.objective.SetInt64(0)
	for i := 0; i < s.rows; i++ {
		if s.basic[i] < s.cols {
			s.x.At(s.basic[i], 0).Set(s.basicValues.At(i, 0))
			s.objective.MulAdd(c.At(s.basic[i], 0), s.basicValues.At(i, 0))
		}
	}
	s.tracker.Observe(s.objective)
	return s.x, nil
}

// SolveDepth solves the linear program whose constraints are the rows of t
// that are active at depth, with cost c
func (s *State) SolveDepth(t *Tableau, depth int, c *bigmatrix.BigMatrix) (*bigmatrix.BigMatrix, error) {
	a, b, err := t.Active(depth)
	if err != nil {
		return nil, fmt.Errorf("State.SolveDepth: %q", err.Error())
	}
	return s.Solve(a, b, c)
}

// Step performs one iteration of the revised simplex method against the
// cost of the current phase. It returns true if the basis was already
// optimal, in which case nothing changes.
func (s *State) Step() (bool, error) {
	// Simplex multipliers solve (B^T) lambda = c_B
	for i := 0; i < s.rows; i++ {
		s.lambda.At(i, 0).Set(s.cost[s.basic[i]])
	}
	err := SolveWithCorrections(Transpose, s.lu, s.pivots, &s.log, s.lambda)
	if err != nil {
		return false, fmt.Errorf("State.Step: could not compute multipliers: %w", err)
	}

	// Reduced costs of the non-basic variables
	for k, j := range s.nonBasic {
		reduced := s.reducedCosts[k]
		reduced.Set(s.cost[j])
		if j < s.cols {
			for i := 0; i < s.rows; i++ {
				reduced.MulSub(s.lambda.At(i, 0), s.a.At(i, j))
			}
		} else {
			reduced.Sub(reduced, s.lambda.At(j-s.cols, 0))
		}
	}
	degenerate := false
	for i := 0; i < s.rows; i++ {
		if s.basicValues.At(i, 0).IsZero() {
			degenerate = true
			break
		}
	}
	entering := s.rule(s.reducedCosts[:len(s.nonBasic)], s.nonBasic, degenerate)
	if entering < 0 {
		return true, nil
	}
	if len(s.nonBasic) <= entering {
		return false, fmt.Errorf(
			"State.Step: entering rule chose %d of %d non-basic variables", entering, len(s.nonBasic),
		)
	}
	if s.reducedCosts[entering].Sign() >= 0 {
		return false, fmt.Errorf(
			"State.Step: entering rule chose variable %d with reduced cost %s",
			s.nonBasic[entering], s.reducedCosts[entering].String(),
		)
	}

	// Direction of the entering column in the current basis
	s.column(s.nonBasic[entering], s.d)
	err = SolveWithCorrections(Forward, s.lu, s.pivots, &s.log, s.d)
	if err != nil {
		return false, fmt.Errorf("State.Step: could not compute the direction: %w", err)
	}

	// Ratio test. Ties go to the first row found, except in a degenerate
	// basis, where they go to the smallest basic variable.
	leaving := -1
	for i := 0; i < s.rows; i++ {
		di := s.d.At(i, 0)
		if di.Sign() <= 0 {
			continue
		}
		_, err = s.ratio.Quo(s.basicValues.At(i, 0), di)
		if err != nil {
			return false, fmt.Errorf("State.Step: %q", err.Error())
		}
		if leaving == -1 {
			leaving = i
			s.bestRatio.Set(s.ratio)
			continue
		}
		cmp := s.ratio.Cmp(s.bestRatio)
		if cmp < 0 || (cmp == 0 && degenerate && s.basic[i] < s.basic[leaving]) {
			leaving = i
			s.bestRatio.Set(s.ratio)
		}
	}
	if leaving == -1 {
		return false, fmt.Errorf(
			"State.Step: variable %d can increase without bound: %w", s.nonBasic[entering], ErrUnbounded,
		)
	}
	err = s.pivot(leaving, entering, s.bestRatio)
	if err != nil {
		return false, fmt.Errorf("State.Step: %q", err.Error())
	}
	return false, nil
}

// PivotCount returns the number of pivots s has made over its lifetime
func (s *State) PivotCount() int {
	return s.pivotCount
}

// Objective returns a copy of the optimal objective value of the last
// successful Solve
func (s *State) Objective() *bignumber.BigNumber {
	return bignumber.NewFromBigNumber(s.objective)
}

// load copies the active problem into the pre-sized buffers, negating rows
// whose right-hand side is negative
func (s *State) load(a, b, c *bigmatrix.BigMatrix) error {
	rows, cols := a.Dimensions()
	if rows < 1 || cols < 1 || s.maxRows < rows || s.maxCols < cols {
		return fmt.Errorf(
			"State.Solve: %d x %d constraints do not fit a solver for %d x %d", rows, cols, s.maxRows, s.maxCols,
		)
	}
	if cols < rows {
		return fmt.Errorf("State.Solve: %d rows exceed %d columns", rows, cols)
	}
	if b.NumRows() != rows || b.NumCols() != 1 {
		return fmt.Errorf("State.Solve: right-hand side is %d x %d, expected %d x 1", b.NumRows(), b.NumCols(), rows)
	}
	if c.NumRows() != cols || c.NumCols() != 1 {
		return fmt.Errorf("State.Solve: cost is %d x %d, expected %d x 1", c.NumRows(), c.NumCols(), cols)
	}
	s.rows, s.cols = rows, cols
	views := []struct {
		target  **bigmatrix.BigMatrix
		storage *bigmatrix.BigMatrix
		numRows int
		numCols int
	}{
		{&s.a, s.aStorage, rows, cols},
		{&s.b, s.bStorage, rows, 1},
		{&s.lu, s.luStorage, rows, rows},
		{&s.basicValues, s.basicStorage, rows, 1},
		{&s.lambda, s.lambdaStorage, rows, 1},
		{&s.d, s.dStorage, rows, 1},
		{&s.x, s.xStorage, cols, 1},
	}
	for _, v := range views {
		view, err := v.storage.View(0, 0, v.numRows, v.numCols)
		if err != nil {
			return fmt.Errorf("State.Solve: %q", err.Error())
		}
		*v.target = view
	}
	s.pivots = s.pivotsStorage[:rows]
	s.basic = s.basicIndices[:rows]
	for i := 0; i < rows; i++ {
		negate := b.At(i, 0).IsNegative()
		for j := 0; j < cols; j++ {
			if negate {
				s.a.At(i, j).Neg(a.At(i, j))
			} else {
				s.a.At(i, j).Set(a.At(i, j))
			}
		}
		s.b.At(i, 0).Abs(b.At(i, 0))
	}
	return nil
}

// column writes column j of the active problem, including the artificial
// columns, into the column dst
func (s *State) column(j int, dst *bigmatrix.BigMatrix) {
	for i := 0; i < s.rows; i++ {
		switch {
		case j < s.cols:
			dst.At(i, 0).Set(s.a.At(i, j))
		case i == j-s.cols:
			dst.At(i, 0).SetInt64(1)
		default:
			dst.At(i, 0).SetInt64(0)
		}
	}
}

// refactor factors the current basis from scratch, clears the correction
// log and recomputes the basic values
func (s *State) refactor() error {
	for k := 0; k < s.rows; k++ {
		col, err := s.lu.View(0, k, s.rows, 1)
		if err != nil {
			return fmt.Errorf("refactor: %q", err.Error())
		}
		s.column(s.basic[k], col)
	}
	err := s.lu.Factor(s.pivots)
	if err != nil {
		return fmt.Errorf("refactor: %w", err)
	}
	s.log.Clear()
	err = s.basicValues.SetFrom(s.b)
	if err != nil {
		return fmt.Errorf("refactor: %q", err.Error())
	}
	err = SolveWithCorrections(Forward, s.lu, s.pivots, &s.log, s.basicValues)
	if err != nil {
		return fmt.Errorf("refactor: %w", err)
	}
	return nil
}

// iterate calls Step until the basis is optimal
func (s *State) iterate() error {
	for {
		optimal, err := s.Step()
		if err != nil {
			return err
		}
		if optimal {
			return nil
		}
	}
}

// pivot moves nonBasic[entering] into the basis in row leaving, moving
// the amount theta along the direction in s.d, and records the correction
func (s *State) pivot(leaving, entering int, theta *bignumber.BigNumber) error {
	s.theta.Set(theta)
	for i := 0; i < s.rows; i++ {
		if i == leaving {
			continue
		}
		s.basicValues.At(i, 0).MulSub(s.theta, s.d.At(i, 0))
	}
	s.basicValues.At(leaving, 0).Set(s.theta)
	err := s.log.Append(leaving, s.d)
	if err != nil {
		return fmt.Errorf("pivot: %q", err.Error())
	}
	exiting := s.basic[leaving]
	s.basic[leaving] = s.nonBasic[entering]
	if s.phase == phaseTwo && exiting >= s.cols {
		// An artificial variable that leaves in phase 2 never returns
		s.nonBasic = append(s.nonBasic[:entering], s.nonBasic[entering+1:]...)
	} else {
		s.nonBasic[entering] = exiting
	}
	s.pivotCount++
	s.tracker.Observe(s.theta)
	return nil
}

// repair pivots artificial variables left in the basis after phase 1 out
// of it, wherever some original variable has a non-zero entry in their row
// of the basis inverse times the constraint matrix. The pivots are
// degenerate because phase 1 left those artificial variables at 0.
func (s *State) repair() error {
	for i := 0; i < s.rows; i++ {
		if s.basic[i] < s.cols {
			continue
		}

		// Row i of B^-1 is the solution of (B^T) rho = e_i
		for k := 0; k < s.rows; k++ {
			if k == i {
				s.lambda.At(k, 0).SetInt64(1)
			} else {
				s.lambda.At(k, 0).SetInt64(0)
			}
		}
		err := SolveWithCorrections(Transpose, s.lu, s.pivots, &s.log, s.lambda)
		if err != nil {
			return fmt.Errorf("repair: %w", err)
		}
		for k, j := range s.nonBasic {
			if j >= s.cols {
				continue
			}
			s.scratch.SetInt64(0)
			for r := 0; r < s.rows; r++ {
				s.scratch.MulAdd(s.lambda.At(r, 0), s.a.At(r, j))
			}
			if s.scratch.IsZero() {
				continue
			}
			s.column(j, s.d)
			err = SolveWithCorrections(Forward, s.lu, s.pivots, &s.log, s.d)
			if err != nil {
				return fmt.Errorf("repair: %w", err)
			}
			err = s.pivot(i, k, s.basicValues.At(i, 0))
			if err != nil {
				return fmt.Errorf("repair: %q", err.Error())
			}
			break
		}
	}
	return nil
}

// dropArtificialNonBasics removes the artificial variables from the
// non-basic set
func (s *State) dropArtificialNonBasics() {
	kept := s.nonBasic[:0]
	for _, j := range s.nonBasic {
		if j < s.cols {
			kept = append(kept, j)
		}
	}
	s.nonBasic = kept
}
