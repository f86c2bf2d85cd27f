// Package enumerate lists every lattice point inside an axis-aligned box.
//
// The lattice is given by a basis whose columns generate it, and a point of
// the lattice is named by its integer coordinates v with respect to that
// basis. The box is lower <= basis v <= upper in the ambient coordinates.
//
// The search fixes one coordinate of v at a time. With the first k
// coordinates fixed, the range of coordinate k over the box is bounded by
// two exact linear programs, and every integer in that range is tried in
// turn. Let T be the inverse of the basis and y = basis v - lower, so that
// 0 <= y <= upper - lower and v = T y + T lower. The linear programs are
// over y and the slack s = upper - lower - y:
//
//	y + s = upper - lower                 (one row per ambient coordinate)
//	T[j] y = v[j] - (T lower)[j]          (one row per fixed coordinate j)
//	y, s >= 0
//
// Coordinate k is at least the ceiling of min T[k] y + (T lower)[k], and at
// most the floor of (T lower)[k] - min -T[k] y. Because the arithmetic is
// exact, no point is lost to round-off at either end of the range.
package enumerate

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/rjb3977/lattice/bigmatrix"
	"github.com/rjb3977/lattice/bignumber"
	"github.com/rjb3977/lattice/simplexops"
	"github.com/rjb3977/lattice/strategy"
)

// ErrSingularBasis is returned when the basis has no inverse, so it does
// not generate a full-rank lattice
var ErrSingularBasis = errors.New("basis is singular")

// Config holds the optional settings of an Enumerator. The zero value
// uses every CPU, the steepest-with-Bland entering rule, and no logging,
// metrics or size tracking.
type Config struct {
	// ThreadMax caps the number of goroutines exploring the search tree
	// at once. ThreadMax <= 0 means runtime.NumCPU().
	ThreadMax int
	Rule      simplexops.EnteringRule
	Logger    *logrus.Logger
	Metrics   *Metrics
	Tracker   *bignumber.SizeTracker
}

// Enumerator runs searches with a fixed Config. One Enumerator may run
// several searches, including concurrently.
type Enumerator struct {
	threadMax int
	rule      simplexops.EnteringRule
	logger    *logrus.Logger
	metrics   *Metrics
	tracker   *bignumber.SizeTracker
}

// NewEnumerator returns an Enumerator for cfg, with defaults filled in
func NewEnumerator(cfg Config) *Enumerator {
	retVal := &Enumerator{
		threadMax: cfg.ThreadMax,
		rule:      cfg.Rule,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		tracker:   cfg.Tracker,
	}
	if retVal.threadMax <= 0 {
		retVal.threadMax = runtime.NumCPU()
	}
	if retVal.rule == nil {
		retVal.rule = strategy.SteepestWithBland
	}
	if retVal.logger == nil {
		retVal.logger = logrus.New()
		retVal.logger.SetOutput(io.Discard)
	}
	return retVal
}

// Enumerate returns the number of lattice points v with lower <= basis v <=
// upper, and the points themselves as n x 1 columns of integers. basis is
// n x n; lower and upper are n x 1. At most threadMax goroutines search at
// once, or runtime.NumCPU() if threadMax <= 0. The order of the points
// depends on scheduling.
func Enumerate(
	basis, lower, upper *bigmatrix.BigMatrix, threadMax int,
) (int, []*bigmatrix.BigMatrix, error) {
	return NewEnumerator(Config{ThreadMax: threadMax}).Run(basis, lower, upper)
}

// problem is the part of a search shared read-only by every goroutine
type problem struct {
	dim       int
	transform *bigmatrix.BigMatrix
	offset    *bigmatrix.BigMatrix
	minCosts  []*bigmatrix.BigMatrix // minCosts[k] is [T[k] | 0]
	maxCosts  []*bigmatrix.BigMatrix // maxCosts[k] is [-T[k] | 0]
}

// frame is the state owned by one branch of the search. A spawned branch
// gets a deep copy, so no two goroutines ever share a frame.
type frame struct {
	tableau *simplexops.Tableau
	fixed   *bigmatrix.BigMatrix
}

func (f *frame) duplicate() *frame {
	return &frame{tableau: f.tableau.Duplicate(), fixed: f.fixed.Duplicate()}
}

// resultSet collects points from every goroutine
type resultSet struct {
	mutex  sync.Mutex
	points []*bigmatrix.BigMatrix
}

func (rs *resultSet) add(point *bigmatrix.BigMatrix) {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	rs.points = append(rs.points, point)
}

// search is one run of an Enumerator
type search struct {
	*Enumerator
	problem
	group   *errgroup.Group
	slots   *semaphore.Weighted
	results *resultSet
}

// Run returns the number of lattice points v with lower <= basis v <=
// upper, and the points themselves. See Enumerate.
func (e *Enumerator) Run(basis, lower, upper *bigmatrix.BigMatrix) (int, []*bigmatrix.BigMatrix, error) {
	dim, numCols := basis.Dimensions()
	if dim < 1 || dim != numCols {
		return 0, nil, fmt.Errorf("Enumerator.Run: basis is %d x %d, not square", dim, numCols)
	}
	for _, bound := range []*bigmatrix.BigMatrix{lower, upper} {
		if bound.NumRows() != dim || bound.NumCols() != 1 {
			return 0, nil, fmt.Errorf(
				"Enumerator.Run: bound is %d x %d, expected %d x 1", bound.NumRows(), bound.NumCols(), dim,
			)
		}
	}
	log := e.logger.WithField("dimension", dim)

	// An empty box has no points, and would give the linear programs a
	// negative upper bound on y
	width := bigmatrix.NewEmpty(0, 0)
	_, err := width.Sub(upper, lower)
	if err != nil {
		return 0, nil, fmt.Errorf("Enumerator.Run: %q", err.Error())
	}
	for i := 0; i < dim; i++ {
		if width.At(i, 0).IsNegative() {
			log.WithField("coordinate", i).Info("box is empty")
			return 0, []*bigmatrix.BigMatrix{}, nil
		}
	}

	p, err := newProblem(basis, lower)
	if err != nil {
		return 0, nil, err
	}
	root, err := newRootFrame(width)
	if err != nil {
		return 0, nil, fmt.Errorf("Enumerator.Run: %q", err.Error())
	}

	s := e.newSearch(p)
	log.WithField("threads", e.threadMax).Info("starting enumeration")
	err = s.run(root)
	e.metrics.setMaxBits(e.tracker.MaxBits())
	if err != nil {
		return 0, nil, fmt.Errorf("Enumerator.Run: %w", err)
	}
	log.WithField("points", len(s.results.points)).Info("enumeration complete")
	return len(s.results.points), s.results.points, nil
}

func (e *Enumerator) newSearch(p *problem) *search {
	return &search{
		Enumerator: e,
		problem:    *p,
		group:      &errgroup.Group{},
		slots:      semaphore.NewWeighted(int64(e.threadMax)),
		results:    &resultSet{},
	}
}

// run explores the tree below root and waits for every worker. The root
// worker holds one of the threadMax slots like any other.
func (s *search) run(root *frame) error {
	if !s.slots.TryAcquire(1) {
		return fmt.Errorf("search.run: no worker slot for the root")
	}
	s.group.Go(func() error {
		defer s.slots.Release(1)
		return s.worker(root, 0)
	})
	return s.group.Wait()
}

// newProblem inverts the basis and builds the costs of every linear program
func newProblem(basis, lower *bigmatrix.BigMatrix) (*problem, error) {
	dim := basis.NumRows()
	transform, err := bigmatrix.Inverse(basis)
	if err != nil {
		if errors.Is(err, bigmatrix.ErrSingular) {
			return nil, fmt.Errorf("newProblem: %s: %w", err.Error(), ErrSingularBasis)
		}
		return nil, fmt.Errorf("newProblem: could not invert the basis: %q", err.Error())
	}
	offset, err := bigmatrix.NewEmpty(0, 0).Mul(transform, lower)
	if err != nil {
		return nil, fmt.Errorf("newProblem: could not transform the lower bound: %q", err.Error())
	}
	retVal := &problem{
		dim:       dim,
		transform: transform,
		offset:    offset,
		minCosts:  make([]*bigmatrix.BigMatrix, dim),
		maxCosts:  make([]*bigmatrix.BigMatrix, dim),
	}
	for k := 0; k < dim; k++ {
		retVal.minCosts[k] = bigmatrix.NewEmpty(2*dim, 1)
		retVal.maxCosts[k] = bigmatrix.NewEmpty(2*dim, 1)
		for j := 0; j < dim; j++ {
			retVal.minCosts[k].At(j, 0).Set(transform.At(k, j))
			retVal.maxCosts[k].At(j, 0).Neg(transform.At(k, j))
		}
	}
	return retVal, nil
}

// newRootFrame returns the frame with no coordinate fixed, whose tableau
// holds the box rows y[i] + s[i] = width[i]
func newRootFrame(width *bigmatrix.BigMatrix) (*frame, error) {
	dim := width.NumRows()
	tableau, err := simplexops.NewTableau(dim, dim, 2*dim)
	if err != nil {
		return nil, fmt.Errorf("newRootFrame: %q", err.Error())
	}
	zero, one := bignumber.NewFromInt64(0), bignumber.NewFromInt64(1)
	row := make([]*bignumber.BigNumber, 2*dim)
	for i := 0; i < dim; i++ {
		for j := range row {
			row[j] = zero
		}
		row[i], row[dim+i] = one, one
		err = tableau.SetRow(i, row, width.At(i, 0))
		if err != nil {
			return nil, fmt.Errorf("newRootFrame: %q", err.Error())
		}
	}
	return &frame{tableau: tableau, fixed: bigmatrix.NewEmpty(dim, 1)}, nil
}

// worker explores f from depth on with its own solver buffers
func (s *search) worker(f *frame, depth int) error {
	s.metrics.workerStarted()
	defer s.metrics.workerDone()
	state, err := simplexops.NewState(f.tableau.Rows(), f.tableau.Cols(), s.rule, s.tracker)
	if err != nil {
		return fmt.Errorf("worker: %q", err.Error())
	}
	return s.visit(f, depth, state)
}

// visit explores every completion of the first depth coordinates fixed in f
func (s *search) visit(f *frame, depth int, state *simplexops.State) error {
	s.metrics.addNode()
	if depth == s.dim {
		point := f.fixed.Duplicate()
		s.results.add(point)
		s.metrics.addPoint()
		if s.logger.IsLevelEnabled(logrus.TraceLevel) {
			s.logger.WithField("point", point.String()).Trace("found point")
		}
		return nil
	}

	low, high, err := s.bounds(f, depth, state)
	if err != nil {
		return fmt.Errorf("visit: depth %d: %w", depth, err)
	}
	residual := bignumber.NewFromInt64(0)
	value := bignumber.NewFromInt64(0)
	row := make([]*bignumber.BigNumber, s.dim)
	for v := low; v.Cmp(high) <= 0; v = new(big.Int).Add(v, big.NewInt(1)) {
		// Coordinate depth is fixed to v by T[depth] y = v - offset[depth],
		// negated if need be to keep the right-hand side non-negative
		value.SetInt(v)
		residual.Sub(value, s.offset.At(depth, 0))
		negate := residual.IsNegative()
		for j := 0; j < s.dim; j++ {
			if negate {
				row[j] = bignumber.NewFromInt64(0).Neg(s.transform.At(depth, j))
			} else {
				row[j] = s.transform.At(depth, j)
			}
		}
		if negate {
			residual.Neg(residual)
		}

		// Row depth and fixed[depth] are rewritten for every v, and deeper
		// rows are inactive until rewritten, so an inline branch reuses f
		err = f.tableau.SetExtraRow(depth, row, residual)
		if err != nil {
			return fmt.Errorf("visit: %q", err.Error())
		}
		f.fixed.At(depth, 0).Set(value)

		if depth+1 < s.dim && s.slots.TryAcquire(1) {
			child := f.duplicate()
			s.group.Go(func() error {
				defer s.slots.Release(1)
				return s.worker(child, depth+1)
			})
			s.metrics.addSpawn()
			s.logger.WithFields(logrus.Fields{
				"depth": depth,
				"value": v.String(),
			}).Debug("spawned branch")
			continue
		}
		err = s.visit(f, depth+1, state)
		if err != nil {
			return err
		}
	}
	return nil
}

// bounds returns the least and greatest integer values coordinate depth
// takes over the box, given the coordinates already fixed in f. low >
// high when no value is possible.
func (s *search) bounds(f *frame, depth int, state *simplexops.State) (*big.Int, *big.Int, error) {
	pivotsBefore := state.PivotCount()
	_, err := state.SolveDepth(f.tableau, depth, s.minCosts[depth])
	if err != nil {
		return nil, nil, fmt.Errorf("bounds: minimizing coordinate %d: %w", depth, err)
	}
	low := bignumber.NewFromInt64(0).Add(s.offset.At(depth, 0), state.Objective()).Ceil()

	_, err = state.SolveDepth(f.tableau, depth, s.maxCosts[depth])
	if err != nil {
		return nil, nil, fmt.Errorf("bounds: maximizing coordinate %d: %w", depth, err)
	}
	high := bignumber.NewFromInt64(0).Sub(s.offset.At(depth, 0), state.Objective()).Floor()
	s.metrics.addSolves(2, state.PivotCount()-pivotsBefore)
	return low, high, nil
}
