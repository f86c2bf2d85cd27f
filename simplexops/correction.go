// Copyright (c) 2023 Colin McRae

package simplexops

import (
	"fmt"

	"github.com/rjb3977/lattice/bigmatrix"
)

// Direction selects which system SolveWithCorrections solves
type Direction int

const (
	// Forward solves B x = rhs, where B is the current basis
	Forward Direction = iota
	// Transpose solves (B^T) x = rhs
	Transpose
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Transpose:
		return "transpose"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Correction records one basis change since the last factorization. The
// basis column in position Index was replaced by the column whose image
// under the previous basis inverse is Column, so the new basis is the old
// one times the identity with column Index replaced by Column.
type Correction struct {
	Index  int
	Column *bigmatrix.BigMatrix
}

// CorrectionLog is the ordered list of corrections applied to a factored
// basis. The zero value is an empty log.
type CorrectionLog struct {
	entries []Correction
}

// Append adds a correction at the end of the log. The log keeps its own
// copy of column, so the caller may keep writing to it.
func (cl *CorrectionLog) Append(index int, column *bigmatrix.BigMatrix) error {
	numRows, numCols := column.Dimensions()
	if numCols != 1 || index < 0 || numRows <= index {
		return fmt.Errorf(
			"CorrectionLog.Append: index %d does not fit a %d x %d column", index, numRows, numCols,
		)
	}
	cl.entries = append(cl.entries, Correction{Index: index, Column: column.Duplicate()})
	return nil
}

// Clear empties the log and releases the stored columns
func (cl *CorrectionLog) Clear() {
	cl.entries = nil
}

// Len returns the number of corrections in the log
func (cl *CorrectionLog) Len() int {
	return len(cl.entries)
}

// SolveWithCorrections overwrites the column x with the solution of the
// system chosen by direction, against the basis whose LU factorization
// (lu, pivots) has since been modified by the corrections in log.
//
// Forward solves against P L U first and then undoes each correction in
// the order it was made. Transpose undoes the corrections in reverse order
// and then solves against U^T L^T P^T.
func SolveWithCorrections(
	direction Direction, lu *bigmatrix.BigMatrix, pivots []int, log *CorrectionLog, x *bigmatrix.BigMatrix,
) error {
	numRows, numCols := x.Dimensions()
	if numCols != 1 {
		return fmt.Errorf("SolveWithCorrections: x is %d x %d, not a column", numRows, numCols)
	}
	for _, correction := range log.entries {
		if correction.Column.NumRows() != numRows {
			return fmt.Errorf(
				"SolveWithCorrections: correction column has %d rows but x has %d",
				correction.Column.NumRows(), numRows,
			)
		}
	}

	switch direction {
	case Forward:
		err := x.SolvePLU(lu, pivots)
		if err != nil {
			return fmt.Errorf("SolveWithCorrections: could not solve against PLU: %w", err)
		}
		for _, correction := range log.entries {
			err = applyInverse(correction, x)
			if err != nil {
				return err
			}
		}
	case Transpose:
		for k := len(log.entries) - 1; k >= 0; k-- {
			err := applyInverseTranspose(log.entries[k], x)
			if err != nil {
				return err
			}
		}
		err := x.SolveUTLTP(lu, pivots)
		if err != nil {
			return fmt.Errorf("SolveWithCorrections: could not solve against UTLTP: %w", err)
		}
	default:
		return fmt.Errorf("SolveWithCorrections: unknown direction %s", direction.String())
	}
	return nil
}

// applyInverse replaces x with E^-1 x, where E is the identity with column
// correction.Index replaced by correction.Column
func applyInverse(correction Correction, x *bigmatrix.BigMatrix) error {
	r := correction.Index
	d := correction.Column
	xr := x.At(r, 0)
	if _, err := xr.Quo(xr, d.At(r, 0)); err != nil {
		return fmt.Errorf("SolveWithCorrections: correction at index %d has a zero pivot: %q", r, err.Error())
	}
	for i := 0; i < x.NumRows(); i++ {
		if i == r {
			continue
		}
		x.At(i, 0).MulSub(d.At(i, 0), xr)
	}
	return nil
}

// applyInverseTranspose replaces x with (E^T)^-1 x
func applyInverseTranspose(correction Correction, x *bigmatrix.BigMatrix) error {
	r := correction.Index
	d := correction.Column
	xr := x.At(r, 0)
	for i := 0; i < x.NumRows(); i++ {
		if i == r {
			continue
		}
		xr.MulSub(d.At(i, 0), x.At(i, 0))
	}
	if _, err := xr.Quo(xr, d.At(r, 0)); err != nil {
		return fmt.Errorf("SolveWithCorrections: correction at index %d has a zero pivot: %q", r, err.Error())
	}
	return nil
}
