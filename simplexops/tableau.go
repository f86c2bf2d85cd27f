// Copyright (c) 2023 Colin McRae

package simplexops

import (
	"fmt"

	"github.com/rjb3977/lattice/bigmatrix"
	"github.com/rjb3977/lattice/bignumber"
)

// Tableau holds the equality constraints A x = b of a family of linear
// programs that share their first baseRows rows. Up to extraRows further
// rows are filled in one at a time; Active(depth) exposes the base rows
// plus the first depth extra rows.
type Tableau struct {
	a         *bigmatrix.BigMatrix
	b         *bigmatrix.BigMatrix
	baseRows  int
	extraRows int
	cols      int
}

// NewTableau returns a tableau of zeros with room for baseRows + extraRows
// rows over cols columns
func NewTableau(baseRows, extraRows, cols int) (*Tableau, error) {
	if baseRows < 1 || extraRows < 0 || cols < 1 {
		return nil, fmt.Errorf(
			"NewTableau: invalid shape with %d base rows, %d extra rows and %d columns",
			baseRows, extraRows, cols,
		)
	}
	return &Tableau{
		a:         bigmatrix.NewEmpty(baseRows+extraRows, cols),
		b:         bigmatrix.NewEmpty(baseRows+extraRows, 1),
		baseRows:  baseRows,
		extraRows: extraRows,
		cols:      cols,
	}, nil
}

// SetRow sets row to coefficients, padded with 0s to the width of t, with
// right-hand side rhs
func (t *Tableau) SetRow(row int, coefficients []*bignumber.BigNumber, rhs *bignumber.BigNumber) error {
	if row < 0 || t.Rows() <= row {
		return fmt.Errorf("Tableau.SetRow: row %d outside {0,...,%d}", row, t.Rows()-1)
	}
	if len(coefficients) > t.cols {
		return fmt.Errorf("Tableau.SetRow: %d coefficients for %d columns", len(coefficients), t.cols)
	}
	for j := 0; j < t.cols; j++ {
		if j < len(coefficients) {
			t.a.At(row, j).Set(coefficients[j])
		} else {
			t.a.At(row, j).SetInt64(0)
		}
	}
	t.b.At(row, 0).Set(rhs)
	return nil
}

// SetExtraRow sets the row after the base rows and the first depth extra
// rows. See SetRow.
func (t *Tableau) SetExtraRow(depth int, coefficients []*bignumber.BigNumber, rhs *bignumber.BigNumber) error {
	if depth < 0 || t.extraRows <= depth {
		return fmt.Errorf("Tableau.SetExtraRow: depth %d outside {0,...,%d}", depth, t.extraRows-1)
	}
	return t.SetRow(t.baseRows+depth, coefficients, rhs)
}

// Active returns views of the constraint matrix and right-hand side made
// of the base rows and the first depth extra rows
func (t *Tableau) Active(depth int) (*bigmatrix.BigMatrix, *bigmatrix.BigMatrix, error) {
	if depth < 0 || t.extraRows < depth {
		return nil, nil, fmt.Errorf("Tableau.Active: depth %d outside {0,...,%d}", depth, t.extraRows)
	}
	rows := t.baseRows + depth
	a, err := t.a.View(0, 0, rows, t.cols)
	if err != nil {
		return nil, nil, fmt.Errorf("Tableau.Active: %q", err.Error())
	}
	b, err := t.b.View(0, 0, rows, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("Tableau.Active: %q", err.Error())
	}
	return a, b, nil
}

// Duplicate returns a deep copy of t
func (t *Tableau) Duplicate() *Tableau {
	return &Tableau{
		a:         t.a.Duplicate(),
		b:         t.b.Duplicate(),
		baseRows:  t.baseRows,
		extraRows: t.extraRows,
		cols:      t.cols,
	}
}

// Rows returns the number of rows t has room for
func (t *Tableau) Rows() int {
	return t.baseRows + t.extraRows
}

// Cols returns the number of columns in t
func (t *Tableau) Cols() int {
	return t.cols
}
