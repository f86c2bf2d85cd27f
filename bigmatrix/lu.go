// Copyright (c) 2023 Colin McRae

package bigmatrix

import (
	"errors"
	"fmt"

	"github.com/rjb3977/lattice/bignumber"
)

// ErrSingular is returned when a matrix being factored has a column with no
// non-zero entry on or below the diagonal.
var ErrSingular = errors.New("matrix is singular")

// Factor overwrites the square matrix bm with its LU factorization and
// fills pivots, which must have one entry per row of bm.
//
// After Factor, the strictly lower triangle of bm holds L (whose diagonal
// of 1s is implicit) and the upper triangle holds U. pivots[i] is the row
// swapped into row i at step i of the elimination, so applying the swaps
// i <-> pivots[i] for i = 0, 1, ... to the original matrix yields LU.
//
// The pivot in each column is the first non-zero entry on or below the
// diagonal. Arithmetic is exact, so there is no reason to prefer entries
// of large magnitude. If some column has no such entry, ErrSingular is
// returned and bm is left partially factored.
func (bm *BigMatrix) Factor(pivots []int) error {
	if bm.numRows != bm.numCols {
		return fmt.Errorf("BigMatrix.Factor: %d x %d matrix is not square", bm.numRows, bm.numCols)
	}
	size := bm.numRows
	if len(pivots) != size {
		return fmt.Errorf("BigMatrix.Factor: %d pivots for a %d x %d matrix", len(pivots), size, size)
	}
	for i := 0; i < size; i++ {
		pivots[i] = i
	}
	temp := bignumber.NewFromInt64(0)
	for i := 0; i < size; i++ {
		pivotRow := -1
		for row := i; row < size; row++ {
			if !bm.At(row, i).IsZero() {
				pivotRow = row
				break
			}
		}
		if pivotRow == -1 {
			return fmt.Errorf("BigMatrix.Factor: no pivot in column %d: %w", i, ErrSingular)
		}
		pivots[i] = pivotRow
		if pivotRow != i {
			err := bm.SwapRows(i, pivotRow)
			if err != nil {
				return fmt.Errorf("BigMatrix.Factor: could not swap rows %d and %d: %q", i, pivotRow, err.Error())
			}
		}
		pivot := bm.At(i, i)
		for row := i + 1; row < size; row++ {
			multiplier := bm.At(row, i)
			if multiplier.IsZero() {
				continue
			}
			if _, err := multiplier.Quo(multiplier, pivot); err != nil {
				return fmt.Errorf("BigMatrix.Factor: could not divide by the pivot in column %d: %q", i, err.Error())
			}
			for col := i + 1; col < size; col++ {
				temp.Mul(multiplier, bm.At(i, col))
				entry := bm.At(row, col)
				entry.Sub(entry, temp)
			}
		}
	}
	return nil
}

// SolveP applies the inverse of the row swaps in pivots to every column of
// bm, undoing what SolvePT does.
func (bm *BigMatrix) SolveP(pivots []int) error {
	if len(pivots) != bm.numRows {
		return fmt.Errorf("BigMatrix.SolveP: %d pivots for %d rows", len(pivots), bm.numRows)
	}
	for row := bm.numRows - 1; row >= 0; row-- {
		err := bm.SwapRows(row, pivots[row])
		if err != nil {
			return fmt.Errorf("BigMatrix.SolveP: %q", err.Error())
		}
	}
	return nil
}

// SolvePT applies the row swaps in pivots, in the order Factor made them,
// to every column of bm.
func (bm *BigMatrix) SolvePT(pivots []int) error {
	if len(pivots) != bm.numRows {
		return fmt.Errorf("BigMatrix.SolvePT: %d pivots for %d rows", len(pivots), bm.numRows)
	}
	for row := 0; row < bm.numRows; row++ {
		err := bm.SwapRows(row, pivots[row])
		if err != nil {
			return fmt.Errorf("BigMatrix.SolvePT: %q", err.Error())
		}
	}
	return nil
}

// SolveL replaces bm with the solution X of LX = bm, where L is the unit
// lower triangle of the factored matrix lu.
func (bm *BigMatrix) SolveL(lu *BigMatrix) error {
	size, err := checkSolve(bm, lu, "SolveL")
	if err != nil {
		return err
	}
	temp := bignumber.NewFromInt64(0)
	for dcol := 0; dcol < bm.numCols; dcol++ {
		for row := 0; row < size; row++ {
			entry := bm.At(row, dcol)
			for col := 0; col < row; col++ {
				temp.Mul(lu.At(row, col), bm.At(col, dcol))
				entry.Sub(entry, temp)
			}
		}
	}
	return nil
}

// SolveLT replaces bm with the solution X of (L^T)X = bm
func (bm *BigMatrix) SolveLT(lu *BigMatrix) error {
	size, err := checkSolve(bm, lu, "SolveLT")
	if err != nil {
		return err
	}
	temp := bignumber.NewFromInt64(0)
	for dcol := 0; dcol < bm.numCols; dcol++ {
		for row := size - 1; row >= 0; row-- {
			entry := bm.At(row, dcol)
			for col := size - 1; col > row; col-- {
				temp.Mul(lu.At(col, row), bm.At(col, dcol))
				entry.Sub(entry, temp)
			}
		}
	}
	return nil
}

// SolveU replaces bm with the solution X of UX = bm, where U is the upper
// triangle of the factored matrix lu.
func (bm *BigMatrix) SolveU(lu *BigMatrix) error {
	size, err := checkSolve(bm, lu, "SolveU")
	if err != nil {
		return err
	}
	temp := bignumber.NewFromInt64(0)
	for dcol := 0; dcol < bm.numCols; dcol++ {
		for row := size - 1; row >= 0; row-- {
			entry := bm.At(row, dcol)
			for col := size - 1; col > row; col-- {
				temp.Mul(lu.At(row, col), bm.At(col, dcol))
				entry.Sub(entry, temp)
			}
			if _, err = entry.Quo(entry, lu.At(row, row)); err != nil {
				return fmt.Errorf("BigMatrix.SolveU: zero on the diagonal in row %d: %w", row, ErrSingular)
			}
		}
	}
	return nil
}

// SolveUT replaces bm with the solution X of (U^T)X = bm
func (bm *BigMatrix) SolveUT(lu *BigMatrix) error {
	size, err := checkSolve(bm, lu, "SolveUT")
	if err != nil {
		return err
	}
	temp := bignumber.NewFromInt64(0)
	for dcol := 0; dcol < bm.numCols; dcol++ {
		for row := 0; row < size; row++ {
			entry := bm.At(row, dcol)
			for col := 0; col < row; col++ {
				temp.Mul(lu.At(col, row), bm.At(col, dcol))
				entry.Sub(entry, temp)
			}
			if _, err = entry.Quo(entry, lu.At(row, row)); err != nil {
				return fmt.Errorf("BigMatrix.SolveUT: zero on the diagonal in row %d: %w", row, ErrSingular)
			}
		}
	}
	return nil
}

// SolvePLU replaces bm with the solution X of AX = bm, where lu and pivots
// are the output of Factor applied to A.
func (bm *BigMatrix) SolvePLU(lu *BigMatrix, pivots []int) error {
	err := bm.SolvePT(pivots)
	if err != nil {
		return err
	}
	err = bm.SolveL(lu)
	if err != nil {
		return err
	}
	return bm.SolveU(lu)
}

// SolveUTLTP replaces bm with the solution X of (A^T)X = bm, where lu and
// pivots are the output of Factor applied to A.
func (bm *BigMatrix) SolveUTLTP(lu *BigMatrix, pivots []int) error {
	err := bm.SolveUT(lu)
	if err != nil {
		return err
	}
	err = bm.SolveLT(lu)
	if err != nil {
		return err
	}
	return bm.SolveP(pivots)
}

// Inverse returns the inverse of the square matrix x without modifying x.
// If x is singular, the returned error wraps ErrSingular.
func Inverse(x *BigMatrix) (*BigMatrix, error) {
	lu := x.Duplicate()
	pivots := make([]int, x.numRows)
	err := lu.Factor(pivots)
	if err != nil {
		return nil, fmt.Errorf("Inverse: %w", err)
	}
	retVal, err := NewIdentity(x.numRows)
	if err != nil {
		return nil, fmt.Errorf("Inverse: %q", err.Error())
	}
	err = retVal.SolvePLU(lu, pivots)
	if err != nil {
		return nil, fmt.Errorf("Inverse: %w", err)
	}
	return retVal, nil
}

func checkSolve(bm, lu *BigMatrix, caller string) (int, error) {
	if lu.numRows != lu.numCols {
		return 0, fmt.Errorf("BigMatrix.%s: %d x %d factorization is not square", caller, lu.numRows, lu.numCols)
	}
	if bm.numRows != lu.numRows {
		return 0, fmt.Errorf(
			"BigMatrix.%s: right-hand side has %d rows but the factorization is %d x %d",
			caller, bm.numRows, lu.numRows, lu.numCols,
		)
	}
	return lu.numRows, nil
}
