// Copyright (c) 2023 Colin McRae

// Package bigmatrix represents a matrix with exact rational bignumbers in it
package bigmatrix

import (
	"fmt"
	"strings"

	"github.com/rjb3977/lattice/bignumber"
)

// BigMatrix is a dense numRows x numCols matrix. Entry (i, j) lives at
// values[(rowOffset+i)*stride + colOffset+j].
//
// A BigMatrix either owns its storage or is a view into the storage of
// another BigMatrix. A view never reallocates values, so writes through a
// view are seen by its parent and by every other view of the same storage.
// Operations that would have to reallocate (Copy into a view, for example)
// detach the receiver instead of touching the shared storage.
type BigMatrix struct {
	values    []*bignumber.BigNumber
	stride    int
	rowOffset int
	colOffset int
	numRows   int
	numCols   int
	isView    bool
}

// NewFromInt64Array creates a matrix with integer-valued BigNumbers from input
// with dimensions numRowsIn x numColsIn. If the number of rows and columns are
// not positive and/or do not match the length of the input, an error is returned.
func NewFromInt64Array(input []int64, numRowsIn int, numColsIn int) (*BigMatrix, error) {
	if len(input) != numRowsIn*numColsIn {
		return nil, fmt.Errorf("BigMatrix.NewFromInt64Array: length of input does not match dimensions")
	}
	if numRowsIn <= 0 || numColsIn <= 0 {
		return nil, fmt.Errorf(
			"BigMatrix.NewFromInt64Array: illegal number of rows %d or columns %d",
			numRowsIn, numColsIn,
		)
	}
	retVal := newOwner(numRowsIn, numColsIn)
	for index, value := range input {
		retVal.values[index] = bignumber.NewFromInt64(value)
	}
	return retVal, nil
}

// NewFromStringArray creates a matrix with BigNumbers parsed from input,
// with dimensions numRowsIn x numColsIn. Entries may be integers, fractions
// or decimals; see bignumber.NewFromString.
func NewFromStringArray(input []string, numRowsIn int, numColsIn int) (*BigMatrix, error) {
	if len(input) != numRowsIn*numColsIn {
		return nil, fmt.Errorf("BigMatrix.NewFromStringArray: length of input does not match dimensions")
	}
	if numRowsIn <= 0 || numColsIn <= 0 {
		return nil, fmt.Errorf(
			"BigMatrix.NewFromStringArray: illegal number of rows %d or columns %d",
			numRowsIn, numColsIn,
		)
	}
	retVal := newOwner(numRowsIn, numColsIn)
	for index, value := range input {
		bn, err := bignumber.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf(
				"BigMatrix.NewFromStringArray: could not parse %q: %s",
				value, err.Error(),
			)
		}
		retVal.values[index] = bn
	}
	return retVal, nil
}

// NewFromBigNumbers creates a numRowsIn x numColsIn matrix holding deep
// copies of input, which is in row-major order.
func NewFromBigNumbers(input []*bignumber.BigNumber, numRowsIn int, numColsIn int) (*BigMatrix, error) {
	if len(input) != numRowsIn*numColsIn {
		return nil, fmt.Errorf("BigMatrix.NewFromBigNumbers: length of input does not match dimensions")
	}
	if numRowsIn <= 0 || numColsIn <= 0 {
		return nil, fmt.Errorf(
			"BigMatrix.NewFromBigNumbers: illegal number of rows %d or columns %d",
			numRowsIn, numColsIn,
		)
	}
	retVal := newOwner(numRowsIn, numColsIn)
	for index, value := range input {
		retVal.values[index] = bignumber.NewFromBigNumber(value)
	}
	return retVal, nil
}

// NewColumn returns a len(input) x 1 matrix holding deep copies of input
func NewColumn(input ...*bignumber.BigNumber) (*BigMatrix, error) {
	return NewFromBigNumbers(input, len(input), 1)
}

// NewEmpty returns a numRows x numCols matrix with 0s in each value. Negative numRows
// or numCols is interpreted as 0, and a 0 x n or n x 0 matrix is interpreted as 0 x 0.
func NewEmpty(numRows int, numCols int) *BigMatrix {
	if numRows < 0 {
		numRows = 0
	}
	if numCols < 0 {
		numCols = 0
	}
	if numRows == 0 || numCols == 0 {
		return &BigMatrix{}
	}
	retVal := newOwner(numRows, numCols)
	for i := 0; i < numRows*numCols; i++ {
		retVal.values[i] = bignumber.NewFromInt64(0)
	}
	return retVal
}

// NewIdentity returns a dim x dim identity matrix. If dim < 1,
// an error is returned.
func NewIdentity(dim int) (*BigMatrix, error) {
	if dim < 1 {
		return nil, fmt.Errorf("NewIdentity: dimension %d < 1", dim)
	}
	retVal := NewEmpty(dim, dim)
	for i := 0; i < dim; i++ {
		retVal.values[i*dim+i].SetInt64(1)
	}
	return retVal, nil
}

// View returns a numRows x numCols matrix whose entry (i, j) is entry
// (row+i, col+j) of bm. The view shares storage with bm; it stays valid
// as long as bm is not detached by Copy.
func (bm *BigMatrix) View(row, col, numRows, numCols int) (*BigMatrix, error) {
	if row < 0 || col < 0 || numRows < 0 || numCols < 0 ||
		row+numRows > bm.numRows || col+numCols > bm.numCols {
		return nil, fmt.Errorf(
			"BigMatrix.View: [%d,%d) x [%d,%d) is not inside %d x %d",
			row, row+numRows, col, col+numCols, bm.numRows, bm.numCols,
		)
	}
	if numRows == 0 || numCols == 0 {
		return &BigMatrix{isView: true}, nil
	}
	return &BigMatrix{
		values:    bm.values,
		stride:    bm.stride,
		rowOffset: bm.rowOffset + row,
		colOffset: bm.colOffset + col,
		numRows:   numRows,
		numCols:   numCols,
		isView:    true,
	}, nil
}

// IsView reports whether bm shares storage it does not own
func (bm *BigMatrix) IsView() bool {
	return bm.isView
}

func (bm *BigMatrix) Add(x *BigMatrix, y *BigMatrix) (*BigMatrix, error) {
	return bm.addOrSub(x, y, "Add")
}

func (bm *BigMatrix) Sub(x *BigMatrix, y *BigMatrix) (*BigMatrix, error) {
	return bm.addOrSub(x, y, "Sub")
}

// Neg sets bm to -x. If bm is a view, its dimensions must match those of x.
func (bm *BigMatrix) Neg(x *BigMatrix) (*BigMatrix, error) {
	err := checkInput(x, nil, "Neg")
	if err != nil {
		return nil, err
	}
	err = bm.prepareReceiver(x.numRows, x.numCols, "Neg")
	if err != nil {
		return nil, err
	}
	for i := 0; i < x.numRows; i++ {
		for j := 0; j < x.numCols; j++ {
			bm.At(i, j).Neg(x.At(i, j))
		}
	}
	return bm, nil
}

// DotProduct returns sum(x[row][k] y[k][col]) over k in {start,...,end-1}
func DotProduct(
	x *BigMatrix, y *BigMatrix, row, column, start, end int,
) (*bignumber.BigNumber, error) {
	if start < 0 || end <= start || x.numCols < end || y.numRows < end {
		return nil, fmt.Errorf("DotProduct: invalid range {%d,...,%d} for x %dx%d and y %dx%d",
			start, end-1, x.numRows, x.numCols, y.numRows, y.numCols,
		)
	}
	if row < 0 || x.numRows <= row || column < 0 || y.numCols <= column {
		return nil, fmt.Errorf("DotProduct: invalid row %d of x %dx%d or column %d of y %dx%d",
			row, x.numRows, x.numCols, column, y.numRows, y.numCols,
		)
	}
	retVal := bignumber.NewFromInt64(0)
	for k := start; k < end; k++ {
		retVal.MulAdd(x.At(row, k), y.At(k, column))
	}
	return retVal, nil
}

// ColumnDot returns sum(x[k][0] y[k][0]) for column vectors x and y of
// equal length
func ColumnDot(x *BigMatrix, y *BigMatrix) (*bignumber.BigNumber, error) {
	if x.numCols != 1 || y.numCols != 1 || x.numRows != y.numRows {
		return nil, fmt.Errorf(
			"ColumnDot: operands x (%d x %d) and y (%d x %d) are not column vectors of equal length",
			x.numRows, x.numCols, y.numRows, y.numCols,
		)
	}
	retVal := bignumber.NewFromInt64(0)
	for k := 0; k < x.numRows; k++ {
		retVal.MulAdd(x.At(k, 0), y.At(k, 0))
	}
	return retVal, nil
}

// Mul replaces the contents of bm with the matrix xy and returns bm. If
// dimensions of x and y are invalid or do not match, an error is returned.
func (bm *BigMatrix) Mul(x *BigMatrix, y *BigMatrix) (*BigMatrix, error) {
	err := checkInput(x, y, "Mul")
	if err != nil {
		return nil, err
	}
	retVal := NewEmpty(x.numRows, y.numCols)
	for i := 0; i < x.numRows; i++ {
		for j := 0; j < y.numCols; j++ {
			resultIndex := i*retVal.numCols + j
			retVal.values[resultIndex], err = DotProduct(x, y, i, j, 0, x.numCols)
			if err != nil {
				return nil, fmt.Errorf("BigMatrix.Mul: error when computing dot product: %q", err.Error())
			}
		}
	}
	if bm.isView {
		err = bm.SetFrom(retVal)
		if err != nil {
			return nil, fmt.Errorf("BigMatrix.Mul: could not store the product: %q", err.Error())
		}
		return bm, nil
	}
	bm.Copy(retVal)
	return bm, nil
}

// Copy copies x to bm and returns bm. This is a deep copy. bm always owns
// its storage afterwards; if bm was a view, it is detached from its parent
// and the parent is left unchanged.
func (bm *BigMatrix) Copy(x *BigMatrix) *BigMatrix {
	if x.numRows <= 0 || x.numCols <= 0 {
		*bm = BigMatrix{}
		return bm
	}
	values := make([]*bignumber.BigNumber, x.numRows*x.numCols)
	for i := 0; i < x.numRows; i++ {
		for j := 0; j < x.numCols; j++ {
			values[i*x.numCols+j] = bignumber.NewFromBigNumber(x.At(i, j))
		}
	}
	*bm = BigMatrix{
		values:  values,
		stride:  x.numCols,
		numRows: x.numRows,
		numCols: x.numCols,
	}
	return bm
}

// Duplicate returns a deep copy of bm that owns its storage
func (bm *BigMatrix) Duplicate() *BigMatrix {
	return NewEmpty(0, 0).Copy(bm)
}

// SetFrom copies the values of x into the existing entries of bm, which
// must have the same dimensions. Unlike Copy, SetFrom never reallocates, so
// it is the way to write into a view.
func (bm *BigMatrix) SetFrom(x *BigMatrix) error {
	if bm.numRows != x.numRows || bm.numCols != x.numCols {
		return fmt.Errorf(
			"BigMatrix.SetFrom: cannot set bm[%d][%d] from x[%d][%d]",
			bm.numRows, bm.numCols, x.numRows, x.numCols,
		)
	}
	for i := 0; i < bm.numRows; i++ {
		for j := 0; j < bm.numCols; j++ {
			bm.At(i, j).Set(x.At(i, j))
		}
	}
	return nil
}

// Transpose replaces the contents of bm with the transpose of matrix x. If
// dimensions of x are invalid, an error is returned.
func (bm *BigMatrix) Transpose(x *BigMatrix) (*BigMatrix, error) {
	err := checkInput(x, nil, "Transpose")
	if err != nil {
		return nil, err
	}
	retVal := NewEmpty(x.numCols, x.numRows)
	for i := 0; i < retVal.numRows; i++ {
		for j := 0; j < retVal.numCols; j++ {
			retVal.values[i*retVal.numCols+j].Set(x.At(j, i))
		}
	}
	if bm.isView {
		err = bm.SetFrom(retVal)
		if err != nil {
			return nil, fmt.Errorf("BigMatrix.Transpose: could not store the transpose: %q", err.Error())
		}
		return bm, nil
	}
	bm.Copy(retVal)
	return bm, nil
}

// SwapRows exchanges rows i and j of bm. Only the entries inside bm move;
// columns of the parent outside a view are untouched.
func (bm *BigMatrix) SwapRows(i int, j int) error {
	if i < 0 || bm.numRows <= i || j < 0 || bm.numRows <= j {
		return fmt.Errorf("BigMatrix.SwapRows: rows %d and %d are not both in {0,...,%d}", i, j, bm.numRows-1)
	}
	if i == j {
		return nil
	}
	for k := 0; k < bm.numCols; k++ {
		a, b := bm.index(i, k), bm.index(j, k)
		bm.values[a], bm.values[b] = bm.values[b], bm.values[a]
	}
	return nil
}

// Set sets the value in row i, column j to x. This is a deep
// copy.
func (bm *BigMatrix) Set(i int, j int, x *bignumber.BigNumber) error {
	if i < 0 || bm.numRows <= i {
		return fmt.Errorf("BigMatrix.Set: index i = %d outside range {0, ... %d}", i, bm.numRows-1)
	}
	if j < 0 || bm.numCols <= j {
		return fmt.Errorf("BigMatrix.Set: index j = %d outside range {0, ... %d}", j, bm.numCols-1)
	}
	bm.values[bm.index(i, j)].Set(x)
	return nil
}

// Get returns the pointer to the value in row i, column j of bm.
// This is not a deep copy.
func (bm *BigMatrix) Get(i int, j int) (*bignumber.BigNumber, error) {
	if i < 0 || bm.numRows <= i {
		return nil, fmt.Errorf("BigMatrix.Get: index i = %d outside range {0, ... %d}", i, bm.numRows-1)
	}
	if j < 0 || bm.numCols <= j {
		return nil, fmt.Errorf("BigMatrix.Get: index j = %d outside range {0, ... %d}", j, bm.numCols-1)
	}
	return bm.values[bm.index(i, j)], nil
}

// At is Get for callers that have already validated i and j. It panics
// if they are out of range.
func (bm *BigMatrix) At(i int, j int) *bignumber.BigNumber {
	if i < 0 || bm.numRows <= i || j < 0 || bm.numCols <= j {
		panic(fmt.Sprintf("BigMatrix.At: (%d, %d) outside %d x %d", i, j, bm.numRows, bm.numCols))
	}
	return bm.values[bm.index(i, j)]
}

// Equals returns whether all corresponding elements of bm and x are equal.
//
// If bm and x have different dimensions, an error is returned.
func (bm *BigMatrix) Equals(x *BigMatrix) (bool, error) {
	if (bm.numRows != x.numRows) || (bm.numCols != x.numCols) {
		return false, fmt.Errorf("BigMatrix.Equals: cannot compare bm[%d][%d] to x[%d][%d]",
			bm.numRows, bm.numCols, x.numRows, x.numCols)
	}
	for i := 0; i < bm.numRows; i++ {
		for j := 0; j < bm.numCols; j++ {
			if bm.At(i, j).Cmp(x.At(i, j)) != 0 {
				return false, nil
			}
		}
	}
	return true, nil
}

// Dimensions returns the number of rows and columns in bm, in that order.
func (bm *BigMatrix) Dimensions() (int, int) {
	return bm.numRows, bm.numCols
}

// NumRows returns the number of rows in bm
func (bm *BigMatrix) NumRows() int {
	return bm.numRows
}

// NumCols returns the number of columns in bm
func (bm *BigMatrix) NumCols() int {
	return bm.numCols
}

// String returns a string representing bm with entries separated by spaces
// and rows separated by newlines.
func (bm *BigMatrix) String() string {
	var sb strings.Builder
	for i := 0; i < bm.numRows; i++ {
		if i != 0 {
			sb.WriteString("\n")
		}
		for j := 0; j < bm.numCols; j++ {
			if j != 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(bm.At(i, j).String())
		}
	}
	return sb.String()
}

func newOwner(numRows, numCols int) *BigMatrix {
	return &BigMatrix{
		values:  make([]*bignumber.BigNumber, numRows*numCols),
		stride:  numCols,
		numRows: numRows,
		numCols: numCols,
	}
}

func (bm *BigMatrix) index(i, j int) int {
	return (bm.rowOffset+i)*bm.stride + bm.colOffset + j
}

// prepareReceiver makes bm numRows x numCols. An owner is reallocated if
// its dimensions differ; a view must already match.
func (bm *BigMatrix) prepareReceiver(numRows, numCols int, caller string) error {
	if bm.numRows == numRows && bm.numCols == numCols {
		return nil
	}
	if bm.isView {
		return fmt.Errorf(
			"BigMatrix.%s: view receiver is %d x %d but the result is %d x %d",
			caller, bm.numRows, bm.numCols, numRows, numCols,
		)
	}
	*bm = *NewEmpty(numRows, numCols)
	return nil
}

func checkInput(x, y *BigMatrix, caller string) error {
	// Operators must have non-empty input x and y with valid dimensions.
	if x.numRows <= 0 || x.numCols <= 0 {
		return fmt.Errorf(
			"BigMatrix.%s: malformed input matrix x[%d][%d]",
			caller, x.numRows, x.numCols,
		)
	}
	if y != nil {
		if y.numRows <= 0 || y.numCols <= 0 {
			return fmt.Errorf(
				"BigMatrix.%s: malformed input matrix y[%d][%d]",
				caller, y.numRows, y.numCols,
			)
		}
		if caller == "Mul" && (x.numCols != y.numRows) {
			return fmt.Errorf(
				"BigMatrix.Mul: mismatched dimensions for operands x (%d x %d) and y (%d x %d)",
				x.numRows, x.numCols, y.numRows, y.numCols,
			)
		}
	}

	// Operators Add and Sub must have input x and y with equal dimensions
	if (caller == "Add" || caller == "Sub") &&
		((x.numRows != y.numRows) || (x.numCols != y.numCols)) {
		return fmt.Errorf(
			"BigMatrix.%s: mismatched dimensions for operands x (%d x %d) and y (%d x %d)",
			caller, x.numRows, x.numCols, y.numRows, y.numCols,
		)
	}
	return nil
}

func (bm *BigMatrix) addOrSub(x *BigMatrix, y *BigMatrix, whichFunc string) (*BigMatrix, error) {
	err := checkInput(x, y, whichFunc)
	if err != nil {
		return nil, err
	}

	// Having passed checkInput(), x and y must be at least 1x1, and
	// have matching dimensions. bm must either have dimensions matching
	// x and y, or be an owner that is reallocated here.
	err = bm.prepareReceiver(x.numRows, x.numCols, whichFunc)
	if err != nil {
		return nil, err
	}
	for i := 0; i < x.numRows; i++ {
		for j := 0; j < x.numCols; j++ {
			if whichFunc == "Add" {
				bm.At(i, j).Add(x.At(i, j), y.At(i, j))
			} else {
				bm.At(i, j).Sub(x.At(i, j), y.At(i, j))
			}
		}
	}
	return bm, nil
}
