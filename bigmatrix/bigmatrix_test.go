// Copyright (c) 2023 Colin McRae

package bigmatrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rjb3977/lattice/bignumber"
	"github.com/rjb3977/lattice/util"
)

func TestNewFromStringArray(t *testing.T) {
	x, err := NewFromStringArray([]string{"0"}, 1, 2)
	assert.Error(t, err)
	assert.Nil(t, x)

	x, err = NewFromStringArray([]string{}, 0, 1)
	assert.Error(t, err)
	assert.Nil(t, x)

	x, err = NewFromStringArray([]string{"0", "0", "a"}, 3, 1)
	assert.Error(t, err)
	assert.Nil(t, x)

	x, err = NewFromStringArray([]string{"1/2", "-3", "0.25", "6/4"}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, "1/2 -3\n1/4 3/2", x.String())
}

func TestNewIdentity(t *testing.T) {
	identity, err := NewIdentity(3)
	assert.NoError(t, err)
	assert.NotNil(t, identity)
	assert.Equal(t, 3, identity.numRows)
	assert.Equal(t, 3, identity.numCols)
	zero := bignumber.NewFromInt64(0)
	one := bignumber.NewFromInt64(1)
	for i := 0; i < identity.numRows; i++ {
		for j := 0; j < identity.numCols; j++ {
			if i == j {
				assert.Equal(t, 0, identity.At(i, j).Cmp(one))
			} else {
				assert.Equal(t, 0, identity.At(i, j).Cmp(zero))
			}
		}
	}

	// Dimension 0 or less
	_, err = NewIdentity(0)
	assert.Error(t, err)
}

func TestBigMatrix_AddSubNeg(t *testing.T) {
	x, err := NewFromStringArray([]string{"1/2", "2", "-3", "4/3", "0", "7"}, 2, 3)
	require.NoError(t, err)
	y, err := NewFromStringArray([]string{"1/2", "-1", "1/3", "2/3", "5", "-7"}, 2, 3)
	require.NoError(t, err)

	sum, err := NewEmpty(0, 0).Add(x, y)
	require.NoError(t, err)
	assert.Equal(t, "1 1 -8/3\n2 5 0", sum.String())

	difference, err := NewEmpty(0, 0).Sub(x, y)
	require.NoError(t, err)
	assert.Equal(t, "0 3 -10/3\n2/3 -5 14", difference.String())

	negated, err := NewEmpty(0, 0).Neg(x)
	require.NoError(t, err)
	assert.Equal(t, "-1/2 -2 3\n-4/3 0 -7", negated.String())

	// In-place
	_, err = x.Add(x, y)
	require.NoError(t, err)
	assert.Equal(t, "1 1 -8/3\n2 5 0", x.String())

	// Mismatched dimensions
	z := NewEmpty(3, 2)
	out, err := NewEmpty(0, 0).Add(x, z)
	assert.Error(t, err)
	assert.Nil(t, out)
	out, err = NewEmpty(0, 0).Sub(NewEmpty(0, 0), z)
	assert.Error(t, err)
	assert.Nil(t, out)
}

func TestBigMatrix_Mul(t *testing.T) {
	x, err := NewFromInt64Array([]int64{1, -3, 5, -7, 2, -4}, 2, 3)
	require.NoError(t, err)
	y, err := NewFromStringArray([]string{"1/2", "1", "0", "-1/3", "2", "1/5"}, 3, 2)
	require.NoError(t, err)
	xy, err := NewEmpty(0, 0).Mul(x, y)
	require.NoError(t, err)
	assert.Equal(t, "21/2 2\n-23/2 -29/5", xy.String())

	// Mismatched dimensions
	out, err := NewEmpty(0, 0).Mul(x, x)
	assert.Error(t, err)
	assert.Nil(t, out)

	// Empty input
	out, err = NewEmpty(0, 0).Mul(NewEmpty(0, 0), x)
	assert.Error(t, err)
	assert.Nil(t, out)
}

func TestBigMatrix_Transpose(t *testing.T) {
	x, err := NewFromInt64Array([]int64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	xt, err := NewEmpty(0, 0).Transpose(x)
	require.NoError(t, err)
	assert.Equal(t, "1 4\n2 5\n3 6", xt.String())
}

func TestDotProduct(t *testing.T) {
	x, err := NewFromInt64Array([]int64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	y, err := NewFromStringArray([]string{"1/2", "1/3", "1/6"}, 3, 1)
	require.NoError(t, err)
	dot, err := DotProduct(x, y, 1, 0, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, "5", dot.String()) // 2 + 5/3 + 1
	dot, err = DotProduct(x, y, 0, 0, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, "7/6", dot.String())
	_, err = DotProduct(x, y, 0, 0, 2, 2)
	assert.Error(t, err)
	_, err = DotProduct(x, y, 2, 0, 0, 3)
	assert.Error(t, err)

	u, err := NewFromInt64Array([]int64{4, 5, 6}, 3, 1)
	require.NoError(t, err)
	dot, err = ColumnDot(u, y)
	require.NoError(t, err)
	assert.Equal(t, "14/3", dot.String()) // 2 + 5/3 + 1
	_, err = ColumnDot(u, x)
	assert.Error(t, err)
}

func TestBigMatrix_View(t *testing.T) {
	parent, err := NewFromInt64Array([]int64{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
	}, 3, 4)
	require.NoError(t, err)

	view, err := parent.View(1, 1, 2, 2)
	require.NoError(t, err)
	assert.True(t, view.IsView())
	assert.False(t, parent.IsView())
	assert.Equal(t, "6 7\n10 11", view.String())

	// Writes through the view reach the parent
	require.NoError(t, view.Set(0, 1, bignumber.NewFromInt64(-7)))
	assert.Equal(t, "-7", parent.At(1, 2).String())

	// A view of a view is relative to the inner view
	inner, err := view.View(1, 0, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "10 11", inner.String())

	// Row swaps inside a view leave the rest of the parent alone
	require.NoError(t, view.SwapRows(0, 1))
	assert.Equal(t, "1 2 3 4\n5 10 11 8\n9 6 -7 12", parent.String())

	// SetFrom writes in place; dimensions must match
	replacement, err := NewFromInt64Array([]int64{0, 0, 0, 0}, 2, 2)
	require.NoError(t, err)
	require.NoError(t, view.SetFrom(replacement))
	assert.Equal(t, "1 2 3 4\n5 0 0 8\n9 0 0 12", parent.String())
	assert.Error(t, view.SetFrom(parent))

	// Copy detaches the view rather than reallocating shared storage
	view.Copy(parent)
	assert.False(t, view.IsView())
	require.NoError(t, view.Set(0, 0, bignumber.NewFromInt64(100)))
	assert.Equal(t, "1", parent.At(0, 0).String())

	// Out of bounds
	_, err = parent.View(2, 0, 2, 1)
	assert.Error(t, err)
	_, err = parent.View(0, 3, 1, 2)
	assert.Error(t, err)
	_, err = parent.View(-1, 0, 1, 1)
	assert.Error(t, err)

	// Arithmetic into a view of the wrong shape fails instead of reallocating
	column, err := parent.View(0, 0, 3, 1)
	require.NoError(t, err)
	_, err = column.Neg(parent)
	assert.Error(t, err)
}

func TestBigMatrix_Duplicate(t *testing.T) {
	x, err := NewFromStringArray([]string{"1/7", "2"}, 2, 1)
	require.NoError(t, err)
	y := x.Duplicate()
	equal, err := x.Equals(y)
	require.NoError(t, err)
	assert.True(t, equal)
	y.At(0, 0).SetInt64(3)
	assert.Equal(t, "1/7", x.At(0, 0).String())
	equal, err = x.Equals(y)
	require.NoError(t, err)
	assert.False(t, equal)
	_, err = x.Equals(NewEmpty(1, 1))
	assert.Error(t, err)
}

func TestBigMatrix_GetSet(t *testing.T) {
	x := NewEmpty(2, 2)
	_, err := x.Get(2, 0)
	assert.Error(t, err)
	_, err = x.Get(0, -1)
	assert.Error(t, err)
	assert.Error(t, x.Set(0, 2, bignumber.NewFromInt64(1)))
	value := bignumber.NewFromInt64(5)
	require.NoError(t, x.Set(1, 0, value))
	value.SetInt64(6)
	got, err := x.Get(1, 0)
	require.NoError(t, err)
	assert.Equal(t, "5", got.String())
	assert.Panics(t, func() { x.At(2, 2) })
}

func getRandomMatrix(numRows, numCols int, maxEntry int64) *BigMatrix {
	retVal := NewEmpty(numRows, numCols)
	for k, entry := range util.GetRandomRationals(numRows*numCols, maxEntry, maxEntry) {
		retVal.At(k/numCols, k%numCols).Set(bignumber.NewFromRat(entry))
	}
	return retVal
}
