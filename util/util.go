// Copyright (c) 2023 Colin McRae

// Package util holds small int64 matrix helpers used to build and check
// lattice bases without going through rational arithmetic.
package util

import (
	"fmt"
	"math"
)

// MultiplyIntInt returns the matrix product, x * y, for []int64
// x and []int64 y. n must equal the number of columns in x and
// the number of rows in y.
func MultiplyIntInt(x []int64, y []int64, n int) ([]int64, error) {
	// x is mxn, y is nxp and xy is mxp.
	m, p, err := getDimensions(len(x), len(y), n)
	if err != nil {
		return []int64{}, err
	}
	largeEntryThresh := int64(math.MaxInt32 / m)
	xy := make([]int64, m*p)
	for i := 0; i < m; i++ {
		for j := 0; j < p; j++ {
			xyEntry := DotProduct(x, n, y, p, i, j, 0, n)
			if (xyEntry > largeEntryThresh) || (xyEntry < -largeEntryThresh) {
				return []int64{}, fmt.Errorf(
					"in a matrix multiply, entry (%d,%d) = %d is large enough to risk future overflow",
					i, j, xyEntry,
				)
			}
			xy[i*p+j] = xyEntry
		}
	}
	return xy, nil
}

// MultiplyMatrixVector returns the product of the dim x dim matrix x and
// the dim-long vector v. Unlike MultiplyIntInt it does not guard against
// large entries, so it is meant for the small values found in tests.
func MultiplyMatrixVector(x []int64, v []int64) ([]int64, error) {
	dim := len(v)
	if dim == 0 || len(x) != dim*dim {
		return []int64{}, fmt.Errorf(
			"MultiplyMatrixVector: %d-long matrix does not match %d-long vector", len(x), dim,
		)
	}
	retVal := make([]int64, dim)
	for i := 0; i < dim; i++ {
		retVal[i] = DotProduct(x, dim, v, 1, i, 0, 0, dim)
	}
	return retVal, nil
}

// DotProduct returns sum(x[row][k] y[k][column]) over k in {start,...,end-1}.
// DotProduct trusts its inputs.
func DotProduct(x []int64, xNumCols int, y []int64, yNumCols, row, column, start, end int) int64 {
	retVal := x[row*xNumCols+start] * y[start*yNumCols+column]
	for k := start + 1; k < end; k++ {
		retVal += x[row*xNumCols+k] * y[k*yNumCols+column]
	}
	return retVal
}

// getDimensions returns the dimensions m and p for a matrix multiply
// xy where x has mn entries, y has np entries, and the number of columns
// in x (= the number of rows in y) is n.
func getDimensions(mn, np, n int) (int, int, error) {
	if n <= 0 || mn == 0 || np == 0 {
		return 0, 0, fmt.Errorf("getDimensions: empty operand or inner dimension %d", n)
	}
	if mn%n != 0 {
		return 0, 0, fmt.Errorf("getDimensions: non-integer number of rows %d / %d in x", mn, n)
	}
	if np%n != 0 {
		return 0, 0, fmt.Errorf("getDimensions: non-integer number of columns  %d / %d in y", np, n)
	}
	return mn / n, np / n, nil
}
