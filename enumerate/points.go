package enumerate

import (
	"fmt"
	"sort"

	"github.com/rjb3977/lattice/bigmatrix"
)

// ToAmbient returns basis v, the point named by lattice coordinates v
func ToAmbient(basis, v *bigmatrix.BigMatrix) (*bigmatrix.BigMatrix, error) {
	retVal, err := bigmatrix.NewEmpty(0, 0).Mul(basis, v)
	if err != nil {
		return nil, fmt.Errorf("ToAmbient: %q", err.Error())
	}
	return retVal, nil
}

// Contains reports whether lower <= basis v <= upper
func Contains(basis, lower, upper, v *bigmatrix.BigMatrix) (bool, error) {
	ambient, err := ToAmbient(basis, v)
	if err != nil {
		return false, fmt.Errorf("Contains: %q", err.Error())
	}
	if lower.NumRows() != ambient.NumRows() || upper.NumRows() != ambient.NumRows() {
		return false, fmt.Errorf(
			"Contains: bounds have %d and %d rows but the point has %d",
			lower.NumRows(), upper.NumRows(), ambient.NumRows(),
		)
	}
	for i := 0; i < ambient.NumRows(); i++ {
		x := ambient.At(i, 0)
		if x.Cmp(lower.At(i, 0)) < 0 || x.Cmp(upper.At(i, 0)) > 0 {
			return false, nil
		}
	}
	return true, nil
}

// SortPoints sorts columns of equal length in lexicographic order, so
// output does not depend on goroutine scheduling
func SortPoints(points []*bigmatrix.BigMatrix) {
	sort.Slice(points, func(a, b int) bool {
		return comparePoints(points[a], points[b]) < 0
	})
}

func comparePoints(x, y *bigmatrix.BigMatrix) int {
	for i := 0; i < x.NumRows() && i < y.NumRows(); i++ {
		if cmp := x.At(i, 0).Cmp(y.At(i, 0)); cmp != 0 {
			return cmp
		}
	}
	return x.NumRows() - y.NumRows()
}
