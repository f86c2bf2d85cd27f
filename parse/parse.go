// Package parse reads the text description of an enumeration problem:
//
//	n
//	b11 b12 ... b1n
//	...
//	bn1 bn2 ... bnn
//	l1 ... ln
//	u1 ... un
//
// n is a positive integer, the bij are the rows of the basis, and l and u
// are the lower and upper bounds of the box. Each entry is a base-10
// integer, a fraction like -7/3, or a decimal like 2.5. Blank lines and lines starting with
// '#' may appear anywhere and are ignored, as is anything after the upper
// bound.
package parse

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rjb3977/lattice/bigmatrix"
	"github.com/rjb3977/lattice/bignumber"
)

// ErrMalformed is wrapped by every error that describes bad input, as
// opposed to a failure to read it
var ErrMalformed = errors.New("malformed input")

// Input is a parsed enumeration problem
type Input struct {
	Dimension int
	Basis     *bigmatrix.BigMatrix
	Lower     *bigmatrix.BigMatrix
	Upper     *bigmatrix.BigMatrix
}

// lineReader returns the significant lines of its input with their line
// numbers
type lineReader struct {
	scanner *bufio.Scanner
	number  int
}

func (lr *lineReader) next(what string) (string, error) {
	for lr.scanner.Scan() {
		lr.number++
		line := strings.TrimSpace(lr.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, nil
	}
	if err := lr.scanner.Err(); err != nil {
		return "", fmt.Errorf("could not read %s: %w", what, err)
	}
	return "", fmt.Errorf("missing %s after line %d: %w", what, lr.number, ErrMalformed)
}

// row parses a line of exactly dim rationals
func (lr *lineReader) row(dim int, what string) ([]*bignumber.BigNumber, error) {
	line, err := lr.next(what)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	if len(fields) < dim {
		return nil, fmt.Errorf(
			"line %d: %s has %d entries, expected %d: %w", lr.number, what, len(fields), dim, ErrMalformed,
		)
	}
	if len(fields) > dim {
		return nil, fmt.Errorf(
			"line %d: trailing %q after %d entries of %s: %w", lr.number, fields[dim], dim, what, ErrMalformed,
		)
	}
	retVal := make([]*bignumber.BigNumber, dim)
	for j, field := range fields {
		retVal[j], err = bignumber.NewFromString(field)
		if err != nil {
			return nil, fmt.Errorf("line %d: entry %d of %s: %s: %w", lr.number, j+1, what, err.Error(), ErrMalformed)
		}
	}
	return retVal, nil
}

// Parse reads a problem from r
func Parse(r io.Reader) (*Input, error) {
	lr := &lineReader{scanner: bufio.NewScanner(r)}
	lr.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line, err := lr.next("dimension")
	if err != nil {
		return nil, fmt.Errorf("Parse: %w", err)
	}
	dim, err := strconv.Atoi(line)
	if err != nil {
		return nil, fmt.Errorf("Parse: line %d: dimension %q is not an integer: %w", lr.number, line, ErrMalformed)
	}
	if dim < 1 {
		return nil, fmt.Errorf("Parse: line %d: dimension %d < 1: %w", lr.number, dim, ErrMalformed)
	}

	entries := make([]*bignumber.BigNumber, 0, dim*dim)
	for i := 0; i < dim; i++ {
		row, err := lr.row(dim, fmt.Sprintf("basis row %d", i+1))
		if err != nil {
			return nil, fmt.Errorf("Parse: %w", err)
		}
		entries = append(entries, row...)
	}
	basis, err := bigmatrix.NewFromBigNumbers(entries, dim, dim)
	if err != nil {
		return nil, fmt.Errorf("Parse: %q", err.Error())
	}
	retVal := &Input{Dimension: dim, Basis: basis}
	for _, bound := range []struct {
		what   string
		target **bigmatrix.BigMatrix
	}{
		{"lower bound", &retVal.Lower},
		{"upper bound", &retVal.Upper},
	} {
		row, err := lr.row(dim, bound.what)
		if err != nil {
			return nil, fmt.Errorf("Parse: %w", err)
		}
		*bound.target, err = bigmatrix.NewColumn(row...)
		if err != nil {
			return nil, fmt.Errorf("Parse: %q", err.Error())
		}
	}

	return retVal, nil
}

// ParseFile reads a problem from the named file
func ParseFile(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ParseFile: %w", err)
	}
	defer f.Close()
	retVal, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("ParseFile: %s: %w", path, err)
	}
	return retVal, nil
}
