package mesh

import (
	"strconv"
)

// Index is a row (y) or column (x) position of a cell along one axis.
// It is kept as a fixed-width digit string because encoding picks it apart digit by digit.
type Index string

// Int returns the integer value of the index, or -1 if it is not a decimal number.
func (i Index) Int() int {
	n, err := strconv.Atoi(string(i))
	if err != nil {
		return -1
	}
	return n
}

// Compare orders indices by their integer value.
func Compare(a, b Index) int {
	ai, bi := a.Int(), b.Int()
	switch {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	}
	return 0
}

// MinMax returns the smallest and largest of the given indices.
func MinMax(indices []Index) (lo, hi Index) {
	for i, idx := range indices {
		if i == 0 || Compare(idx, lo) < 0 {
			lo = idx
		}
		if i == 0 || Compare(idx, hi) > 0 {
			hi = idx
		}
	}
	return lo, hi
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func digit(c byte) int {
	return int(c - '0')
}
