package grid

import (
	"slices"

	"github.com/pdok/meshraster/mesh"
)

// EnumerateIndexes lists, ascending, every index in [lo, hi] that denotes a real row or column
// of the level. Integers in the range with a digit the level does not allow are skipped.
func EnumerateIndexes(level mesh.Level, lo, hi mesh.Index) []mesh.Index {
	width := level.IndexWidth()
	if len(lo) != width || len(hi) != width || mesh.Compare(lo, hi) > 0 {
		return nil
	}
	var indexes []mesh.Index
	current, ok := ceilValid(level, []byte(lo))
	for ok && mesh.Compare(mesh.Index(current), hi) <= 0 {
		indexes = append(indexes, mesh.Index(current))
		ok = increment(level, current, len(current)-1)
	}
	return indexes
}

// ceilValid returns the smallest valid index not below digits.
func ceilValid(level mesh.Level, digits []byte) ([]byte, bool) {
	d := slices.Clone(digits)
	for pos := range d {
		lo, hi, _ := level.IndexDigitRange(pos)
		switch {
		case d[pos] < lo:
			d[pos] = lo
			fillMin(level, d, pos+1)
			return d, true
		case d[pos] > hi:
			fillMin(level, d, pos)
			return d, increment(level, d, pos-1)
		}
	}
	return d, true
}

// increment advances the valid digits d[:last+1] like an odometer whose wheels only carry the
// digits the level allows, resetting every position after the one that moved.
func increment(level mesh.Level, d []byte, last int) bool {
	for pos := last; pos >= 0; pos-- {
		_, hi, _ := level.IndexDigitRange(pos)
		if d[pos] < hi {
			d[pos]++
			fillMin(level, d, pos+1)
			return true
		}
	}
	return false
}

func fillMin(level mesh.Level, d []byte, from int) {
	for pos := from; pos < len(d); pos++ {
		d[pos], _, _ = level.IndexDigitRange(pos)
	}
}
