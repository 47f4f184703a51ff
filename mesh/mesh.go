// Package mesh implements the index algebra of the Japan Standard Area Mesh (JIS X 0410):
// the mesh levels, decoding a mesh code into orthogonal (x, y) indices and encoding
// indices back into a mesh code.
package mesh

import (
	"errors"
	"fmt"

	"github.com/muesli/reflow/truncate"
)

// ErrInvalidMeshCode is returned for mesh codes and indices that no level can decode or encode.
var ErrInvalidMeshCode = errors.New("invalid mesh code")

const maxCodeInMessage = 24

// Level is one of the fixed mesh resolutions.
type Level uint8

const (
	Level80km Level = iota + 1
	Level10km
	Level5km
	Level2km
	Level1km
	Level500m
	Level250m
	Level125m
)

// Levels lists all levels from coarse to fine.
var Levels = []Level{Level80km, Level10km, Level5km, Level2km, Level1km, Level500m, Level250m, Level125m}

func (l Level) String() string {
	switch l {
	case Level80km:
		return "80km"
	case Level10km:
		return "10km"
	case Level5km:
		return "5km"
	case Level2km:
		return "2km"
	case Level1km:
		return "1km"
	case Level500m:
		return "500m"
	case Level250m:
		return "250m"
	case Level125m:
		return "125m"
	default:
		return fmt.Sprintf("Level(%d)", uint8(l))
	}
}

// ParseLevel is the inverse of Level.String.
func ParseLevel(name string) (Level, error) {
	for _, l := range Levels {
		if l.String() == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown mesh level %q", name)
}

// LevelOf determines the level of a mesh code from its length.
// Codes of length 9 are 2km codes when they end in '5', 500m codes otherwise.
func LevelOf(code string) (Level, error) {
	switch len(code) {
	case 4:
		return Level80km, nil
	case 6:
		return Level10km, nil
	case 7:
		return Level5km, nil
	case 8:
		return Level1km, nil
	case 9:
		if code[8] == '5' {
			return Level2km, nil
		}
		return Level500m, nil
	case 10:
		return Level250m, nil
	case 11:
		return Level125m, nil
	}
	return 0, invalidCode(code, "length %d matches no mesh level", len(code))
}

// CodeLength is the number of digits of a mesh code of this level.
func (l Level) CodeLength() int {
	switch l {
	case Level80km:
		return 4
	case Level10km:
		return 6
	case Level5km:
		return 7
	case Level1km:
		return 8
	case Level2km, Level500m:
		return 9
	case Level250m:
		return 10
	case Level125m:
		return 11
	}
	return 0
}

// IndexWidth is the number of digits of an x or y index of this level.
func (l Level) IndexWidth() int {
	switch l {
	case Level80km:
		return 2
	case Level10km:
		return 3
	case Level5km, Level2km, Level1km:
		return 4
	case Level500m:
		return 5
	case Level250m:
		return 6
	case Level125m:
		return 7
	}
	return 0
}

// CellSize returns the width (longitude) and height (latitude) of a cell in degrees.
func (l Level) CellSize() (width, height float64) {
	switch l {
	case Level80km:
		return 1, 2. / 3
	case Level10km:
		return 1. / 8, 1. / 12
	case Level5km:
		return 1. / 16, 1. / 24
	case Level2km:
		return 1. / 40, 1. / 60
	case Level1km:
		return 1. / 80, 1. / 120
	case Level500m:
		return 1. / 160, 1. / 240
	case Level250m:
		return 1. / 320, 1. / 480
	case Level125m:
		return 1. / 640, 1. / 960
	}
	return 0, 0
}

// IndexDigitRange gives the smallest and largest digit allowed at position pos of an index.
//
//	position 0-1: the two-digit 80km row/column, any digit
//	position 2:   10km row/column, 0-7
//	position 3:   5km half 1-2, 2km pair 0-4, 1km row/column 0-9
//	position 4-6: sub-1km halves 1-2
func (l Level) IndexDigitRange(pos int) (lo, hi byte, ok bool) {
	if pos < 0 || pos >= l.IndexWidth() {
		return 0, 0, false
	}
	switch {
	case pos < 2:
		return '0', '9', true
	case pos == 2:
		return '0', '7', true
	case pos == 3 && l == Level5km:
		return '1', '2', true
	case pos == 3 && l == Level2km:
		return '0', '4', true
	case pos == 3:
		return '0', '9', true
	default:
		return '1', '2', true
	}
}

// ValidIndexDigit reports whether digit may appear at position pos of an index of this level.
func (l Level) ValidIndexDigit(pos int, digit byte) bool {
	lo, hi, ok := l.IndexDigitRange(pos)
	return ok && lo <= digit && digit <= hi
}

// ValidIndex reports whether idx denotes a real mesh row or column of this level.
func (l Level) ValidIndex(idx Index) bool {
	if len(idx) != l.IndexWidth() {
		return false
	}
	for i := 0; i < len(idx); i++ {
		if !l.ValidIndexDigit(i, idx[i]) {
			return false
		}
	}
	return true
}

func invalidCode(code string, format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidMeshCode,
		truncate.StringWithTail(code, maxCodeInMessage, "..."), fmt.Sprintf(format, args...))
}
