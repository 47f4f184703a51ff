package mesh

import (
	"github.com/pdok/meshraster/mathhelp"
)

// Decode determines the level of code and splits it into its x and y index.
func Decode(code string) (level Level, x, y Index, err error) {
	level, err = LevelOf(code)
	if err != nil {
		return 0, "", "", err
	}
	x, y, err = level.Decode(code)
	return level, x, y, err
}

// Decode splits a mesh code of this level into its x (column) and y (row) index.
//
//	80km  AABB         x = BB         y = AA
//	10km  AABBcd       x = BB d       y = AA c
//	5km   AABBcdq      x = BB d h(q)  y = AA c v(q)
//	1km   AABBcdef     x = BB d f     y = AA c e
//	2km   AABBcdef5    x = BB d f/2   y = AA c e/2
//	500m+ AABBcdefq..  x = 1km-x h(q)..  y = 1km-y v(q)..
//
// where h and v split a quadrant digit into its column and row half, see half.
func (l Level) Decode(code string) (x, y Index, err error) {
	if err = l.check(code); err != nil {
		return "", "", err
	}
	width := l.IndexWidth()
	xs := make([]byte, 0, width)
	ys := make([]byte, 0, width)

	xs = append(xs, code[2:4]...)
	ys = append(ys, code[0:2]...)
	if l == Level80km {
		return Index(xs), Index(ys), nil
	}

	xs = append(xs, code[5])
	ys = append(ys, code[4])
	switch l {
	case Level5km:
		hx, hy := half(code[6])
		xs = append(xs, hx)
		ys = append(ys, hy)
	case Level2km:
		xs = append(xs, '0'+(code[7]-'0')/2)
		ys = append(ys, '0'+(code[6]-'0')/2)
	case Level1km, Level500m, Level250m, Level125m:
		xs = append(xs, code[7])
		ys = append(ys, code[6])
		for i := 8; i < len(code); i++ {
			hx, hy := half(code[i])
			xs = append(xs, hx)
			ys = append(ys, hy)
		}
	}
	return Index(xs), Index(ys), nil
}

// Encode assembles the mesh code of the cell at column x and row y. It is the inverse of Decode.
func (l Level) Encode(x, y Index) (string, error) {
	for _, idx := range []Index{x, y} {
		if !l.ValidIndex(idx) {
			return "", invalidCode(string(idx), "not a %s index", l)
		}
	}
	code := make([]byte, 0, l.CodeLength())
	code = append(code, string(y[0:2])...)
	code = append(code, string(x[0:2])...)
	if l == Level80km {
		return string(code), nil
	}

	code = append(code, y[2], x[2])
	switch l {
	case Level5km:
		code = append(code, quadrant(x[3], y[3]))
	case Level2km:
		code = append(code, '0'+2*(y[3]-'0'), '0'+2*(x[3]-'0'), '5')
	case Level1km, Level500m, Level250m, Level125m:
		code = append(code, y[3], x[3])
		for i := 4; i < len(x); i++ {
			code = append(code, quadrant(x[i], y[i]))
		}
	}
	return string(code), nil
}

// half splits a quadrant digit into a column and a row half, both 1 or 2.
//
//	|---|---|
//	| 3 | 4 |   row 2
//	|---|---|
//	| 1 | 2 |   row 1
//	|---|---|
//	  1   2     column
func half(q byte) (x, y byte) {
	d := digit(q)
	return byte('0' + mathhelp.EuclidianMod(d-1, 2) + 1), byte('0' + mathhelp.CeilDiv(d, 2))
}

// quadrant is the inverse of half.
func quadrant(x, y byte) byte {
	return byte('0' + digit(x) + 2*(digit(y)-1))
}

func isQuadrant(c byte) bool {
	return '1' <= c && c <= '4'
}

// check validates the syntax of a mesh code of this level.
func (l Level) check(code string) error {
	if len(code) != l.CodeLength() {
		return invalidCode(code, "%s codes have %d digits, not %d", l, l.CodeLength(), len(code))
	}
	for i := 0; i < len(code); i++ {
		if !isDigit(code[i]) {
			return invalidCode(code, "non-digit %q at position %d", code[i], i)
		}
	}
	if l == Level80km {
		return nil
	}
	for i := 4; i <= 5; i++ {
		if code[i] > '7' {
			return invalidCode(code, "10km row/column digit %c at position %d exceeds 7", code[i], i)
		}
	}

	switch l {
	case Level5km:
		if !isQuadrant(code[6]) {
			return invalidCode(code, "quadrant digit %c is not one of 1-4", code[6])
		}
	case Level2km:
		for i := 6; i <= 7; i++ {
			if digit(code[i])%2 != 0 {
				return invalidCode(code, "2km row/column digit %c at position %d is odd", code[i], i)
			}
		}
		if code[8] != '5' {
			return invalidCode(code, "2km codes end in 5")
		}
	case Level500m, Level250m, Level125m:
		for i := 8; i < len(code); i++ {
			if !isQuadrant(code[i]) {
				return invalidCode(code, "quadrant digit %c at position %d is not one of 1-4", code[i], i)
			}
		}
	}
	return nil
}
