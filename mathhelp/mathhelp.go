package mathhelp

func Pow2(n uint) uint {
	return 1 << n
}

func EuclidianMod(d, m int) int {
	r := d % m
	if (r < 0 && m > 0) || (r > 0 && m < 0) {
		return r + m
	}
	return r
}

// CeilDiv divides rounding towards positive infinity. m must be positive.
func CeilDiv(d, m int) int {
	q := d / m
	if EuclidianMod(d, m) != 0 && d > 0 {
		q++
	}
	return q
}
