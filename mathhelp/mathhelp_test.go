package mathhelp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEuclidianMod(t *testing.T) {
	assert.Equal(t, 1, EuclidianMod(3, 2))
	assert.Equal(t, 0, EuclidianMod(4, 2))
	assert.Equal(t, 1, EuclidianMod(-1, 2))
	assert.Equal(t, 2, EuclidianMod(-4, 3))
}

func TestCeilDiv(t *testing.T) {
	tests := []struct {
		d, m, want int
	}{
		0: {d: 1, m: 2, want: 1},
		1: {d: 2, m: 2, want: 1},
		2: {d: 3, m: 2, want: 2},
		3: {d: 4, m: 2, want: 2},
		4: {d: 0, m: 2, want: 0},
		5: {d: -3, m: 2, want: -1},
	}
	for i, tt := range tests {
		assert.Equalf(t, tt.want, CeilDiv(tt.d, tt.m), "test %d", i)
	}
}

func TestPow2(t *testing.T) {
	assert.Equal(t, uint(1), Pow2(0))
	assert.Equal(t, uint(8), Pow2(3))
}
