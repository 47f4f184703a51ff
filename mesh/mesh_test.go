package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelOf(t *testing.T) {
	tests := []struct {
		code    string
		want    Level
		wantErr bool
	}{
		{code: "5339", want: Level80km},
		{code: "533945", want: Level10km},
		{code: "5339452", want: Level5km},
		{code: "53394526", want: Level1km},
		{code: "533945465", want: Level2km},
		{code: "533945263", want: Level500m},
		{code: "5339452634", want: Level250m},
		{code: "53394526341", want: Level125m},
		{code: "", wantErr: true},
		{code: "533", wantErr: true},
		{code: "53394", wantErr: true},
		{code: "533945263412", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := LevelOf(tt.code)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidMeshCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.code), got.CodeLength())
		})
	}
}

func TestLevelOf_DependsOnlyOnLength(t *testing.T) {
	for _, code := range []string{"0000", "9999", "abcd"} {
		l, err := LevelOf(code)
		require.NoError(t, err)
		assert.Equal(t, Level80km, l)
	}
	for _, code := range []string{"533945261", "533945262", "533945264", "xxxxxxxx0"} {
		l, err := LevelOf(code)
		require.NoError(t, err)
		assert.Equal(t, Level500m, l, code)
	}
	l, err := LevelOf("xxxxxxxx5")
	require.NoError(t, err)
	assert.Equal(t, Level2km, l)
}

func TestParseLevel(t *testing.T) {
	for _, l := range Levels {
		got, err := ParseLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	_, err := ParseLevel("3km")
	require.Error(t, err)
	assert.Equal(t, "Level(0)", Level(0).String())
}

func TestLevel_CellSize(t *testing.T) {
	w, h := Level80km.CellSize()
	assert.Equal(t, 1., w)
	assert.InDelta(t, 2./3, h, 1e-15)

	// every level is a whole subdivision of the 80km cell
	for _, l := range Levels {
		w, h := l.CellSize()
		assert.InDelta(t, w/h, 1.5, 1e-9, l.String())
	}
}

func TestLevel_ValidIndexDigit(t *testing.T) {
	tests := []struct {
		level Level
		pos   int
		digit byte
		want  bool
	}{
		{Level80km, 0, '9', true},
		{Level80km, 2, '0', false},
		{Level10km, 2, '7', true},
		{Level10km, 2, '8', false},
		{Level5km, 3, '0', false},
		{Level5km, 3, '1', true},
		{Level5km, 3, '2', true},
		{Level5km, 3, '3', false},
		{Level2km, 3, '4', true},
		{Level2km, 3, '5', false},
		{Level1km, 3, '9', true},
		{Level500m, 4, '0', false},
		{Level500m, 4, '1', true},
		{Level500m, 4, '2', true},
		{Level500m, 4, '3', false},
		{Level125m, 6, '2', true},
		{Level125m, 6, '3', false},
		{Level125m, 7, '1', false},
		{Level1km, -1, '1', false},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, tt.level.ValidIndexDigit(tt.pos, tt.digit),
			"%s position %d digit %c", tt.level, tt.pos, tt.digit)
	}
}

func TestLevel_ValidIndex(t *testing.T) {
	assert.True(t, Level500m.ValidIndex("39561"))
	assert.False(t, Level500m.ValidIndex("39560"))
	assert.False(t, Level500m.ValidIndex("3956"))
	assert.False(t, Level10km.ValidIndex("398"))
	assert.True(t, Level10km.ValidIndex("400"))
}

func TestCompareAndMinMax(t *testing.T) {
	assert.Equal(t, -1, Compare("0399", "0400"))
	assert.Equal(t, 1, Compare("400", "397"))
	assert.Equal(t, 0, Compare("53", "53"))

	lo, hi := MinMax([]Index{"3957", "3952", "4001", "3990"})
	assert.Equal(t, Index("3952"), lo)
	assert.Equal(t, Index("4001"), hi)
}
