package grid

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/meshraster/mesh"
)

func TestEnumerateIndexes(t *testing.T) {
	tests := []struct {
		name   string
		level  mesh.Level
		lo, hi mesh.Index
		want   []mesh.Index
	}{
		{name: "single", level: mesh.Level80km, lo: "39", hi: "39", want: []mesh.Index{"39"}},
		{name: "80km", level: mesh.Level80km, lo: "39", hi: "42", want: []mesh.Index{"39", "40", "41", "42"}},
		{name: "10km skips 8 and 9", level: mesh.Level10km, lo: "396", hi: "401",
			want: []mesh.Index{"396", "397", "400", "401"}},
		{name: "5km halves", level: mesh.Level5km, lo: "3972", hi: "4002",
			want: []mesh.Index{"3972", "4001", "4002"}},
		{name: "2km pairs", level: mesh.Level2km, lo: "3973", hi: "4001",
			want: []mesh.Index{"3973", "3974", "4000", "4001"}},
		{name: "1km", level: mesh.Level1km, lo: "3978", hi: "4001",
			want: []mesh.Index{"3978", "3979", "4000", "4001"}},
		{name: "500m", level: mesh.Level500m, lo: "39562", hi: "39572",
			want: []mesh.Index{"39562", "39571", "39572"}},
		{name: "250m", level: mesh.Level250m, lo: "395622", hi: "395712",
			want: []mesh.Index{"395622", "395711", "395712"}},
		{name: "125m across a 10km border", level: mesh.Level125m, lo: "3979222", hi: "4000112",
			want: []mesh.Index{"3979222", "4000111", "4000112"}},
		{name: "reversed range", level: mesh.Level80km, lo: "42", hi: "39", want: nil},
		{name: "wrong width", level: mesh.Level1km, lo: "397", hi: "4001", want: nil},
		{name: "invalid lower bound rounds up", level: mesh.Level500m, lo: "39563", hi: "39572",
			want: []mesh.Index{"39571", "39572"}},
		{name: "invalid lower bound below minimum digit", level: mesh.Level500m, lo: "39560", hi: "39561",
			want: []mesh.Index{"39561"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EnumerateIndexes(tt.level, tt.lo, tt.hi))
		})
	}
}

// Every enumerated index is valid, and every valid integer in the range is enumerated.
func TestEnumerateIndexes_MatchesFilteredRange(t *testing.T) {
	ranges := map[mesh.Level][2]mesh.Index{
		mesh.Level10km: {"385", "412"},
		mesh.Level5km:  {"3851", "4122"},
		mesh.Level2km:  {"3853", "4120"},
		mesh.Level1km:  {"3857", "4012"},
		mesh.Level500m: {"39571", "40012"},
		mesh.Level250m: {"395712", "400121"},
		mesh.Level125m: {"3979121", "4000212"},
	}
	for level, r := range ranges {
		t.Run(level.String(), func(t *testing.T) {
			var want []mesh.Index
			for i := r[0].Int(); i <= r[1].Int(); i++ {
				idx := mesh.Index(padded(i, level.IndexWidth()))
				if level.ValidIndex(idx) {
					want = append(want, idx)
				}
			}
			got := EnumerateIndexes(level, r[0], r[1])
			require.Equal(t, want, got)
			for _, idx := range got {
				require.True(t, level.ValidIndex(idx), idx)
			}
		})
	}
}

func padded(i, width int) string {
	s := strconv.Itoa(i)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
