package processing

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/meshraster/aggregate"
	"github.com/pdok/meshraster/grid"
	"github.com/pdok/meshraster/mesh"
)

type rowsSource struct {
	rows []grid.Row
	err  error
}

func (s rowsSource) ReadRows(ctx context.Context, rows chan<- grid.Row) error {
	for _, row := range s.rows {
		select {
		case rows <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.err
}

type recordingTarget struct {
	calls  int
	matrix *grid.Matrix
	ref    Georeference
	err    error
}

func (t *recordingTarget) WriteRaster(matrix *grid.Matrix, ref Georeference) error {
	t.calls++
	t.matrix = matrix
	t.ref = ref
	return t.err
}

type failingGeocoder struct{}

func (failingGeocoder) Center(string) (geom.Point, error) {
	return geom.Point{}, errors.New("no geocoding today")
}

func TestRasterize(t *testing.T) {
	source := rowsSource{rows: []grid.Row{{Code: "5339", Value: 10}, {Code: "5340", Value: 20}}}
	target := &recordingTarget{}

	result, err := Rasterize(context.Background(), source, target, mesh.Geocoder{}, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, target.calls)

	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, [][]float64{{10, 20}}, target.matrix.Values)
	assert.Equal(t, "5339", target.matrix.OriginCode)
	assert.InDelta(t, 139.5, target.ref.Origin.X(), 1e-9)
	assert.InDelta(t, 35+2./3, target.ref.Origin.Y(), 1e-9)
	assert.Equal(t, 1., target.ref.CellWidth)
	assert.Equal(t, 2./3, target.ref.CellHeight)
	assert.Equal(t, 2, target.ref.Width)
	assert.Equal(t, 1, target.ref.Height)
	assert.Equal(t, target.ref, result.Georeference)
}

func TestRasterize_Aggregates(t *testing.T) {
	source := rowsSource{rows: []grid.Row{
		{Code: "53394526", Value: 1},
		{Code: "53394526", Value: 3},
		{Code: "53394528", Value: 5},
	}}
	target := &recordingTarget{}
	opts := DefaultOptions()
	opts.Method = aggregate.Mean

	result, err := Rasterize(context.Background(), source, target, mesh.Geocoder{}, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, [][]float64{{2, grid.DefaultNoData, 5}}, target.matrix.Values)
}

func TestRasterize_NaNBecomesNoData(t *testing.T) {
	source := rowsSource{rows: []grid.Row{
		{Code: "5339", Value: 4},
		{Code: "5340", Value: math.NaN()},
		{Code: "5339", Value: 6},
	}}
	target := &recordingTarget{}
	opts := DefaultOptions()
	opts.Method = aggregate.StdDev
	opts.NoData = -1

	_, err := Rasterize(context.Background(), source, target, mesh.Geocoder{}, opts)
	require.NoError(t, err)
	require.Len(t, target.matrix.Values, 1)
	assert.InDelta(t, math.Sqrt2, target.matrix.Values[0][0], 1e-12)
	assert.Equal(t, -1., target.matrix.Values[0][1])
	assert.Equal(t, -1., target.matrix.NoData)
	assert.False(t, target.matrix.IsFilled(1, 0))
	assert.Equal(t, 1, target.matrix.Filled)
}

func TestRasterize_Errors(t *testing.T) {
	sourceErr := errors.New("broken source")
	targetErr := errors.New("disk full")
	tests := []struct {
		name     string
		source   Source
		geocoder Geocoder
		method   aggregate.Method
		target   *recordingTarget
		wantErr  error
		calls    int
	}{
		{
			name:    "source fails",
			source:  rowsSource{rows: []grid.Row{{Code: "5339", Value: 1}}, err: sourceErr},
			wantErr: sourceErr,
		},
		{
			name:    "no rows",
			source:  rowsSource{},
			wantErr: grid.ErrNoRows,
		},
		{
			name:    "duplicates without a method",
			source:  rowsSource{rows: []grid.Row{{Code: "5339", Value: 1}, {Code: "5339", Value: 2}}},
			wantErr: aggregate.ErrAggregationRequired,
		},
		{
			name:    "unknown method",
			source:  rowsSource{rows: []grid.Row{{Code: "5339", Value: 1}}},
			method:  aggregate.Method(99),
			wantErr: aggregate.ErrUnknownMethod,
		},
		{
			name:    "mixed levels",
			source:  rowsSource{rows: []grid.Row{{Code: "5339", Value: 1}, {Code: "53394526", Value: 2}}},
			wantErr: grid.ErrMixedMeshLevel,
		},
		{
			name:    "invalid code",
			source:  rowsSource{rows: []grid.Row{{Code: "5339x", Value: 1}}},
			wantErr: mesh.ErrInvalidMeshCode,
		},
		{
			name:     "geocoder fails",
			source:   rowsSource{rows: []grid.Row{{Code: "5339", Value: 1}}},
			geocoder: failingGeocoder{},
		},
		{
			name:    "target fails",
			source:  rowsSource{rows: []grid.Row{{Code: "5339", Value: 1}}},
			target:  &recordingTarget{err: targetErr},
			wantErr: targetErr,
			calls:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tt.target
			if target == nil {
				target = &recordingTarget{}
			}
			geocoder := tt.geocoder
			if geocoder == nil {
				geocoder = mesh.Geocoder{}
			}
			opts := DefaultOptions()
			opts.Method = tt.method

			result, err := Rasterize(context.Background(), tt.source, target, geocoder, opts)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Nil(t, result)
			assert.Equal(t, tt.calls, target.calls)
		})
	}
}

func TestRasterize_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	source := rowsSource{rows: []grid.Row{{Code: "5339", Value: 1}}}
	target := &recordingTarget{}

	_, err := Rasterize(ctx, source, target, mesh.Geocoder{}, DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, 0, target.calls)
}
