package processing

import (
	"context"

	"github.com/go-spatial/geom"

	"github.com/pdok/meshraster/grid"
)

// Source yields mesh code keyed rows.
type Source interface {
	// ReadRows sends every row of the source. The caller closes rows once ReadRows returns.
	ReadRows(ctx context.Context, rows chan<- grid.Row) error
}

// Target writes an assembled matrix somewhere.
type Target interface {
	WriteRaster(m *grid.Matrix, ref Georeference) error
}

// Geocoder resolves a mesh code to the centre of its cell as (lng, lat).
type Geocoder interface {
	Center(code string) (geom.Point, error)
}
