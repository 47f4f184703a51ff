// Package processing takes care of the logistics around turning the rows of a Source into a
// raster for a Target. The mesh algebra itself lives in the mesh and grid packages.
package processing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdok/meshraster/aggregate"
	"github.com/pdok/meshraster/grid"
)

type Options struct {
	Method aggregate.Method
	NoData float64
	Logger zerolog.Logger
}

func DefaultOptions() Options {
	return Options{
		Method: aggregate.None,
		NoData: grid.DefaultNoData,
		Logger: zerolog.Nop(),
	}
}

// Result describes what Rasterize handed to the target.
type Result struct {
	Rows         int
	Matrix       *grid.Matrix
	Georeference Georeference
}

// Rasterize reads all rows from source, aggregates rows sharing a mesh code, assembles the
// dense matrix and passes it with its georeference to target. Nothing is written to the
// target when any step before it fails.
func Rasterize(ctx context.Context, source Source, target Target, geocoder Geocoder, opts Options) (*Result, error) {
	log := opts.Logger

	rows, err := readRows(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	readCount := len(rows)
	log.Info().Int("rows", readCount).Msg("read rows")

	rows, err = aggregate.Aggregate(rows, opts.Method)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("cells", len(rows)).Stringer("method", opts.Method).Msg("aggregated rows")

	matrix, err := grid.Assemble(rows, grid.WithNoData(opts.NoData))
	if err != nil {
		return nil, err
	}
	log.Info().
		Stringer("level", matrix.Level).
		Int("width", matrix.Width()).
		Int("height", matrix.Height()).
		Int("filled", matrix.Filled).
		Msg("assembled grid")

	origin, err := geocoder.Center(matrix.OriginCode)
	if err != nil {
		return nil, fmt.Errorf("geocoding origin %q: %w", matrix.OriginCode, err)
	}
	cellWidth, cellHeight := matrix.CellSize()
	ref := Georeference{
		Origin:     origin,
		CellWidth:  cellWidth,
		CellHeight: cellHeight,
		Width:      matrix.Width(),
		Height:     matrix.Height(),
	}
	log.Info().
		Str("origin_code", matrix.OriginCode).
		Float64("origin_lng", origin.X()).
		Float64("origin_lat", origin.Y()).
		Msg("georeferenced grid")

	if err = target.WriteRaster(matrix, ref); err != nil {
		return nil, fmt.Errorf("writing raster: %w", err)
	}
	return &Result{Rows: readCount, Matrix: matrix, Georeference: ref}, nil
}

// readRows drains the source on its own goroutine.
func readRows(ctx context.Context, source Source) ([]grid.Row, error) {
	g, gctx := errgroup.WithContext(ctx)
	rowsChan := make(chan grid.Row)
	g.Go(func() error {
		defer close(rowsChan)
		return source.ReadRows(gctx, rowsChan)
	})

	var rows []grid.Row
	for row := range rowsChan {
		rows = append(rows, row)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
