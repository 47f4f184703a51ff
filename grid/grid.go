// Package grid assembles mesh code keyed values into a dense matrix of cells,
// north up and west left, filling cells without a value with a nodata sentinel.
// A NaN value counts as no value.
package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/pdok/meshraster/mapslicehelp"
	"github.com/pdok/meshraster/mesh"
)

// DefaultNoData marks cells without input data.
const DefaultNoData = -9999.0

var (
	ErrNoRows            = errors.New("no rows to assemble")
	ErrMixedMeshLevel    = errors.New("mesh codes of more than one level")
	ErrDuplicateMeshCode = errors.New("duplicate mesh code")
)

// Row is a value keyed by a mesh code.
type Row struct {
	Code  string
	Value float64
}

// Matrix is a dense grid of cells of one mesh level.
// Values[0] is the northernmost row, Values[r][0] the westernmost cell of a row.
type Matrix struct {
	Level mesh.Level
	// column indices, west to east
	XIndexes []mesh.Index
	// row indices, north to south
	YIndexes []mesh.Index
	Values   [][]float64
	NoData   float64
	// mesh code of the top-left (north-west) cell
	OriginCode string
	// number of cells that got a value from the input
	Filled int
	filled [][]bool
}

func (m *Matrix) Width() int {
	return len(m.XIndexes)
}

func (m *Matrix) Height() int {
	return len(m.YIndexes)
}

// CellSize returns the cell width and height in degrees.
func (m *Matrix) CellSize() (width, height float64) {
	return m.Level.CellSize()
}

func (m *Matrix) At(col, row int) float64 {
	return m.Values[row][col]
}

// IsFilled reports whether the cell got a value from the input. A filled cell may hold a
// value equal to NoData.
func (m *Matrix) IsFilled(col, row int) bool {
	return m.filled != nil && m.filled[row][col]
}

type options struct {
	noData float64
}

type Option func(*options)

// WithNoData sets the value of cells absent from the input.
func WithNoData(noData float64) Option {
	return func(o *options) {
		o.noData = noData
	}
}

type cell = [2]mesh.Index

// Assemble decodes the mesh codes of rows into a dense matrix.
// All codes must be of the level of the first row and no code may occur twice.
//
//nolint:funlen
func Assemble(rows []Row, opts ...Option) (*Matrix, error) {
	o := options{noData: DefaultNoData}
	for _, opt := range opts {
		opt(&o)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	level, err := mesh.LevelOf(rows[0].Code)
	if err != nil {
		return nil, fmt.Errorf("row 0: %w", err)
	}

	// sparse cells, and the indices present per axis ordered by integer value
	values := make(map[cell]float64, len(rows))
	codes := make(map[cell]string, len(rows))
	xSet := mapslicehelp.NewSortedSet[int](len(rows))
	ySet := mapslicehelp.NewSortedSet[int](len(rows))
	for i, row := range rows {
		rowLevel, err := mesh.LevelOf(row.Code)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if rowLevel != level {
			return nil, fmt.Errorf("%w: row %d %q is %s, row 0 %q is %s",
				ErrMixedMeshLevel, i, row.Code, rowLevel, rows[0].Code, level)
		}
		x, y, err := level.Decode(row.Code)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		c := cell{x, y}
		if previous, ok := codes[c]; ok {
			return nil, fmt.Errorf("%w: row %d %q is the same cell as %q", ErrDuplicateMeshCode, i, row.Code, previous)
		}
		codes[c] = row.Code
		if !math.IsNaN(row.Value) {
			values[c] = row.Value
		}
		xSet.Insert(x, x.Int())
		ySet.Insert(y, y.Int())
	}

	present := mapslicehelp.SortedKeys[mesh.Index](xSet)
	minX, maxX := present[0], *mapslicehelp.LastElement(present)
	present = mapslicehelp.SortedKeys[mesh.Index](ySet)
	minY, maxY := present[0], *mapslicehelp.LastElement(present)

	// present indices stay even if the level would not enumerate them
	for _, x := range EnumerateIndexes(level, minX, maxX) {
		xSet.Insert(x, x.Int())
	}
	for _, y := range EnumerateIndexes(level, minY, maxY) {
		ySet.Insert(y, y.Int())
	}

	m := &Matrix{
		Level:    level,
		XIndexes: mapslicehelp.SortedKeys[mesh.Index](xSet),
		YIndexes: mapslicehelp.ReverseClone(mapslicehelp.SortedKeys[mesh.Index](ySet)),
		NoData:   o.noData,
		Filled:   len(values),
	}
	m.Values = make([][]float64, len(m.YIndexes))
	m.filled = make([][]bool, len(m.YIndexes))
	for r, y := range m.YIndexes {
		m.Values[r] = make([]float64, len(m.XIndexes))
		m.filled[r] = make([]bool, len(m.XIndexes))
		for c, x := range m.XIndexes {
			v, ok := values[cell{x, y}]
			if !ok {
				v = o.noData
			}
			m.Values[r][c] = v
			m.filled[r][c] = ok
		}
	}

	m.OriginCode, err = level.Encode(minX, maxY)
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	return m, nil
}
