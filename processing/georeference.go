package processing

import (
	"strconv"
	"strings"

	"github.com/go-spatial/geom"
)

// Georeference places a matrix on the earth.
type Georeference struct {
	// centre of the top-left cell, (lng, lat)
	Origin     geom.Point
	CellWidth  float64
	CellHeight float64
	// in cells
	Width  int
	Height int
}

// Extent is the area covered by all cells.
func (g Georeference) Extent() geom.Extent {
	minX := g.Origin.X() - g.CellWidth/2
	maxY := g.Origin.Y() + g.CellHeight/2
	return geom.Extent{
		minX,
		maxY - float64(g.Height)*g.CellHeight,
		minX + float64(g.Width)*g.CellWidth,
		maxY,
	}
}

// WorldFile renders the six lines of an affine world file:
// pixel width, rotation (0), rotation (0), negative pixel height, and the longitude and
// latitude of the centre of the top-left pixel.
func (g Georeference) WorldFile() string {
	lines := []float64{g.CellWidth, 0, 0, -g.CellHeight, g.Origin.X(), g.Origin.Y()}
	var sb strings.Builder
	for _, v := range lines {
		sb.WriteString(formatFloat(v))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
