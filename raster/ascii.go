package raster

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/pdok/meshraster/grid"
	"github.com/pdok/meshraster/processing"
)

// EncodeASCIIGrid writes m as an ESRI ASCII grid, rows from north to south.
// Mesh cells are not square in degrees, so the header names dx and dy unless they happen to be equal.
func EncodeASCIIGrid(w io.Writer, m *grid.Matrix, ref processing.Georeference) error {
	extent := ref.Extent()
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\n", m.Width())
	fmt.Fprintf(bw, "nrows %d\n", m.Height())
	fmt.Fprintf(bw, "xllcorner %s\n", formatFloat(extent.MinX()))
	fmt.Fprintf(bw, "yllcorner %s\n", formatFloat(extent.MinY()))
	if ref.CellWidth == ref.CellHeight {
		fmt.Fprintf(bw, "cellsize %s\n", formatFloat(ref.CellWidth))
	} else {
		fmt.Fprintf(bw, "dx %s\n", formatFloat(ref.CellWidth))
		fmt.Fprintf(bw, "dy %s\n", formatFloat(ref.CellHeight))
	}
	fmt.Fprintf(bw, "NODATA_value %s\n", formatFloat(m.NoData))
	for _, row := range m.Values {
		for c, v := range row {
			if c > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(formatFloat(v))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
