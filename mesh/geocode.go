package mesh

import (
	"github.com/go-spatial/geom"

	"github.com/pdok/meshraster/mathhelp"
)

const (
	// longitude of 80km column 00
	lngOrigin = 100.
	// latitude span of one 80km row
	latPerRow = 2. / 3
)

// SouthWest returns the south-west corner of the cell as (lng, lat).
func SouthWest(code string) (geom.Point, error) {
	level, x, y, err := Decode(code)
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Point{lngOrigin + axisOffset(level, x), latPerRow * axisOffset(level, y)}, nil
}

// Bounds returns the extent of the cell in degrees.
func Bounds(code string) (geom.Extent, error) {
	sw, err := SouthWest(code)
	if err != nil {
		return geom.Extent{}, err
	}
	level, _ := LevelOf(code)
	w, h := level.CellSize()
	return geom.Extent{sw.X(), sw.Y(), sw.X() + w, sw.Y() + h}, nil
}

// Center returns the centre of the cell as (lng, lat).
func Center(code string) (geom.Point, error) {
	bounds, err := Bounds(code)
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Point{(bounds.MinX() + bounds.MaxX()) / 2, (bounds.MinY() + bounds.MaxY()) / 2}, nil
}

// Geocoder resolves mesh codes to the centre of their cell.
type Geocoder struct{}

func (Geocoder) Center(code string) (geom.Point, error) {
	return Center(code)
}

// axisOffset is the position of the start of an index along its axis in 80km cells.
func axisOffset(l Level, idx Index) float64 {
	offset := float64(idx[0:2].Int())
	for pos := 2; pos < len(idx); pos++ {
		d := float64(digit(idx[pos]))
		switch {
		case pos == 2:
			offset += d / 8
		case pos == 3 && l == Level5km:
			offset += (d - 1) / 16
		case pos == 3 && l == Level2km:
			offset += d / 40
		case pos == 3:
			offset += d / 80
		default:
			offset += (d - 1) / float64(80*mathhelp.Pow2(uint(pos-3)))
		}
	}
	return offset
}
