package raster

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"sort"

	"github.com/pdok/meshraster/grid"
	"github.com/pdok/meshraster/processing"
)

// DefaultEPSG is JGD2011, the geographic system mesh codes are defined in.
const DefaultEPSG = 6668

type tag uint16

// baseline TIFF tags
const (
	imageWidth                tag = 256
	imageLength               tag = 257
	bitsPerSample             tag = 258
	compression               tag = 259
	photometricInterpretation tag = 262
	stripOffsets              tag = 273
	samplesPerPixel           tag = 277
	rowsPerStrip              tag = 278
	stripByteCounts           tag = 279
	planarConfiguration       tag = 284
	sampleFormat              tag = 339
)

// GeoTIFF and GDAL tags
const (
	modelPixelScale tag = 33550
	modelTiepoint   tag = 33922
	geoKeyDirectory tag = 34735
	gdalNoData      tag = 42113
)

type fieldType uint16

const (
	typeASCII  fieldType = 2
	typeShort  fieldType = 3
	typeLong   fieldType = 4
	typeDouble fieldType = 12
)

// GeoKey IDs and values
const (
	gkModelTypeGeoKey        = 1024
	gkRasterTypeGeoKey       = 1025
	gkGeographicTypeGeoKey   = 2048
	gkGeogAngularUnitsGeoKey = 2054

	modelTypeGeographic = 2
	rasterPixelIsArea   = 1
	angularDegree       = 9102
)

const (
	headerSize   = 8
	ifdEntrySize = 12
	sampleBytes  = 4
)

var byteOrder = binary.LittleEndian

type ifdEntry struct {
	tag   tag
	typ   fieldType
	count uint32
	data  []byte
}

func shorts(vs ...uint16) ifdEntry {
	data := make([]byte, 0, 2*len(vs))
	for _, v := range vs {
		data = byteOrder.AppendUint16(data, v)
	}
	return ifdEntry{typ: typeShort, count: uint32(len(vs)), data: data}
}

func longs(vs ...uint32) ifdEntry {
	data := make([]byte, 0, 4*len(vs))
	for _, v := range vs {
		data = byteOrder.AppendUint32(data, v)
	}
	return ifdEntry{typ: typeLong, count: uint32(len(vs)), data: data}
}

func doubles(vs ...float64) ifdEntry {
	data := make([]byte, 0, 8*len(vs))
	for _, v := range vs {
		data = byteOrder.AppendUint64(data, math.Float64bits(v))
	}
	return ifdEntry{typ: typeDouble, count: uint32(len(vs)), data: data}
}

func ascii(s string) ifdEntry {
	data := append([]byte(s), 0)
	return ifdEntry{typ: typeASCII, count: uint32(len(data)), data: data}
}

func (e ifdEntry) with(t tag) ifdEntry {
	e.tag = t
	return e
}

// EncodeGeoTIFF writes m as a single band, single strip, little-endian GeoTIFF of 32 bit
// floats in the geographic system epsg. Row 0 is the northern edge.
func EncodeGeoTIFF(w io.Writer, m *grid.Matrix, ref processing.Georeference, epsg int) error {
	width, height := uint32(m.Width()), uint32(m.Height())
	stripSize := width * height * sampleBytes
	extent := ref.Extent()

	entries := []ifdEntry{
		longs(width).with(imageWidth),
		longs(height).with(imageLength),
		shorts(32).with(bitsPerSample),
		shorts(1).with(compression),
		// black is zero
		shorts(1).with(photometricInterpretation),
		longs(0).with(stripOffsets),
		shorts(1).with(samplesPerPixel),
		longs(height).with(rowsPerStrip),
		longs(stripSize).with(stripByteCounts),
		shorts(1).with(planarConfiguration),
		// IEEE floating point
		shorts(3).with(sampleFormat),
		doubles(ref.CellWidth, ref.CellHeight, 0).with(modelPixelScale),
		doubles(0, 0, 0, extent.MinX(), extent.MaxY(), 0).with(modelTiepoint),
		shorts(
			1, 1, 0, 4,
			gkModelTypeGeoKey, 0, 1, modelTypeGeographic,
			gkRasterTypeGeoKey, 0, 1, rasterPixelIsArea,
			gkGeographicTypeGeoKey, 0, 1, uint16(epsg),
			gkGeogAngularUnitsGeoKey, 0, 1, angularDegree,
		).with(geoKeyDirectory),
		ascii(formatFloat(m.NoData)).with(gdalNoData),
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	// header, directory, values too large for an entry, strip
	ifdSize := uint32(2 + ifdEntrySize*len(entries) + 4)
	offset := headerSize + ifdSize
	offsets := make([]uint32, len(entries))
	for i, e := range entries {
		if len(e.data) > 4 {
			offsets[i] = offset
			offset += uint32(len(e.data))
			offset += offset % 2
		}
	}
	stripOffset := offset
	for i := range entries {
		if entries[i].tag == stripOffsets {
			entries[i].data = byteOrder.AppendUint32(nil, stripOffset)
		}
	}

	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, headerSize+ifdSize)
	buf = append(buf, 'I', 'I')
	buf = byteOrder.AppendUint16(buf, 42)
	buf = byteOrder.AppendUint32(buf, headerSize)
	buf = byteOrder.AppendUint16(buf, uint16(len(entries)))
	for i, e := range entries {
		buf = byteOrder.AppendUint16(buf, uint16(e.tag))
		buf = byteOrder.AppendUint16(buf, uint16(e.typ))
		buf = byteOrder.AppendUint32(buf, e.count)
		if len(e.data) > 4 {
			buf = byteOrder.AppendUint32(buf, offsets[i])
			continue
		}
		var inline [4]byte
		copy(inline[:], e.data)
		buf = append(buf, inline[:]...)
	}
	// no next directory
	buf = byteOrder.AppendUint32(buf, 0)
	if _, err := bw.Write(buf); err != nil {
		return err
	}

	written := headerSize + ifdSize
	for _, e := range entries {
		if len(e.data) <= 4 {
			continue
		}
		if _, err := bw.Write(e.data); err != nil {
			return err
		}
		written += uint32(len(e.data))
		if written%2 == 1 {
			if err := bw.WriteByte(0); err != nil {
				return err
			}
			written++
		}
	}

	sample := make([]byte, sampleBytes)
	for _, row := range m.Values {
		for _, v := range row {
			byteOrder.PutUint32(sample, math.Float32bits(float32(v)))
			if _, err := bw.Write(sample); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
