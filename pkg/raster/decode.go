package raster

import (
	"encoding/binary"
	"math"

	"github.com/rotisserie/eris"
)

// Info is the decoded geometry and georeferencing of a written GeoTIFF.
type Info struct {
	Width      int
	Height     int
	PixelScale [2]float64 // sx, sy
	Origin     [2]float64 // west, north of pixel (0,0)
	EPSG       int
	NoData     string

	// Values holds the band top row first, matching the file layout.
	Values []float64
}

// Decode parses a GeoTIFF produced by Encode. It understands exactly
// the single-strip float64 layout the encoder emits, which is all the
// tests and the export inspection need.
func Decode(data []byte) (*Info, error) {
	if len(data) < 8 || data[0] != 'I' || data[1] != 'I' {
		return nil, eris.New("raster: not a little-endian TIFF")
	}
	le := binary.LittleEndian
	if le.Uint16(data[2:]) != 42 {
		return nil, eris.New("raster: bad TIFF version")
	}

	ifdOffset := int(le.Uint32(data[4:]))
	if ifdOffset+2 > len(data) {
		return nil, eris.New("raster: IFD offset out of range")
	}

	info := &Info{}
	var stripOffset, stripCount int

	numEntries := int(le.Uint16(data[ifdOffset:]))
	for i := 0; i < numEntries; i++ {
		entry := data[ifdOffset+2+i*12:]
		tag := le.Uint16(entry)
		count := int(le.Uint32(entry[4:]))
		value := le.Uint32(entry[8:])

		switch tag {
		case tagImageWidth:
			info.Width = int(value)
		case tagImageLength:
			info.Height = int(value)
		case tagStripOffsets:
			stripOffset = int(value)
		case tagStripByteCounts:
			stripCount = int(value)
		case tagModelPixelScale:
			off := int(value)
			info.PixelScale[0] = readF64(data, off, le)
			info.PixelScale[1] = readF64(data, off+8, le)
		case tagModelTiepoint:
			off := int(value)
			info.Origin[0] = readF64(data, off+3*8, le)
			info.Origin[1] = readF64(data, off+4*8, le)
		case tagGeoKeyDirectory:
			off := int(value)
			for k := 4; k+3 < count; k += 4 {
				if le.Uint16(data[off+2*k:]) == geoKeyProjectedCSType {
					info.EPSG = int(le.Uint16(data[off+2*(k+3):]))
				}
			}
		case tagGDALNoData:
			raw := entry[8 : 8+min(count, 4)]
			for len(raw) > 0 && raw[len(raw)-1] == 0 {
				raw = raw[:len(raw)-1]
			}
			info.NoData = string(raw)
		}
	}

	if info.Width <= 0 || info.Height <= 0 {
		return nil, eris.New("raster: missing image dimensions")
	}
	if stripCount != info.Width*info.Height*8 {
		return nil, eris.Errorf("raster: strip holds %d bytes, expected %d", stripCount, info.Width*info.Height*8)
	}
	if stripOffset+stripCount > len(data) {
		return nil, eris.New("raster: strip out of range")
	}

	info.Values = make([]float64, info.Width*info.Height)
	for i := range info.Values {
		info.Values[i] = readF64(data, stripOffset+i*8, le)
	}

	return info, nil
}

func readF64(data []byte, off int, le binary.ByteOrder) float64 {
	return math.Float64frombits(le.Uint64(data[off:]))
}
