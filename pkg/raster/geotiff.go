// Package raster writes gridded anomaly data as single-band float64
// GeoTIFF files. The encoder emits a classic little-endian TIFF with
// one strip and the three GeoTIFF tags GIS packages need to place the
// band: ModelPixelScale, ModelTiepoint and a GeoKeyDirectory carrying
// the projected EPSG code. Masked cells are written as NaN and flagged
// through the GDAL nodata tag.
//
// No pure-Go library covers this: the Go GeoTIFF ecosystem is cgo
// bindings over GDAL, and x/image/tiff encodes neither float samples
// nor private tags. The format is simple enough to write directly.
package raster

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"

	"github.com/rotisserie/eris"

	"github.com/hadrienmichel/MagDronePost/internal/models"
)

// TIFF tag and type constants used by the encoder.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagPlanarConfig    = 284
	tagSampleFormat    = 339
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
	tagGeoKeyDirectory = 34735
	tagGDALNoData      = 42113

	typeASCII  = 2
	typeShort  = 3
	typeLong   = 4
	typeDouble = 12

	sampleFormatIEEEFP = 3

	geoKeyModelType       = 1024
	geoKeyRasterType      = 1025
	geoKeyProjectedCSType = 3072

	modelTypeProjected = 1
	rasterPixelIsArea  = 1
)

// WriteGeoTIFF serializes the grid to path. Grid rows run south to
// north; the file stores them top to bottom, so the array is flipped on
// the way out. The affine transform follows the rasterio from_bounds
// convention: pixel (0, 0) is the top-left (west/north) corner of the
// region and the pixel size is the region extent over the pixel count.
func WriteGeoTIFF(path string, grid *models.Grid, epsg int) error {
	if grid.NRows < 1 || grid.NCols < 1 {
		return eris.Errorf("raster: grid %dx%d has nothing to write", grid.NRows, grid.NCols)
	}
	if epsg <= 0 || epsg > math.MaxUint16 {
		return eris.Errorf("raster: EPSG code %d does not fit a GeoTIFF key", epsg)
	}

	data, err := Encode(grid, epsg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "raster: write GeoTIFF")
	}
	return nil
}

// Encode renders the grid as an in-memory GeoTIFF.
func Encode(grid *models.Grid, epsg int) ([]byte, error) {
	width := grid.NCols
	height := grid.NRows
	dataSize := width * height * 8

	const headerSize = 8
	const numEntries = 15
	ifdOffset := headerSize + dataSize
	ifdSize := 2 + numEntries*12 + 4

	scaleOffset := ifdOffset + ifdSize
	tiepointOffset := scaleOffset + 3*8
	geoKeyOffset := tiepointOffset + 6*8
	totalSize := geoKeyOffset + 16*2

	buf := bytes.NewBuffer(make([]byte, 0, totalSize))
	le := binary.LittleEndian

	// Header: little-endian magic, version 42, offset to first IFD.
	buf.WriteString("II")
	writeU16(buf, le, 42)
	writeU32(buf, le, uint32(ifdOffset))

	// Band data, top row first.
	for r := height - 1; r >= 0; r-- {
		for c := 0; c < width; c++ {
			writeU64(buf, le, math.Float64bits(grid.Value(r, c)))
		}
	}

	// Pixel size per the from_bounds convention.
	sx := grid.Region.Width() / float64(width)
	sy := grid.Region.Height() / float64(height)

	// IFD. Tags must appear in ascending order.
	writeU16(buf, le, numEntries)
	writeEntry(buf, le, tagImageWidth, typeLong, 1, uint32(width))
	writeEntry(buf, le, tagImageLength, typeLong, 1, uint32(height))
	writeEntry(buf, le, tagBitsPerSample, typeShort, 1, 64)
	writeEntry(buf, le, tagCompression, typeShort, 1, 1)
	writeEntry(buf, le, tagPhotometric, typeShort, 1, 1)
	writeEntry(buf, le, tagStripOffsets, typeLong, 1, headerSize)
	writeEntry(buf, le, tagSamplesPerPixel, typeShort, 1, 1)
	writeEntry(buf, le, tagRowsPerStrip, typeLong, 1, uint32(height))
	writeEntry(buf, le, tagStripByteCounts, typeLong, 1, uint32(dataSize))
	writeEntry(buf, le, tagPlanarConfig, typeShort, 1, 1)
	writeEntry(buf, le, tagSampleFormat, typeShort, 1, sampleFormatIEEEFP)
	writeEntry(buf, le, tagModelPixelScale, typeDouble, 3, uint32(scaleOffset))
	writeEntry(buf, le, tagModelTiepoint, typeDouble, 6, uint32(tiepointOffset))
	writeEntry(buf, le, tagGeoKeyDirectory, typeShort, 16, uint32(geoKeyOffset))
	// "nan" with its NUL terminator fits the inline value field.
	writeEntryBytes(buf, le, tagGDALNoData, typeASCII, 4, [4]byte{'n', 'a', 'n', 0})
	writeU32(buf, le, 0) // no next IFD

	// ModelPixelScale: (sx, sy, 0).
	writeF64(buf, le, sx)
	writeF64(buf, le, sy)
	writeF64(buf, le, 0)

	// ModelTiepoint: raster (0,0,0) maps to the region's west/north corner.
	writeF64(buf, le, 0)
	writeF64(buf, le, 0)
	writeF64(buf, le, 0)
	writeF64(buf, le, grid.Region.West)
	writeF64(buf, le, grid.Region.North)
	writeF64(buf, le, 0)

	// GeoKeyDirectory: version 1.1.0, three keys.
	for _, v := range []uint16{
		1, 1, 0, 3,
		geoKeyModelType, 0, 1, modelTypeProjected,
		geoKeyRasterType, 0, 1, rasterPixelIsArea,
		geoKeyProjectedCSType, 0, 1, uint16(epsg),
	} {
		writeU16(buf, le, v)
	}

	if buf.Len() != totalSize {
		return nil, eris.Errorf("raster: encoded %d bytes, expected %d", buf.Len(), totalSize)
	}

	return buf.Bytes(), nil
}

func writeEntry(buf *bytes.Buffer, le binary.ByteOrder, tag, typ uint16, count, value uint32) {
	writeU16(buf, le, tag)
	writeU16(buf, le, typ)
	writeU32(buf, le, count)
	if typ == typeShort && count == 1 {
		// Inline values are left-justified in the 4-byte field.
		writeU16(buf, le, uint16(value))
		writeU16(buf, le, 0)
		return
	}
	writeU32(buf, le, value)
}

func writeEntryBytes(buf *bytes.Buffer, le binary.ByteOrder, tag, typ uint16, count uint32, value [4]byte) {
	writeU16(buf, le, tag)
	writeU16(buf, le, typ)
	writeU32(buf, le, count)
	buf.Write(value[:])
}

func writeU16(buf *bytes.Buffer, le binary.ByteOrder, v uint16) {
	var b [2]byte
	le.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, le binary.ByteOrder, v uint32) {
	var b [4]byte
	le.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, le binary.ByteOrder, v uint64) {
	var b [8]byte
	le.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeF64(buf *bytes.Buffer, le binary.ByteOrder, v float64) {
	writeU64(buf, le, math.Float64bits(v))
}
