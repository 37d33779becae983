// Package survey reads pre-processed magnetometry CSV files into a
// point cloud. The files come out of the MagComPy pre-processing chain:
// one header row, semicolon-delimited, projected coordinates and one or
// more total-field columns. Header cells frequently carry leading
// spaces, so columns are matched on trimmed names.
package survey

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hadrienmichel/MagDronePost/internal/models"
)

// Options selects the columns to read from the CSV.
type Options struct {
	Delimiter   rune // default ';'
	XColumn     string
	YColumn     string
	FieldColumn string
}

// LoadFile reads the survey file at path.
func LoadFile(path string, opts Options) (*models.PointCloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "survey: open input")
	}
	defer f.Close()

	return Load(f, opts)
}

// Load reads survey samples from r.
func Load(r io.Reader, opts Options) (*models.PointCloud, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	} else {
		reader.Comma = ';'
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("survey: input is empty")
	}
	if err != nil {
		return nil, eris.Wrap(err, "survey: read header")
	}

	xIdx, err := columnIndex(header, opts.XColumn)
	if err != nil {
		return nil, err
	}
	yIdx, err := columnIndex(header, opts.YColumn)
	if err != nil {
		return nil, err
	}
	fIdx, err := columnIndex(header, opts.FieldColumn)
	if err != nil {
		return nil, err
	}

	cloud := &models.PointCloud{}
	dropped := 0
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "survey: read row %d", row+1)
		}
		row++

		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		x, err := parseCell(record, xIdx, opts.XColumn, row)
		if err != nil {
			return nil, err
		}
		y, err := parseCell(record, yIdx, opts.YColumn, row)
		if err != nil {
			return nil, err
		}
		v, err := parseCell(record, fIdx, opts.FieldColumn, row)
		if err != nil {
			return nil, err
		}

		// NaN readings happen when a sensor dropped out for a cycle;
		// they carry no information for the gridder.
		if math.IsNaN(x) || math.IsNaN(y) || math.IsNaN(v) {
			dropped++
			continue
		}

		cloud.Easting = append(cloud.Easting, x)
		cloud.Northing = append(cloud.Northing, y)
		cloud.Field = append(cloud.Field, v)
	}

	if cloud.Len() == 0 {
		return nil, eris.New("survey: input has no usable samples")
	}

	if dropped > 0 {
		zap.L().Warn("dropped samples with NaN values",
			zap.Int("dropped", dropped),
			zap.Int("kept", cloud.Len()))
	}

	return cloud, nil
}

func columnIndex(header []string, name string) (int, error) {
	want := strings.TrimSpace(name)
	for i, h := range header {
		if strings.TrimSpace(h) == want {
			return i, nil
		}
	}
	return 0, eris.Errorf("survey: column %q not found in header %v", name, header)
}

func parseCell(record []string, idx int, name string, row int) (float64, error) {
	if idx >= len(record) {
		return 0, eris.Errorf("survey: row %d has no %q column", row, name)
	}
	cell := strings.TrimSpace(record[idx])
	if cell == "" || strings.EqualFold(cell, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "survey: row %d column %q: parse %q", row, name, cell)
	}
	return v, nil
}
