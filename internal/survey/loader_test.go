package survey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOpts = Options{
	XColumn:     "X_BD72_m",
	YColumn:     "Y_BD72_m",
	FieldColumn: "B1Tot",
}

func TestLoad_SemicolonWithPaddedHeaders(t *testing.T) {
	// MagComPy exports pad header cells with a leading space.
	input := "Time; X_BD72_m; Y_BD72_m; B1Tot\n" +
		"1.0;234000.5;152000.25;48930.1\n" +
		"2.0;234001.5;152001.25;48920.9\n"

	cloud, err := Load(strings.NewReader(input), testOpts)
	require.NoError(t, err)
	require.Equal(t, 2, cloud.Len())

	assert.Equal(t, 234000.5, cloud.Easting[0])
	assert.Equal(t, 152000.25, cloud.Northing[0])
	assert.Equal(t, 48930.1, cloud.Field[0])
	assert.Equal(t, 48920.9, cloud.Field[1])
}

func TestLoad_DropsNaNReadings(t *testing.T) {
	input := "X_BD72_m;Y_BD72_m;B1Tot\n" +
		"1;2;48930\n" +
		"3;4;NaN\n" +
		"5;6;\n" +
		"7;8;48950\n"

	cloud, err := Load(strings.NewReader(input), testOpts)
	require.NoError(t, err)
	assert.Equal(t, 2, cloud.Len())
	assert.Equal(t, []float64{1, 7}, cloud.Easting)
}

func TestLoad_CustomDelimiter(t *testing.T) {
	input := "X_BD72_m,Y_BD72_m,B1Tot\n1,2,3\n"
	opts := testOpts
	opts.Delimiter = ','

	cloud, err := Load(strings.NewReader(input), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, cloud.Len())
}

func TestLoad_MissingColumn(t *testing.T) {
	input := "X_BD72_m;Y_BD72_m;B2Tot\n1;2;3\n"
	_, err := Load(strings.NewReader(input), testOpts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "B1Tot")
}

func TestLoad_MalformedCell(t *testing.T) {
	input := "X_BD72_m;Y_BD72_m;B1Tot\n1;2;3\n4;bogus;6\n"
	_, err := Load(strings.NewReader(input), testOpts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
	assert.Contains(t, err.Error(), "Y_BD72_m")
}

func TestLoad_EmptyInputs(t *testing.T) {
	_, err := Load(strings.NewReader(""), testOpts)
	assert.Error(t, err)

	// Header only: no usable samples.
	_, err = Load(strings.NewReader("X_BD72_m;Y_BD72_m;B1Tot\n"), testOpts)
	assert.Error(t, err)

	// All readings NaN: same outcome.
	_, err = Load(strings.NewReader("X_BD72_m;Y_BD72_m;B1Tot\n1;2;NaN\n"), testOpts)
	assert.Error(t, err)
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile("does/not/exist.csv", testOpts)
	assert.Error(t, err)
}
