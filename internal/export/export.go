// Package export writes optional intermediate products of the pipeline:
// the decimated point cloud as an ESRI shapefile and the pre-reduction
// gridded anomaly as a GeoTIFF. Both exist so a survey can be inspected
// in a GIS before trusting the pole-reduced result.
package export

import (
	"os"
	"path/filepath"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/hadrienmichel/MagDronePost/internal/models"
	"github.com/hadrienmichel/MagDronePost/pkg/raster"
)

// PointShapefile writes the cloud as a POINT shapefile with the anomaly
// value in an ANOM_NT attribute.
func PointShapefile(cloud *models.PointCloud, path string) error {
	if cloud.Len() == 0 {
		return eris.New("export: point cloud is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "export: create shapefile directory")
	}

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrap(err, "export: create shapefile")
	}
	defer w.Close()

	w.SetFields([]shp.Field{
		shp.FloatField("ANOM_NT", 16, 4),
	})

	for i := 0; i < cloud.Len(); i++ {
		w.Write(&shp.Point{X: cloud.Easting[i], Y: cloud.Northing[i]})
		if err := w.WriteAttribute(i, 0, cloud.Field[i]); err != nil {
			return eris.Wrapf(err, "export: write attribute for point %d", i)
		}
	}

	return nil
}

// GridGeoTIFF writes an intermediate grid next to the final product.
func GridGeoTIFF(grid *models.Grid, epsg int, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "export: create raster directory")
	}
	return raster.WriteGeoTIFF(path, grid, epsg)
}
