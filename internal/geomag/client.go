// Package geomag queries the BGS geomagnetism web service for the
// reference field parameters (inclination, declination, total
// intensity) at a site and date.
package geomag

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hadrienmichel/MagDronePost/internal/models"
)

// Calculator resolves geomagnetic reference-model values over HTTP.
type Calculator interface {
	FieldAt(ctx context.Context, site Site) (models.GeomagneticField, error)
}

// Site is a query position for the reference model.
type Site struct {
	Latitude   float64 // decimal degrees
	Longitude  float64 // decimal degrees
	AltitudeKm float64 // kilometers above mean sea level
	Date       string  // yyyy-mm-dd
}

// Client implements Calculator against the BGS GMModels endpoint.
type Client struct {
	baseURL    string
	model      string
	revision   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a reference-model client. baseURL is the service
// root (e.g. https://geomag.bgs.ac.uk/web_service/GMModels), model a
// model name like "wmm" or "igrf", revision a revision label or
// "current".
func NewClient(baseURL, model, revision string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		model:    model,
		revision: revision,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FieldAt fetches the field parameters for the site. Any transport or
// service error aborts; there is no retry, the caller fails fast.
func (c *Client) FieldAt(ctx context.Context, site Site) (models.GeomagneticField, error) {
	params := url.Values{
		"latitude":  {strconv.FormatFloat(site.Latitude, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(site.Longitude, 'f', -1, 64)},
		"altitude":  {strconv.FormatFloat(site.AltitudeKm, 'f', -1, 64)},
		"date":      {site.Date},
		"format":    {"json"},
	}
	u := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.model, c.revision, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.GeomagneticField{}, eris.Wrap(err, "geomag: create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.GeomagneticField{}, eris.Wrap(err, "geomag: query reference model")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return models.GeomagneticField{}, eris.Errorf("geomag: service returned status %d: %s", resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.GeomagneticField{}, eris.Wrap(err, "geomag: decode response")
	}

	fv := payload.Result.FieldValue
	if fv.Inclination == nil || fv.Declination == nil || fv.TotalIntensity == nil {
		return models.GeomagneticField{}, eris.New("geomag: response is missing field values")
	}

	field := models.GeomagneticField{
		Inclination:    fv.Inclination.Value,
		Declination:    fv.Declination.Value,
		TotalIntensity: fv.TotalIntensity.Value,
	}

	c.logger.Debug("resolved geomagnetic reference field",
		zap.String("model", c.model),
		zap.Float64("inclination_deg", field.Inclination),
		zap.Float64("declination_deg", field.Declination),
		zap.Float64("total_intensity_nt", field.TotalIntensity))

	return field, nil
}

// BGS API response types.

type response struct {
	Result result `json:"geomagnetic-field-model-result"`
}

type result struct {
	FieldValue fieldValue `json:"field-value"`
}

type fieldValue struct {
	Inclination    *labeledValue `json:"inclination"`
	Declination    *labeledValue `json:"declination"`
	TotalIntensity *labeledValue `json:"total-intensity"`
}

type labeledValue struct {
	Value float64 `json:"value"`
	Units string  `json:"units"`
}
