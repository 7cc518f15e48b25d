package geosvc

import (
	"context"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core"
)

// Providers
const (
	ProviderGoogle    = "google"
	ProviderNominatim = "nominatim"
)

var (
	googleBaseURL    = "https://maps.googleapis.com"
	nominatimBaseURL = "https://nominatim.openstreetmap.org"

	ErrMissingAPIKey = errors.New("google maps API key not configured")
)

// New returns the Geocoder of the configured provider.
func New(conf *core.Config) core.Geocoder {
	if conf.Geocoding.Provider == ProviderNominatim {
		return NewNominatim(nominatimBaseURL, conf)
	}
	return NewGoogle(googleBaseURL, conf)
}

func newClient(baseURL string, conf *core.Config) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	if conf.Geocoding.Timeout > 0 {
		client.SetTimeout(conf.Geocoding.Timeout)
	}
	if conf.Geocoding.UserAgent != "" {
		client.SetHeader("User-Agent", conf.Geocoding.UserAgent)
	}
	return client
}

func formatCoord(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

type googleGeocoder struct {
	client *resty.Client
	apiKey string
}

var _ core.Geocoder = (*googleGeocoder)(nil)

func NewGoogle(baseURL string, conf *core.Config) core.Geocoder {
	return &googleGeocoder{client: newClient(baseURL, conf), apiKey: conf.Geocoding.GoogleAPIKey}
}

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// ReverseGeocode returns the first formatted address, or "" when Google knows none.
func (g *googleGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	if g.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	var out googleResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latlng": formatCoord(lat) + "," + formatCoord(lon),
			"key":    g.apiKey,
		}).
		SetResult(&out).
		Get("/maps/api/geocode/json")
	if err != nil {
		return "", errors.Wrap(err, "calling google geocoding")
	}
	if resp.IsError() {
		return "", errors.Errorf("google geocoding: status %d", resp.StatusCode())
	}
	switch out.Status {
	case "OK", "ZERO_RESULTS", "":
	default:
		return "", errors.Errorf("google geocoding: %s %s", out.Status, out.ErrorMessage)
	}
	if len(out.Results) == 0 {
		return "", nil
	}
	return out.Results[0].FormattedAddress, nil
}

type nominatimGeocoder struct {
	client *resty.Client
}

var _ core.Geocoder = (*nominatimGeocoder)(nil)

func NewNominatim(baseURL string, conf *core.Config) core.Geocoder {
	return &nominatimGeocoder{client: newClient(baseURL, conf)}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// ReverseGeocode returns Nominatim's display name; "" when the coordinates match nothing.
func (n *nominatimGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	var out nominatimResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format":         "json",
			"lat":            formatCoord(lat),
			"lon":            formatCoord(lon),
			"zoom":           "18",
			"addressdetails": "1",
		}).
		SetResult(&out).
		Get("/reverse")
	if err != nil {
		return "", errors.Wrap(err, "calling nominatim")
	}
	if resp.IsError() {
		return "", errors.Errorf("nominatim: status %d", resp.StatusCode())
	}
	return out.DisplayName, nil
}
