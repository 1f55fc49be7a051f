// Package geocoding implements the forward and reverse geocoding provider
// client used to resolve free-text queries and display addresses.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/KlotzJesse/solar-potential/internal/infrastructure/monitoring/logging"
	monprom "github.com/KlotzJesse/solar-potential/internal/infrastructure/monitoring/prometheus"
	"github.com/KlotzJesse/solar-potential/pkg/errors"
	"github.com/KlotzJesse/solar-potential/pkg/types/solar"
)

const providerLabel = "geocoding"

// Result is one geocoding answer.
type Result struct {
	Location solar.LatLng
	Address  string
}

// Client resolves text queries to coordinates and coordinates to display
// addresses.
type Client interface {
	Geocode(ctx context.Context, query string) (*Result, error)
	ReverseGeocode(ctx context.Context, location solar.LatLng) (string, error)
}

// Options carries the construction parameters for NewClient.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Region  string
}

type client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	region  string
	logger  logging.Logger
	metrics *monprom.Metrics
}

// NewClient constructs a geocoding client.  metrics may be nil.
func NewClient(opts Options, logger logging.Logger, metrics *monprom.Metrics) Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		region:  opts.Region,
		logger:  logger.Named("geocoding"),
		metrics: metrics,
	}
}

// response is the provider envelope.  Status is "OK" on success;
// "ZERO_RESULTS" is a well-formed empty answer, everything else a failure.
type response struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (c *client) Geocode(ctx context.Context, query string) (*Result, error) {
	q := url.Values{}
	q.Set("address", query)
	if c.region != "" {
		q.Set("region", c.region)
	}
	body, err := c.call(ctx, q)
	if err != nil {
		return nil, err
	}
	first := body.Results[0]
	return &Result{
		Location: solar.LatLng{Latitude: first.Geometry.Location.Lat, Longitude: first.Geometry.Location.Lng},
		Address:  first.FormattedAddress,
	}, nil
}

func (c *client) ReverseGeocode(ctx context.Context, location solar.LatLng) (string, error) {
	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%.6f,%.6f", location.Latitude, location.Longitude))
	body, err := c.call(ctx, q)
	if err != nil {
		return "", err
	}
	return body.Results[0].FormattedAddress, nil
}

// call performs one provider request and normalizes the error taxonomy.
// On success the returned response has at least one result.
func (c *client) call(ctx context.Context, q url.Values) (*response, error) {
	q.Set("key", c.apiKey)
	endpoint := c.baseURL + "/json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build geocoding request")
	}

	t0 := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(0, t0, err)
		return nil, errors.Wrap(err, errors.ErrCodeGeocodeFailed, "geocoding request failed")
	}
	defer resp.Body.Close()

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.observe(resp.StatusCode, t0, err)
		return nil, errors.Wrap(err, errors.ErrCodeGeocodeFailed, "failed to decode geocoding response")
	}

	switch {
	case body.Status == "OK" && len(body.Results) > 0:
		c.observe(resp.StatusCode, t0, nil)
		return &body, nil
	case body.Status == "ZERO_RESULTS" || (body.Status == "OK" && len(body.Results) == 0):
		appErr := errors.New(errors.ErrCodeGeocodeNoResult, "no geocoding result").
			WithUpstreamStatus(resp.StatusCode)
		c.observe(resp.StatusCode, t0, appErr)
		return nil, appErr
	case body.Status == "OVER_QUERY_LIMIT":
		appErr := errors.New(errors.ErrCodeGeocodeRateLimited, "geocoding provider rate limited").
			WithDetail(body.ErrorMessage).
			WithUpstreamStatus(resp.StatusCode)
		c.observe(resp.StatusCode, t0, appErr)
		return nil, appErr
	default:
		appErr := errors.New(errors.ErrCodeGeocodeFailed, "geocoding failed").
			WithDetail(body.Status + ": " + body.ErrorMessage).
			WithUpstreamStatus(resp.StatusCode)
		c.observe(resp.StatusCode, t0, appErr)
		return nil, appErr
	}
}

func (c *client) observe(status int, t0 time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveProviderRequest(providerLabel, status, time.Since(t0), err)
}
