// Package solarapi implements the building-insights provider client.  The
// selection engine never calls this itself; the application layer fetches a
// dataset here and hands it to the registry opaquely.
package solarapi

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

// providerLabel is the metrics label for this provider.
const providerLabel = "solar"

// Client fetches the building-insights dataset closest to a location.
type Client interface {
	FindClosestBuilding(ctx context.Context, location solar.LatLng) (*solar.BuildingInsights, error)
}

// Options carries the construction parameters for NewClient.
type Options struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	RequiredQuality string
}

type client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	quality string
	logger  logging.Logger
	metrics *monprom.Metrics
}

// NewClient constructs a provider client.  metrics may be nil.
func NewClient(opts Options, logger logging.Logger, metrics *monprom.Metrics) Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		quality: opts.RequiredQuality,
		logger:  logger.Named("solarapi"),
		metrics: metrics,
	}
}

// apiError is the provider's error envelope: an HTTP-style status code, a
// short status string, and a human-readable message.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *client) FindClosestBuilding(ctx context.Context, location solar.LatLng) (*solar.BuildingInsights, error) {
	q := url.Values{}
	q.Set("location.latitude", fmt.Sprintf("%.6f", location.Latitude))
	q.Set("location.longitude", fmt.Sprintf("%.6f", location.Longitude))
	if c.quality != "" {
		q.Set("requiredQuality", c.quality)
	}
	q.Set("key", c.apiKey)

	endpoint := c.baseURL + "/buildingInsights:findClosest?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build insights request")
	}

	t0 := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(0, t0, err)
		return nil, errors.Wrap(err, errors.ErrCodeSolarDataUnavailable, "building insights request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		appErr := c.statusError(resp)
		c.observe(resp.StatusCode, t0, appErr)
		c.logger.Warn("provider rejected insights request",
			logging.String("location", location.Key()),
			logging.Int("status", resp.StatusCode),
		)
		return nil, appErr
	}

	var insights solar.BuildingInsights
	if err := json.NewDecoder(resp.Body).Decode(&insights); err != nil {
		c.observe(resp.StatusCode, t0, err)
		return nil, errors.Wrap(err, errors.ErrCodeSolarParseError, "failed to decode insights response")
	}
	c.observe(resp.StatusCode, t0, nil)

	c.logger.Debug("fetched building insights",
		logging.String("location", location.Key()),
		logging.Int("configs", insights.ConfigCount()),
	)
	return &insights, nil
}

// statusError maps a non-200 provider response to an AppError carrying the
// upstream status code, status string, and message.
func (c *client) statusError(resp *http.Response) *errors.AppError {
	var envelope apiError
	_ = json.NewDecoder(resp.Body).Decode(&envelope)

	message := envelope.Error.Message
	if message == "" {
		message = resp.Status
	}

	code := errors.ErrCodeSolarDataUnavailable
	switch resp.StatusCode {
	case http.StatusNotFound:
		code = errors.ErrCodeSolarNoCoverage
	case http.StatusTooManyRequests:
		code = errors.ErrCodeSolarRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		code = errors.ErrCodeSolarAuthFailed
	}

	return errors.New(code, message).
		WithDetail(envelope.Error.Status).
		WithUpstreamStatus(resp.StatusCode)
}

func (c *client) observe(status int, t0 time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveProviderRequest(providerLabel, status, time.Since(t0), err)
}
