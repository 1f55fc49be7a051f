package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// BuildingsClient provides access to the building-selection endpoints.
type BuildingsClient struct {
	client *Client
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Building is one selected building as returned by the API.
type Building struct {
	ID                string  `json:"id"`
	Nickname          string  `json:"nickname"`
	Address           string  `json:"address"`
	Location          LatLng  `json:"location"`
	ConfigIndex       int     `json:"configIndex"`
	ConfigCount       int     `json:"configCount"`
	PanelsCount       int     `json:"panelsCount"`
	YearlyEnergyDcKwh float64 `json:"yearlyEnergyDcKwh"`
	MaxArrayPanels    int     `json:"maxArrayPanels"`
	IsActive          bool    `json:"isActive"`
}

// AddResult is the outcome of a selection attempt.
type AddResult struct {
	Building        *Building `json:"building"`
	AlreadySelected bool      `json:"alreadySelected"`
}

// ListResult is the response of the list endpoint.
type ListResult struct {
	Buildings []*Building `json:"buildings"`
	Total     int         `json:"total"`
}

// Summary is the aggregated result across the active selection.
type Summary struct {
	PanelCapacityRatio         float64     `json:"panelCapacityRatio"`
	DcToAcDerate               float64     `json:"dcToAcDerate"`
	TotalPanels                int         `json:"totalPanels"`
	TotalYearlyEnergyAcKwh     float64     `json:"totalYearlyEnergyAcKwh"`
	TotalMaxArrayPanels        int         `json:"totalMaxArrayPanels"`
	TotalMaxArrayAreaMeters2   float64     `json:"totalMaxArrayAreaMeters2"`
	TotalRoofAreaMeters2       float64     `json:"totalRoofAreaMeters2"`
	TotalCarbonOffsetKgPerYear float64     `json:"totalCarbonOffsetKgPerYear"`
	TotalAreaMeters2           float64     `json:"totalAreaMeters2"`
	AveragePanelCapacityWatts  float64     `json:"averagePanelCapacityWatts"`
	Buildings                  []*Building `json:"buildings"`
}

// SummaryOptions tunes the aggregation.
type SummaryOptions struct {
	// PanelCapacityWatts scales the dataset wattage to a chosen panel
	// model; 0 uses the dataset defaults.
	PanelCapacityWatts float64

	// DcToAcDerate overrides the server-side derate when positive.
	DcToAcDerate float64
}

// List returns all selected buildings in selection order.
func (bc *BuildingsClient) List(ctx context.Context) (*ListResult, error) {
	var result ListResult
	if err := bc.client.get(ctx, "/api/v1/buildings", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Add selects a building by map location.
func (bc *BuildingsClient) Add(ctx context.Context, location LatLng, nickname string) (*AddResult, error) {
	body := map[string]interface{}{
		"latitude":  location.Latitude,
		"longitude": location.Longitude,
	}
	if nickname != "" {
		body["nickname"] = nickname
	}
	var result AddResult
	if err := bc.client.post(ctx, "/api/v1/buildings", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddByAddress selects a building by a free-form address query.
func (bc *BuildingsClient) AddByAddress(ctx context.Context, address string) (*AddResult, error) {
	var result AddResult
	if err := bc.client.post(ctx, "/api/v1/buildings", map[string]string{"address": address}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get returns a single building by ID.
func (bc *BuildingsClient) Get(ctx context.Context, id string) (*Building, error) {
	var result Building
	if err := bc.client.get(ctx, "/api/v1/buildings/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Remove deselects a building.
func (bc *BuildingsClient) Remove(ctx context.Context, id string) error {
	return bc.client.delete(ctx, "/api/v1/buildings/"+url.PathEscape(id))
}

// SetConfig selects a panel configuration for a building.
func (bc *BuildingsClient) SetConfig(ctx context.Context, id string, configIndex int) (*Building, error) {
	var result Building
	path := fmt.Sprintf("/api/v1/buildings/%s/config", url.PathEscape(id))
	if err := bc.client.patch(ctx, path, map[string]int{"configIndex": configIndex}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetNickname renames a building.
func (bc *BuildingsClient) SetNickname(ctx context.Context, id, nickname string) (*Building, error) {
	var result Building
	path := fmt.Sprintf("/api/v1/buildings/%s/nickname", url.PathEscape(id))
	if err := bc.client.patch(ctx, path, map[string]string{"nickname": nickname}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ToggleActive flips a building's aggregation membership.
func (bc *BuildingsClient) ToggleActive(ctx context.Context, id string) (*Building, error) {
	var result Building
	path := fmt.Sprintf("/api/v1/buildings/%s/toggle", url.PathEscape(id))
	if err := bc.client.post(ctx, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Match reports which selected building covers the given map location.
// When nothing matches the returned error is an *APIError with IsNotFound.
func (bc *BuildingsClient) Match(ctx context.Context, location LatLng) (*Building, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(location.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(location.Longitude, 'f', -1, 64))
	var result Building
	if err := bc.client.get(ctx, "/api/v1/buildings/match?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSummary returns the aggregated metrics across the active selection.
func (bc *BuildingsClient) GetSummary(ctx context.Context, opts *SummaryOptions) (*Summary, error) {
	path := "/api/v1/buildings/summary"
	if opts != nil {
		q := url.Values{}
		if opts.PanelCapacityWatts > 0 {
			q.Set("panelCapacityWatts", strconv.FormatFloat(opts.PanelCapacityWatts, 'f', -1, 64))
		}
		if opts.DcToAcDerate > 0 {
			q.Set("dcToAcDerate", strconv.FormatFloat(opts.DcToAcDerate, 'f', -1, 64))
		}
		if len(q) > 0 {
			path += "?" + q.Encode()
		}
	}
	var result Summary
	if err := bc.client.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Clear removes every selected building.
func (bc *BuildingsClient) Clear(ctx context.Context) error {
	return bc.client.delete(ctx, "/api/v1/buildings")
}
