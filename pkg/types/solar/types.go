// Package solar defines the value objects exchanged with the solar-data
// provider and carried opaquely through the selection engine.  Field names
// and JSON tags mirror the provider wire format so that the same structs
// serve the provider client, the insights cache codec, and the HTTP API.
package solar

import "fmt"

// LatLng is a geographic coordinate pair in degrees.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Key returns the coordinate pair fixed to 6 decimal digits, the canonical
// precision used for entry identity and cache keys (~0.11 m at the equator).
func (l LatLng) Key() string {
	return fmt.Sprintf("%.6f,%.6f", l.Latitude, l.Longitude)
}

// SolarPanelConfig is one panel-count/yield option for a roof.  The provider
// returns configs ordered by ascending yearly energy yield.
type SolarPanelConfig struct {
	PanelsCount       int     `json:"panelsCount"`
	YearlyEnergyDcKwh float64 `json:"yearlyEnergyDcKwh"`
}

// SizeAndSunshineStats summarises a roof surface.
type SizeAndSunshineStats struct {
	AreaMeters2       float64 `json:"areaMeters2"`
	GroundAreaMeters2 float64 `json:"groundAreaMeters2,omitempty"`
}

// SolarPotential carries the roof-level solar figures for a building.
type SolarPotential struct {
	MaxArrayPanelsCount        int                  `json:"maxArrayPanelsCount"`
	MaxArrayAreaMeters2        float64              `json:"maxArrayAreaMeters2"`
	PanelCapacityWatts         float64              `json:"panelCapacityWatts"`
	PanelHeightMeters          float64              `json:"panelHeightMeters,omitempty"`
	PanelWidthMeters           float64              `json:"panelWidthMeters,omitempty"`
	PanelLifetimeYears         int                  `json:"panelLifetimeYears,omitempty"`
	CarbonOffsetFactorKgPerMwh float64              `json:"carbonOffsetFactorKgPerMwh"`
	WholeRoofStats             SizeAndSunshineStats `json:"wholeRoofStats"`
	SolarPanelConfigs          []SolarPanelConfig   `json:"solarPanelConfigs"`
}

// BuildingInsights is the provider dataset for one building.  The selection
// engine stores it opaquely; only the aggregation path reads the figures.
type BuildingInsights struct {
	Name               string         `json:"name,omitempty"`
	Center             LatLng         `json:"center"`
	ImageryQuality     string         `json:"imageryQuality,omitempty"`
	ImageryDate        *Date          `json:"imageryDate,omitempty"`
	PostalCode         string         `json:"postalCode,omitempty"`
	AdministrativeArea string         `json:"administrativeArea,omitempty"`
	RegionCode         string         `json:"regionCode,omitempty"`
	SolarPotential     SolarPotential `json:"solarPotential"`
}

// Date is a calendar date as the provider encodes it.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// ConfigCount returns the number of panel configurations available.
func (b *BuildingInsights) ConfigCount() int {
	if b == nil {
		return 0
	}
	return len(b.SolarPotential.SolarPanelConfigs)
}
