package config

import (
	"time"

	"github.com/KlotzJesse/solar-potential/internal/domain/building"
)

// Default endpoints point at the public provider APIs; deployments override
// them (and must supply API keys) via file or environment.
const (
	defaultSolarBaseURL     = "https://solar.googleapis.com/v1"
	defaultGeocodingBaseURL = "https://maps.googleapis.com/maps/api/geocode"
)

// ApplyDefaults fills every unset field of cfg with the service defaults.
// It never overwrites a value the operator has chosen.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.Solar.BaseURL == "" {
		cfg.Solar.BaseURL = defaultSolarBaseURL
	}
	if cfg.Solar.Timeout == 0 {
		cfg.Solar.Timeout = 10 * time.Second
	}
	if cfg.Solar.RequiredQuality == "" {
		cfg.Solar.RequiredQuality = "HIGH"
	}

	if cfg.Geocoding.BaseURL == "" {
		cfg.Geocoding.BaseURL = defaultGeocodingBaseURL
	}
	if cfg.Geocoding.Timeout == 0 {
		cfg.Geocoding.Timeout = 10 * time.Second
	}

	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "solar:insights:"
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 24 * time.Hour
	}

	if cfg.Selection.ProximityThresholdDegrees == 0 {
		cfg.Selection.ProximityThresholdDegrees = building.ProximityThresholdDegrees
	}
	if cfg.Selection.DcToAcDerate == 0 {
		cfg.Selection.DcToAcDerate = building.DefaultDcToAcDerate
	}
	if cfg.Selection.DefaultPanelCapacityWatts == 0 {
		cfg.Selection.DefaultPanelCapacityWatts = 250
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// NewDefaultConfig returns a Config populated entirely from defaults.
// Intended for main() fallbacks and tests.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Metrics.Enabled = true
	return cfg
}
