// Package config defines all configuration structures for the
// solar-potential service.  No I/O or parsing logic lives here, only plain
// data types and validation; loading is in loader.go.
package config

import (
	"fmt"
	"time"

	"github.com/KlotzJesse/solar-potential/internal/infrastructure/monitoring/logging"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// SolarConfig holds building-insights provider parameters.
type SolarConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RequiredQuality string        `mapstructure:"required_quality"` // "HIGH" | "MEDIUM" | "LOW"
}

// GeocodingConfig holds geocoding provider parameters.
type GeocodingConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	Region  string        `mapstructure:"region"`
}

// RedisConfig holds connection parameters for the insights cache.  When
// Addr is empty the service falls back to an in-process cache.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
}

// SelectionConfig holds the building-selection engine parameters the
// delivery layers pass through to the application service.
type SelectionConfig struct {
	// ProximityThresholdDegrees is the deduplication radius in planar
	// degrees used when a new location is selected.
	ProximityThresholdDegrees float64 `mapstructure:"proximity_threshold_degrees"`

	// DcToAcDerate converts DC yield estimates to expected AC output.
	DcToAcDerate float64 `mapstructure:"dc_to_ac_derate"`

	// DefaultPanelCapacityWatts is the wattage assumed for summaries when
	// the caller does not choose a panel model.
	DefaultPanelCapacityWatts float64 `mapstructure:"default_panel_capacity_watts"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config is the root configuration for both binaries.
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Log       logging.LogConfig `mapstructure:"log"`
	Solar     SolarConfig       `mapstructure:"solar"`
	Geocoding GeocodingConfig   `mapstructure:"geocoding"`
	Redis     RedisConfig       `mapstructure:"redis"`
	Selection SelectionConfig   `mapstructure:"selection"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
}

// Validate checks cross-field consistency.  Defaults must be applied first.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	if c.Solar.BaseURL == "" {
		return fmt.Errorf("solar.base_url must not be empty")
	}
	if c.Geocoding.BaseURL == "" {
		return fmt.Errorf("geocoding.base_url must not be empty")
	}
	if c.Selection.ProximityThresholdDegrees <= 0 {
		return fmt.Errorf("selection.proximity_threshold_degrees must be positive, got %g", c.Selection.ProximityThresholdDegrees)
	}
	if c.Selection.DcToAcDerate <= 0 || c.Selection.DcToAcDerate > 1 {
		return fmt.Errorf("selection.dc_to_ac_derate must be in (0, 1], got %g", c.Selection.DcToAcDerate)
	}
	if c.Selection.DefaultPanelCapacityWatts <= 0 {
		return fmt.Errorf("selection.default_panel_capacity_watts must be positive, got %g", c.Selection.DefaultPanelCapacityWatts)
	}
	return nil
}
