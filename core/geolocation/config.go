package geolocation

import (
	"time"

	"service-map/core/mapping"
)

// Config holds settings for position requests and the fixed-position locator.
type Config struct {
	// Enabled turns position requests on; disabled sources report Unsupported.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Latitude is the fixed latitude served by the static locator.
	Latitude float64 `mapstructure:"lat" default:"40.4168"`
	// Longitude is the fixed longitude served by the static locator.
	Longitude float64 `mapstructure:"lng" default:"-3.7038"`
	// Accuracy is the reported accuracy radius in meters. Zero means unknown.
	Accuracy float64 `mapstructure:"accuracy" default:"25"`
	// HighAccuracy requests the most precise fix available.
	HighAccuracy bool `mapstructure:"high_accuracy" default:"true"`
	// TimeoutMs bounds a single request.
	TimeoutMs int `mapstructure:"timeout_ms" default:"10000"`
	// MaxCacheAgeMs is how old a cached fix may be and still be returned.
	MaxCacheAgeMs int `mapstructure:"max_cache_age_ms" default:"60000"`
}

// Options returns the request options described by the configuration.
func (c Config) Options() Options {
	return Options{
		HighAccuracy: c.HighAccuracy,
		Timeout:      time.Duration(c.TimeoutMs) * time.Millisecond,
		MaxCacheAge:  time.Duration(c.MaxCacheAgeMs) * time.Millisecond,
	}
}

// Locator returns the configured fixed-position locator, or nil when disabled.
func (c Config) Locator() Locator {
	if !c.Enabled {
		return nil
	}
	loc := StaticLocator{
		Coordinate: mapping.Coordinate{Latitude: c.Latitude, Longitude: c.Longitude},
	}
	if c.Accuracy > 0 {
		acc := c.Accuracy
		loc.Accuracy = &acc
	}
	return loc
}
