package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// Provider selects the map provider variant (mapkit, leaflet).
	Provider string `mapstructure:"provider" default:"leaflet"`
}

const (
	ProviderMapKit  = "mapkit"
	ProviderLeaflet = "leaflet"
)

// IsValidProvider checks if the configured provider is supported.
func (c Config) IsValidProvider() bool {
	switch c.Provider {
	case ProviderMapKit, ProviderLeaflet:
		return true
	default:
		return false
	}
}
