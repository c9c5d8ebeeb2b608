package mapping

// Config holds map surface and viewport settings.
type Config struct {
	// Surface is the identifier of the rendering surface.
	Surface string `mapstructure:"surface" default:"main"`
	// Width is the viewport width in pixels.
	Width int `mapstructure:"viewport_width" default:"390"`
	// Height is the viewport height in pixels.
	Height int `mapstructure:"viewport_height" default:"844"`
	// CenterLat is the initial center latitude hint.
	CenterLat float64 `mapstructure:"center_lat" default:"40.4168"`
	// CenterLng is the initial center longitude hint.
	CenterLng float64 `mapstructure:"center_lng" default:"-3.7038"`
	// Padding is the proportional padding applied around fitted regions.
	Padding float64 `mapstructure:"padding" default:"0.2"`
	// MinSpan is the minimum region span in degrees.
	MinSpan float64 `mapstructure:"min_span" default:"0.01"`
	// SelfZoom is the zoom level used when centering on the viewer alone.
	SelfZoom float64 `mapstructure:"self_zoom" default:"14"`
}

// SurfaceSpec returns the surface described by the configuration.
func (c Config) SurfaceSpec() Surface {
	return Surface{ID: c.Surface, Width: c.Width, Height: c.Height}
}

// Center returns the configured center hint.
func (c Config) Center() Coordinate {
	return Coordinate{Latitude: c.CenterLat, Longitude: c.CenterLng}
}
