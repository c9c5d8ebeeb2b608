package mapping

import (
	"math"
	"time"
)

// SelfID is the marker key reserved for the viewer's own position.
const SelfID = "self"

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate is finite and within WGS84 bounds.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	if math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// MediaKind distinguishes still images from short looping videos.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Media is an optional picture or clip attached to a provider.
type Media struct {
	Kind MediaKind `json:"kind"`
	URL  string    `json:"url"`
}

// Entity is a service provider as supplied by the snapshot or the live feed.
// Identity is the ID; every other field may be replaced by an update.
type Entity struct {
	// ID is the stable, unique provider identifier.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Rating is the average review score.
	Rating float64 `json:"rating"`
	// Specialty is the service category label.
	Specialty string `json:"specialty"`
	// Coordinate is the provider location.
	Coordinate Coordinate `json:"coordinate"`
	// Price is a preformatted price label.
	Price string `json:"price"`
	// Distance is a preformatted distance label.
	Distance string `json:"distance"`
	// Experience is a preformatted experience label.
	Experience string `json:"experience"`
	// Media is the optional image or video reference.
	Media *Media `json:"media,omitempty"`
	// Active marks the provider as currently available.
	Active bool `json:"active"`
}

// Position is a one-shot fix of the viewer's location.
type Position struct {
	Coordinate Coordinate `json:"coordinate"`
	// Accuracy is the horizontal accuracy radius in meters, if known.
	Accuracy   *float64  `json:"accuracy,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// Operation is the kind of change carried by a Delta.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Delta is a single normalized change from the live feed.
// Entity is set for inserts and updates; ID is always set.
type Delta struct {
	Op     Operation
	ID     string
	Entity *Entity
}

// Surface identifies the rendering area a map is bound to.
type Surface struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// MarkerSpec is the provider-independent description of one marker.
type MarkerSpec struct {
	ID         string
	Coordinate Coordinate
	Title      string
	Subtitle   string
	Media      *Media
	Self       bool
}

// MarkerForEntity builds the marker description for a provider.
func MarkerForEntity(e Entity) MarkerSpec {
	return MarkerSpec{
		ID:         e.ID,
		Coordinate: e.Coordinate,
		Title:      e.Name,
		Subtitle:   e.Specialty,
		Media:      e.Media,
	}
}

// MarkerForSelf builds the marker description for the viewer.
func MarkerForSelf(p Position) MarkerSpec {
	return MarkerSpec{
		ID:         SelfID,
		Coordinate: p.Coordinate,
		Title:      "You",
		Self:       true,
	}
}

// MarkerHandle pairs a marker key with the provider's native marker reference.
// Handles live only inside a session's marker arena.
type MarkerHandle struct {
	// ID is the entity id or SelfID.
	ID string
	// Native is the opaque provider-specific marker reference.
	Native any
	// OnSelect is the tap callback registered with the native marker.
	OnSelect func()
}
