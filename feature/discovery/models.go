package discovery

import (
	"math"
	"strings"

	"service-map/core/mapping"
	"service-map/core/sdk"
	"service-map/core/session"

	"github.com/gofiber/fiber/v2"
)

// Provider is one row of the providers table.
type Provider struct {
	ID         string   `gorm:"column:id;primaryKey"`
	Name       string   `gorm:"column:name"`
	Rating     *float64 `gorm:"column:rating"`
	Specialty  string   `gorm:"column:specialty"`
	Latitude   *float64 `gorm:"column:latitude"`
	Longitude  *float64 `gorm:"column:longitude"`
	Price      string   `gorm:"column:price"`
	Distance   string   `gorm:"column:distance"`
	Experience string   `gorm:"column:experience"`
	MediaURL   string   `gorm:"column:media_url"`
	MediaType  string   `gorm:"column:media_type"`
	IsActive   *bool    `gorm:"column:is_active"`
}

// TableName is the default table; the repository can target another one.
func (Provider) TableName() string {
	return "providers"
}

// Entity converts the row. Missing coordinates become NaN so the row is
// never eligible for a marker; a missing active flag counts as active.
func (p Provider) Entity() mapping.Entity {
	e := mapping.Entity{
		ID:         p.ID,
		Name:       p.Name,
		Specialty:  p.Specialty,
		Price:      p.Price,
		Distance:   p.Distance,
		Experience: p.Experience,
		Coordinate: mapping.Coordinate{Latitude: orNaN(p.Latitude), Longitude: orNaN(p.Longitude)},
		Active:     p.IsActive == nil || *p.IsActive,
	}
	if p.Rating != nil {
		e.Rating = *p.Rating
	}
	if p.MediaURL != "" {
		kind := mapping.MediaImage
		if strings.EqualFold(p.MediaType, string(mapping.MediaVideo)) {
			kind = mapping.MediaVideo
		}
		e.Media = &mapping.Media{Kind: kind, URL: p.MediaURL}
	}
	return e
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// SessionStatus describes the map session behind the API.
type SessionStatus struct {
	ID       string            `json:"id"`
	Provider string            `json:"provider"`
	Surface  string            `json:"surface"`
	State    string            `json:"state"`
	Reason   string            `json:"reason,omitempty"`
	Error    string            `json:"error,omitempty"`
	Degraded string            `json:"degraded,omitempty"`
	Markers  int               `json:"markers"`
	Entities int               `json:"entities"`
	Position *mapping.Position `json:"position,omitempty"`
}

func statusOf(s *session.Session) SessionStatus {
	st := SessionStatus{
		ID:       s.ID(),
		Provider: s.Provider(),
		Surface:  s.Surface().ID,
		State:    s.State().String(),
		Markers:  len(s.Markers()),
		Entities: len(s.Entities()),
	}
	if err := s.Err(); err != nil {
		st.Error = err.Error()
		st.Reason = string(sdk.ReasonOf(err))
	}
	if err := s.Degraded(); err != nil {
		st.Degraded = err.Error()
	}
	if p, ok := s.Position(); ok {
		st.Position = &p
	}
	return st
}

// Selection is the response of a marker tap.
type Selection struct {
	Entity mapping.Entity `json:"entity"`
}

func errorBody(err error) fiber.Map {
	return fiber.Map{"error": err.Error()}
}

func sdkFailure(err error) bool {
	return sdk.ReasonOf(err) != ""
}
