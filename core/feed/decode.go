package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"service-map/core/mapping"
	"service-map/core/utils"
)

var (
	// ErrSkip marks a change that is well formed but not meant for this subscriber.
	ErrSkip = errors.New("change skipped")
	// ErrMalformed marks a change that cannot be decoded.
	ErrMalformed = errors.New("malformed change")
)

// envelope is the postgres-changes document emitted by database triggers and
// realtime gateways.
type envelope struct {
	Type      string         `json:"type"`
	EventType string         `json:"eventType"`
	Table     string         `json:"table"`
	Record    map[string]any `json:"record"`
	New       map[string]any `json:"new"`
	OldRecord map[string]any `json:"old_record"`
	Old       map[string]any `json:"old"`
}

// Decode turns a raw change into a delta. Changes for another table than
// filter.Table return ErrSkip.
func Decode(c Change, filter Filter) (mapping.Delta, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(c.Payload))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return mapping.Delta{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if filter.Table != "" && env.Table != "" && env.Table != filter.Table {
		return mapping.Delta{}, ErrSkip
	}

	opName := c.Op
	if opName == "" {
		opName = env.Type
	}
	if opName == "" {
		opName = env.EventType
	}

	record := env.Record
	if record == nil {
		record = env.New
	}
	old := env.OldRecord
	if old == nil {
		old = env.Old
	}

	switch strings.ToUpper(opName) {
	case "INSERT", "UPDATE":
		if record == nil {
			return mapping.Delta{}, fmt.Errorf("%w: %s without record", ErrMalformed, opName)
		}
		e := entityFromRecord(record)
		if e.ID == "" {
			return mapping.Delta{}, fmt.Errorf("%w: record without id", ErrMalformed)
		}
		op := mapping.OpInsert
		if strings.EqualFold(opName, "UPDATE") {
			op = mapping.OpUpdate
		}
		return mapping.Delta{Op: op, ID: e.ID, Entity: &e}, nil

	case "DELETE":
		src := old
		if src == nil {
			src = record
		}
		id := utils.ToString(src["id"])
		if id == "" {
			return mapping.Delta{}, fmt.Errorf("%w: delete without id", ErrMalformed)
		}
		return mapping.Delta{Op: mapping.OpDelete, ID: id}, nil

	default:
		return mapping.Delta{}, fmt.Errorf("%w: unknown operation %q", ErrMalformed, opName)
	}
}

// entityFromRecord maps a provider row onto an entity.
func entityFromRecord(r map[string]any) mapping.Entity {
	e := mapping.Entity{
		ID:         utils.ToString(r["id"]),
		Name:       utils.ToString(r["name"]),
		Specialty:  utils.ToString(r["specialty"]),
		Price:      utils.ToString(r["price"]),
		Distance:   utils.ToString(r["distance"]),
		Experience: utils.ToString(r["experience"]),
		Coordinate: mapping.Coordinate{
			Latitude:  utils.ToFloat(r["latitude"]),
			Longitude: utils.ToFloat(r["longitude"]),
		},
		Active: true,
	}

	if rating := utils.ToFloat(r["rating"]); !math.IsNaN(rating) {
		e.Rating = rating
	}
	if v, ok := r["is_active"]; ok && v != nil {
		e.Active = utils.ToBool(v)
	}
	if url := utils.ToString(r["media_url"]); url != "" {
		e.Media = &mapping.Media{Kind: mediaKind(utils.ToString(r["media_type"]), url), URL: url}
	}
	return e
}

func mediaKind(declared, url string) mapping.MediaKind {
	switch strings.ToLower(declared) {
	case "video":
		return mapping.MediaVideo
	case "image":
		return mapping.MediaImage
	}
	lower := strings.ToLower(url)
	for _, ext := range []string{".mp4", ".webm", ".mov", ".m4v"} {
		if strings.HasSuffix(lower, ext) {
			return mapping.MediaVideo
		}
	}
	return mapping.MediaImage
}
