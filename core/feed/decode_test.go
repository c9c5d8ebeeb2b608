package feed_test

import (
	"math"
	"testing"

	"service-map/core/feed"
	"service-map/core/mapping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	filter := feed.Filter{Table: "providers", RequireActive: true}

	t.Run("Insert", func(t *testing.T) {
		d, err := feed.Decode(feed.Change{Payload: []byte(`{
			"type": "INSERT",
			"table": "providers",
			"record": {
				"id": 17,
				"name": "Lucía",
				"rating": "4.8",
				"specialty": "Electrician",
				"latitude": 40.41,
				"longitude": "-3.70",
				"price": "25 €/h",
				"distance": "1.2 km",
				"experience": "8 years",
				"media_url": "https://cdn.example.com/lucia.mp4",
				"is_active": true
			}
		}`)}, filter)
		require.NoError(t, err)

		assert.Equal(t, mapping.OpInsert, d.Op)
		assert.Equal(t, "17", d.ID)
		require.NotNil(t, d.Entity)
		assert.Equal(t, "Lucía", d.Entity.Name)
		assert.Equal(t, 4.8, d.Entity.Rating)
		assert.Equal(t, mapping.Coordinate{Latitude: 40.41, Longitude: -3.70}, d.Entity.Coordinate)
		assert.Equal(t, "25 €/h", d.Entity.Price)
		require.NotNil(t, d.Entity.Media)
		assert.Equal(t, mapping.MediaVideo, d.Entity.Media.Kind)
		assert.True(t, d.Entity.Active)
	})

	t.Run("UpdateWithChangePayloadKeys", func(t *testing.T) {
		d, err := feed.Decode(feed.Change{Payload: []byte(`{
			"eventType": "UPDATE",
			"new": {"id": "b", "latitude": 1, "longitude": 5, "is_active": "false", "media_url": "a.png"}
		}`)}, filter)
		require.NoError(t, err)

		assert.Equal(t, mapping.OpUpdate, d.Op)
		assert.False(t, d.Entity.Active)
		assert.Equal(t, mapping.MediaImage, d.Entity.Media.Kind)
	})

	t.Run("TransportOperationWins", func(t *testing.T) {
		d, err := feed.Decode(feed.Change{Op: "delete", Payload: []byte(`{"record": {"id": "x"}}`)}, filter)
		require.NoError(t, err)
		assert.Equal(t, mapping.Delta{Op: mapping.OpDelete, ID: "x"}, d)
	})

	t.Run("Delete", func(t *testing.T) {
		d, err := feed.Decode(feed.Change{Payload: []byte(`{"type":"DELETE","table":"providers","old_record":{"id":"a"}}`)}, filter)
		require.NoError(t, err)
		assert.Equal(t, mapping.Delta{Op: mapping.OpDelete, ID: "a"}, d)
	})

	t.Run("MissingCoordinatesAreInvalid", func(t *testing.T) {
		d, err := feed.Decode(feed.Change{Payload: []byte(`{"type":"INSERT","record":{"id":"a","latitude":null}}`)}, filter)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(d.Entity.Coordinate.Latitude))
		assert.False(t, d.Entity.Coordinate.Valid())
	})

	t.Run("OtherTableIsSkipped", func(t *testing.T) {
		_, err := feed.Decode(feed.Change{Payload: []byte(`{"type":"INSERT","table":"reviews","record":{"id":"a"}}`)}, filter)
		assert.ErrorIs(t, err, feed.ErrSkip)
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, payload := range []string{
			`not json`,
			`{"type":"TRUNCATE"}`,
			`{"type":"INSERT"}`,
			`{"type":"INSERT","record":{"name":"no id"}}`,
			`{"type":"DELETE","old_record":{}}`,
		} {
			_, err := feed.Decode(feed.Change{Payload: []byte(payload)}, filter)
			assert.ErrorIs(t, err, feed.ErrMalformed, payload)
		}
	})
}

func TestFilter(t *testing.T) {
	filter := feed.Filter{RequireActive: true}
	active := mapping.Entity{ID: "a", Coordinate: mapping.Coordinate{Latitude: 1, Longitude: 1}, Active: true}
	inactive := active
	inactive.Active = false
	nowhere := active
	nowhere.Coordinate.Latitude = math.NaN()

	assert.True(t, filter.Eligible(active))
	assert.False(t, filter.Eligible(inactive))
	assert.False(t, filter.Eligible(nowhere))
	assert.True(t, feed.Filter{}.Eligible(inactive))

	t.Run("IneligibleUpdateBecomesDelete", func(t *testing.T) {
		d := filter.Normalize(mapping.Delta{Op: mapping.OpUpdate, ID: "a", Entity: &inactive})
		assert.Equal(t, mapping.Delta{Op: mapping.OpDelete, ID: "a"}, d)
	})

	t.Run("EligibleInsertPasses", func(t *testing.T) {
		d := filter.Normalize(mapping.Delta{Op: mapping.OpInsert, ID: "a", Entity: &active})
		assert.Equal(t, mapping.OpInsert, d.Op)
	})

	t.Run("Select", func(t *testing.T) {
		assert.Equal(t, []mapping.Entity{active}, filter.Select([]mapping.Entity{inactive, active, nowhere}))
	})
}

func TestStore(t *testing.T) {
	s := feed.NewStore()
	s.Seed([]mapping.Entity{{ID: "c"}, {ID: "a"}, {ID: "b"}})
	assert.Equal(t, 3, s.Len())

	moved := mapping.Entity{ID: "b", Coordinate: mapping.Coordinate{Latitude: 1, Longitude: 5}}
	assert.True(t, s.Apply(mapping.Delta{Op: mapping.OpUpdate, ID: "b", Entity: &moved}))
	assert.True(t, s.Apply(mapping.Delta{Op: mapping.OpDelete, ID: "a"}))
	assert.False(t, s.Apply(mapping.Delta{Op: mapping.OpDelete, ID: "a"}))
	assert.False(t, s.Apply(mapping.Delta{Op: mapping.OpInsert, ID: "z"}))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "b", snap[0].ID)
	assert.Equal(t, 5.0, snap[0].Coordinate.Longitude)
	assert.Equal(t, "c", snap[1].ID)

	got, ok := s.Get("b")
	assert.True(t, ok)
	assert.Equal(t, moved, got)
}
