package reconcile

import (
	"math"
	"testing"

	"service-map/core/mapping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entity(id string, lat, lng float64) mapping.Entity {
	return mapping.Entity{
		ID:         id,
		Name:       "Provider " + id,
		Coordinate: mapping.Coordinate{Latitude: lat, Longitude: lng},
		Active:     true,
	}
}

func TestBuildPlan(t *testing.T) {
	t.Run("SymmetricDifferenceInOrder", func(t *testing.T) {
		plan := BuildPlan([]string{"d", "a", "b"}, Target{Entities: []mapping.Entity{
			entity("c", 0, 0),
			entity("b", 1, 1),
			entity("e", 2, 2),
		}})

		require.Len(t, plan.Actions, 4)
		assert.Equal(t, Action{Type: ActionRemoveMarker, Key: "a", Reason: "not in target"}, plan.Actions[0])
		assert.Equal(t, ActionRemoveMarker, plan.Actions[1].Type)
		assert.Equal(t, "d", plan.Actions[1].Key)
		assert.Equal(t, ActionAddMarker, plan.Actions[2].Type)
		assert.Equal(t, "c", plan.Actions[2].Key)
		assert.Equal(t, "Provider c", plan.Actions[2].Marker.Title)
		assert.Equal(t, "e", plan.Actions[3].Key)

		assert.Equal(t, PlanSummary{Current: 3, Target: 3, Adds: 2, Removes: 2, Kept: 1}, plan.Summary)
	})

	t.Run("RegionCoversEntitiesOnly", func(t *testing.T) {
		self := &mapping.Position{Coordinate: mapping.Coordinate{Latitude: 9, Longitude: 9}}
		plan := BuildPlan(nil, Target{
			Entities: []mapping.Entity{entity("b", 1, 1), entity("a", 0, 0)},
			Self:     self,
		})

		assert.Equal(t, []mapping.Coordinate{{Latitude: 0, Longitude: 0}, {Latitude: 1, Longitude: 1}}, plan.Region)
		require.NotNil(t, plan.Self)
		assert.Equal(t, self.Coordinate, plan.Self.Coordinate)
		assert.Equal(t, 3, plan.Summary.Target)
		assert.Equal(t, mapping.SelfID, plan.Actions[2].Key)
		assert.True(t, plan.Actions[2].Marker.Self)
	})

	t.Run("SkipsUnplaceableEntities", func(t *testing.T) {
		plan := BuildPlan(nil, Target{Entities: []mapping.Entity{
			entity("", 0, 0),
			entity(mapping.SelfID, 0, 0),
			entity("nan", math.NaN(), 0),
			entity("ok", 0, 0),
		}})

		require.Len(t, plan.Actions, 1)
		assert.Equal(t, "ok", plan.Actions[0].Key)
	})

	t.Run("DuplicateIDsCollapse", func(t *testing.T) {
		plan := BuildPlan(nil, Target{Entities: []mapping.Entity{entity("a", 0, 0), entity("a", 5, 5)}})

		require.Len(t, plan.Actions, 1)
		assert.Equal(t, 5.0, plan.Actions[0].Marker.Coordinate.Latitude)
	})

	t.Run("NoChanges", func(t *testing.T) {
		plan := BuildPlan([]string{"a"}, Target{Entities: []mapping.Entity{entity("a", 3, 3)}})

		assert.Empty(t, plan.Actions)
		assert.Equal(t, 1, plan.Summary.Kept)
		assert.Nil(t, plan.Self)
	})
}
