package reconcile

import (
	"sort"

	"service-map/core/mapping"
)

// BuildPlan computes the symmetric difference between the current marker keys
// and the target. Keys present on both sides produce no action, even when
// the entity's attributes changed.
func BuildPlan(current []string, target Target) *Plan {
	want := make(map[string]mapping.MarkerSpec, len(target.Entities)+1)
	for _, e := range target.Entities {
		if e.ID == "" || e.ID == mapping.SelfID || !e.Coordinate.Valid() {
			continue
		}
		// Later duplicates replace earlier ones.
		want[e.ID] = mapping.MarkerForEntity(e)
	}

	entityKeys := sortedKeys(want)
	region := make([]mapping.Coordinate, 0, len(entityKeys))
	for _, key := range entityKeys {
		region = append(region, want[key].Coordinate)
	}

	if target.Self != nil && target.Self.Coordinate.Valid() {
		want[mapping.SelfID] = mapping.MarkerForSelf(*target.Self)
	}

	have := make(map[string]struct{}, len(current))
	for _, key := range current {
		have[key] = struct{}{}
	}

	var removes, adds []string
	for key := range have {
		if _, ok := want[key]; !ok {
			removes = append(removes, key)
		}
	}
	for key := range want {
		if _, ok := have[key]; !ok {
			adds = append(adds, key)
		}
	}
	sort.Strings(removes)
	sort.Strings(adds)

	actions := make([]Action, 0, len(removes)+len(adds))
	for _, key := range removes {
		actions = append(actions, Action{
			Type:   ActionRemoveMarker,
			Key:    key,
			Reason: "not in target",
		})
	}
	for _, key := range adds {
		actions = append(actions, Action{
			Type:   ActionAddMarker,
			Key:    key,
			Reason: "missing on map",
			Marker: want[key],
		})
	}

	plan := &Plan{
		Actions: actions,
		Region:  region,
		Summary: PlanSummary{
			Current: len(have),
			Target:  len(want),
			Adds:    len(adds),
			Removes: len(removes),
			Kept:    len(have) - len(removes),
		},
	}
	if _, ok := want[mapping.SelfID]; ok {
		self := *target.Self
		plan.Self = &self
	}
	return plan
}

func sortedKeys(m map[string]mapping.MarkerSpec) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
