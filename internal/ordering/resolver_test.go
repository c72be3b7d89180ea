package ordering

import (
	"reflect"
	"testing"

	"github.com/opsdeck/opsdeck/internal/registry"
)

func buildRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	units := []registry.Unit{
		{ID: "A", Label: "Unit A", DefaultOrder: 10, GroupKeys: map[registry.Dimension][]registry.GroupID{
			registry.DimWorkPackage: {"WP4"},
		}},
		{ID: "B", Label: "Unit B", DefaultOrder: 5, GroupKeys: map[registry.Dimension][]registry.GroupID{
			registry.DimWorkPackage: {"WP4"},
		}},
		{ID: "C", Label: "Unit C", DefaultOrder: 1, GroupKeys: map[registry.Dimension][]registry.GroupID{
			registry.DimWorkPackage: {"WP5"},
		}},
	}
	groups := map[registry.Dimension][]registry.Group{
		registry.DimWorkPackage: {{ID: "WP4"}, {ID: "WP5"}},
	}
	reg, err := registry.Load(units, groups)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return reg
}

func TestDefaultOrderWithinGroup(t *testing.T) {
	r := NewResolver(buildRegistry(t), nil)
	got := r.Resolve(registry.DimWorkPackage, "WP4")
	want := []registry.UnitID{"B", "A"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("resolve WP4 = %v, want %v", got, want)
	}
}

func TestContextualOverrideReorders(t *testing.T) {
	r := NewResolver(buildRegistry(t), []Rule{
		{Scope: ScopeContextual, Dimension: registry.DimWorkPackage, GroupID: "WP4", UnitID: "A", Order: 1},
	})
	got := r.Resolve(registry.DimWorkPackage, "WP4")
	want := []registry.UnitID{"A", "B"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("resolve WP4 = %v, want %v", got, want)
	}
}

func TestUserOverrideBeatsContextual(t *testing.T) {
	r := NewResolver(buildRegistry(t), []Rule{
		{Scope: ScopeContextual, Dimension: registry.DimWorkPackage, GroupID: "WP4", UnitID: "A", Order: 1},
		{Scope: ScopeUser, Dimension: registry.DimWorkPackage, GroupID: "WP4", UnitID: "A", Order: 99},
	})
	got := r.Resolve(registry.DimWorkPackage, "WP4")
	want := []registry.UnitID{"B", "A"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("resolve WP4 = %v, want %v", got, want)
	}
	r.RemoveUserRule(registry.DimWorkPackage, "WP4", "A")
	got = r.Resolve(registry.DimWorkPackage, "WP4")
	want = []registry.UnitID{"A", "B"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("after removing user rule = %v, want %v", got, want)
	}
}

func TestGlobalContextualAppliesWithoutGroupRule(t *testing.T) {
	r := NewResolver(buildRegistry(t), []Rule{
		{Scope: ScopeContextual, UnitID: "A", Order: 2},
	})
	got := r.Resolve(registry.DimWorkPackage, "WP4")
	want := []registry.UnitID{"A", "B"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("resolve WP4 = %v, want %v", got, want)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	r := NewResolver(buildRegistry(t), []Rule{
		{Scope: ScopeContextual, Dimension: registry.DimWorkPackage, GroupID: "WP4", UnitID: "A", Order: 1},
	})
	first := r.Resolve(registry.DimWorkPackage, "WP4")
	second := r.Resolve(registry.DimWorkPackage, "WP4")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("resolver not idempotent: %v vs %v", first, second)
	}
}

func TestTieBreaksByRegistrationThenID(t *testing.T) {
	units := []registry.Unit{
		{ID: "z", DefaultOrder: 7, GroupKeys: map[registry.Dimension][]registry.GroupID{registry.DimCategory: {"Ops"}}},
		{ID: "a", DefaultOrder: 7, GroupKeys: map[registry.Dimension][]registry.GroupID{registry.DimCategory: {"Ops"}}},
	}
	reg, err := registry.Load(units, map[registry.Dimension][]registry.Group{
		registry.DimCategory: {{ID: "Ops"}},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r := NewResolver(reg, nil)
	got := r.Resolve(registry.DimCategory, "Ops")
	want := []registry.UnitID{"z", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tie-break should follow registration order: %v", got)
	}
}

func TestResolveAllUnitsWhenGroupUnrestricted(t *testing.T) {
	r := NewResolver(buildRegistry(t), nil)
	got := r.Resolve(registry.DimWorkPackage, "")
	want := []registry.UnitID{"C", "B", "A"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unrestricted resolve = %v, want %v", got, want)
	}
}
