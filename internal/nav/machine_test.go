package nav

import (
	"errors"
	"testing"

	"github.com/opsdeck/opsdeck/internal/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	units := []registry.Unit{
		{ID: "A", Label: "Unit A", DefaultOrder: 10, GroupKeys: map[registry.Dimension][]registry.GroupID{
			registry.DimWorkPackage: {"WP4"},
			registry.DimCategory:    {"Monitoring"},
		}},
		{ID: "B", Label: "Unit B", DefaultOrder: 5, GroupKeys: map[registry.Dimension][]registry.GroupID{
			registry.DimWorkPackage: {"WP4"},
		}},
		{ID: "C", Label: "Unit C", DefaultOrder: 1, GroupKeys: map[registry.Dimension][]registry.GroupID{
			registry.DimWorkPackage: {"WP5"},
			registry.DimCategory:    {"Performance"},
		}},
	}
	groups := map[registry.Dimension][]registry.Group{
		registry.DimWorkPackage: {{ID: "WP4"}, {ID: "WP5"}},
		registry.DimCategory:    {{ID: "Monitoring"}, {ID: "Performance"}},
	}
	reg, err := registry.Load(units, groups)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return reg
}

func newMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := NewMachine(testRegistry(t), DefaultModes())
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	return m
}

func TestInitialStateUsesFirstEnabledMode(t *testing.T) {
	m := newMachine(t)
	st := m.State()
	if st.Mode != ModePerWorkPackage {
		t.Fatalf("initial mode = %s", st.Mode)
	}
	if st.SelectedUnit != "" || len(st.SelectedGroup) != 0 {
		t.Fatalf("initial state should have no selections: %+v", st)
	}
}

func TestDisabledModeNeverAssigned(t *testing.T) {
	m := newMachine(t)
	if _, err := m.SetMode(ModeFavorites); !errors.Is(err, ErrModeDisabled) {
		t.Fatalf("expected ErrModeDisabled, got %v", err)
	}
	if _, err := m.SetMode("by_owner"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
	if m.State().Mode != ModePerWorkPackage {
		t.Fatalf("mode changed despite rejection")
	}
}

func TestSelectGroupThenUnit(t *testing.T) {
	m := newMachine(t)
	if _, err := m.SelectGroup(registry.DimWorkPackage, "WP4"); err != nil {
		t.Fatalf("select group: %v", err)
	}
	if _, err := m.SelectUnit("B"); err != nil {
		t.Fatalf("select unit: %v", err)
	}
	if m.SelectedUnit() != "B" || m.SelectedGroup() != "WP4" {
		t.Fatalf("selection mismatch: %+v", m.State())
	}
}

func TestSelectUnitWithoutGroupIsUnreachable(t *testing.T) {
	m := newMachine(t)
	before := m.State()
	if _, err := m.SelectUnit("A"); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
	if !m.State().Equal(before) {
		t.Fatalf("state mutated by unreachable selection")
	}
}

func TestSelectUnitOutsideGroupIsUnreachable(t *testing.T) {
	m := newMachine(t)
	if _, err := m.SelectGroup(registry.DimWorkPackage, "WP4"); err != nil {
		t.Fatalf("select group: %v", err)
	}
	before := m.State()
	if _, err := m.SelectUnit("C"); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
	if !m.State().Equal(before) {
		t.Fatalf("state mutated: %+v", m.State())
	}
}

func TestStrictCategoryUnreachableUnit(t *testing.T) {
	m := newMachine(t)
	if _, err := m.SetMode(ModePerCategory); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if _, err := m.SelectGroup(registry.DimCategory, "Monitoring"); err != nil {
		t.Fatalf("select category: %v", err)
	}
	before := m.State()
	_, err := m.SelectUnit("C") // C is in Performance, not Monitoring
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
	if !m.State().Equal(before) {
		t.Fatalf("state changed on unreachable selection")
	}
}

func TestSelectGroupClearsForeignUnit(t *testing.T) {
	m := newMachine(t)
	_, _ = m.SelectGroup(registry.DimWorkPackage, "WP4")
	_, _ = m.SelectUnit("B")
	if _, err := m.SelectGroup(registry.DimWorkPackage, "WP5"); err != nil {
		t.Fatalf("select group: %v", err)
	}
	if m.SelectedUnit() != "" {
		t.Fatalf("unit should be cleared after leaving its group")
	}
}

func TestSelectGroupWrongDimensionRejected(t *testing.T) {
	m := newMachine(t)
	if _, err := m.SelectGroup(registry.DimCategory, "Monitoring"); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable for foreign dimension, got %v", err)
	}
}

func TestSetModePreservesValidUnitClearsInvalid(t *testing.T) {
	m := newMachine(t)
	_, _ = m.SelectGroup(registry.DimWorkPackage, "WP4")
	_, _ = m.SelectUnit("A")

	// A belongs to Monitoring; with Monitoring selected it survives the switch.
	m.state.SelectedGroup[registry.DimCategory] = "Monitoring"
	if _, err := m.SetMode(ModePerCategory); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if m.SelectedUnit() != "A" {
		t.Fatalf("unit should survive mode switch while still contained")
	}

	// Back to per-wp, pick B (no category), then switch: B is dangling.
	if _, err := m.SetMode(ModePerWorkPackage); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	_, _ = m.SelectUnit("B")
	if _, err := m.SetMode(ModePerCategory); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if m.SelectedUnit() != "" {
		t.Fatalf("unit outside new mode's containment should be cleared")
	}
}

func TestContainmentInvariantHoldsAcrossTransitions(t *testing.T) {
	m := newMachine(t)
	steps := []func(){
		func() { _, _ = m.SelectGroup(registry.DimWorkPackage, "WP4") },
		func() { _, _ = m.SelectUnit("B") },
		func() { _, _ = m.SelectGroup(registry.DimWorkPackage, "WP5") },
		func() { _, _ = m.SelectUnit("C") },
		func() { _, _ = m.SetMode(ModePerCategory) },
		func() { _, _ = m.SelectGroup(registry.DimCategory, "Performance") },
		func() { _, _ = m.SelectUnit("C") },
		func() { _, _ = m.SetMode(ModePerWorkPackage) },
	}
	reg := testRegistry(t)
	for i, step := range steps {
		step()
		st := m.State()
		mode := m.CurrentMode()
		if st.SelectedUnit == "" || !mode.StrictContainment {
			continue
		}
		group := st.SelectedGroup[mode.Dimension]
		u, ok := reg.Unit(st.SelectedUnit)
		if !ok {
			t.Fatalf("step %d: selected unit %q missing from registry", i, st.SelectedUnit)
		}
		if group != "" && !u.MemberOf(mode.Dimension, group) {
			t.Fatalf("step %d: containment violated: %+v", i, st)
		}
	}
}

func TestRestoreValidatesRecord(t *testing.T) {
	m := newMachine(t)

	good := State{
		Mode: ModePerWorkPackage,
		SelectedGroup: map[registry.Dimension]registry.GroupID{
			registry.DimWorkPackage: "WP4",
		},
		SelectedUnit: "A",
	}
	if err := m.Restore(good); err != nil {
		t.Fatalf("restore valid state: %v", err)
	}
	if m.SelectedUnit() != "A" {
		t.Fatalf("restore did not apply")
	}

	cases := []State{
		{Mode: "bogus"},
		{Mode: ModeFavorites},
		{Mode: ModePerWorkPackage, SelectedGroup: map[registry.Dimension]registry.GroupID{registry.DimWorkPackage: "WP9"}},
		{Mode: ModePerWorkPackage, SelectedGroup: map[registry.Dimension]registry.GroupID{registry.DimWorkPackage: "WP4"}, SelectedUnit: "gone"},
		{Mode: ModePerWorkPackage, SelectedGroup: map[registry.Dimension]registry.GroupID{registry.DimWorkPackage: "WP5"}, SelectedUnit: "A"},
	}
	for i, bad := range cases {
		if err := m.Restore(bad); err == nil {
			t.Fatalf("case %d: expected restore rejection for %+v", i, bad)
		}
		if m.SelectedUnit() != "A" {
			t.Fatalf("case %d: failed restore must not disturb state", i)
		}
	}
}

func TestResetReturnsToDefaults(t *testing.T) {
	m := newMachine(t)
	_, _ = m.SelectGroup(registry.DimWorkPackage, "WP4")
	_, _ = m.SelectUnit("A")
	m.Reset()
	st := m.State()
	if st.Mode != ModePerWorkPackage || st.SelectedUnit != "" || len(st.SelectedGroup) != 0 {
		t.Fatalf("reset state = %+v", st)
	}
}

func TestIdempotentTransitionsReportNoChange(t *testing.T) {
	m := newMachine(t)
	changed, err := m.SelectGroup(registry.DimWorkPackage, "WP4")
	if err != nil || !changed {
		t.Fatalf("first select: changed=%v err=%v", changed, err)
	}
	changed, err = m.SelectGroup(registry.DimWorkPackage, "WP4")
	if err != nil || changed {
		t.Fatalf("repeat select should be a silent no-op: changed=%v err=%v", changed, err)
	}
	_, _ = m.SelectUnit("A")
	changed, err = m.SelectUnit("A")
	if err != nil || changed {
		t.Fatalf("repeat unit select should be a silent no-op: changed=%v err=%v", changed, err)
	}
}
