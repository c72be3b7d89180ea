package nav

import (
	"errors"
	"fmt"

	"github.com/opsdeck/opsdeck/internal/registry"
)

var (
	// ErrUnreachable reports a selection that is not valid under the
	// current mode and containment policy. The state is left unchanged.
	ErrUnreachable = errors.New("nav: target not reachable under current mode")

	// ErrModeDisabled reports an attempt to enter a configured but
	// disabled mode.
	ErrModeDisabled = errors.New("nav: mode is disabled")

	// ErrUnknownMode reports a mode id outside the allow-list.
	ErrUnknownMode = errors.New("nav: unknown mode")
)

// State is the single mutable root of navigation. Only the Machine
// mutates it; everyone else reads copies.
type State struct {
	Mode          ModeID
	SelectedGroup map[registry.Dimension]registry.GroupID
	SelectedUnit  registry.UnitID
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.SelectedGroup = make(map[registry.Dimension]registry.GroupID, len(s.SelectedGroup))
	for k, v := range s.SelectedGroup {
		out.SelectedGroup[k] = v
	}
	return out
}

// Equal reports whether two states are identical.
func (s State) Equal(other State) bool {
	if s.Mode != other.Mode || s.SelectedUnit != other.SelectedUnit {
		return false
	}
	if len(s.SelectedGroup) != len(other.SelectedGroup) {
		return false
	}
	for k, v := range s.SelectedGroup {
		if other.SelectedGroup[k] != v {
			return false
		}
	}
	return true
}

// Machine owns the navigation state and is its only mutator. The
// execution model is single-threaded and event-driven; call discipline,
// not locks, guards the state.
type Machine struct {
	reg   *registry.Registry
	modes []Mode
	byID  map[ModeID]Mode
	state State
}

// NewMachine builds a machine over the registry and mode allow-list,
// starting from the default initial state: first enabled mode, nothing
// selected.
func NewMachine(reg *registry.Registry, modes []Mode) (*Machine, error) {
	byID := make(map[ModeID]Mode, len(modes))
	var first *Mode
	for i, m := range modes {
		if _, dup := byID[m.ID]; dup {
			return nil, fmt.Errorf("nav: mode %q declared twice", m.ID)
		}
		byID[m.ID] = m
		if first == nil && m.Enabled {
			first = &modes[i]
		}
	}
	if first == nil {
		return nil, errors.New("nav: no enabled modes")
	}
	mach := &Machine{reg: reg, modes: modes, byID: byID}
	mach.state = State{
		Mode:          first.ID,
		SelectedGroup: make(map[registry.Dimension]registry.GroupID),
	}
	return mach, nil
}

// State returns a copy of the current navigation state.
func (m *Machine) State() State {
	return m.state.Clone()
}

// CurrentMode returns the active mode declaration.
func (m *Machine) CurrentMode() Mode {
	return m.byID[m.state.Mode]
}

// Modes returns the full allow-list, enabled and disabled.
func (m *Machine) Modes() []Mode {
	return append([]Mode(nil), m.modes...)
}

// SelectedGroup returns the group selected on the active mode's dimension.
func (m *Machine) SelectedGroup() registry.GroupID {
	return m.state.SelectedGroup[m.CurrentMode().Dimension]
}

// SelectedUnit returns the currently selected unit, empty when none.
func (m *Machine) SelectedUnit() registry.UnitID {
	return m.state.SelectedUnit
}

// SetMode transitions to another enabled mode. The selected unit is
// preserved only while it stays valid under the new mode's containment
// policy, otherwise cleared. Returns true when the state changed.
func (m *Machine) SetMode(id ModeID) (bool, error) {
	mode, ok := m.byID[id]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownMode, id)
	}
	if !mode.Enabled {
		return false, fmt.Errorf("%w: %q", ErrModeDisabled, id)
	}
	if m.state.Mode == id {
		return false, nil
	}
	m.state.Mode = id
	if m.state.SelectedUnit != "" && !m.unitValid(mode, m.state.SelectedUnit) {
		m.state.SelectedUnit = ""
	}
	return true, nil
}

// SelectGroup selects a group on the active mode's dimension. A
// dimension the active mode does not own, or an undeclared group, is
// unreachable and leaves the state untouched. A previously selected
// unit that falls outside the new group is cleared under strict
// containment.
func (m *Machine) SelectGroup(dim registry.Dimension, group registry.GroupID) (bool, error) {
	mode := m.CurrentMode()
	if dim != mode.Dimension {
		return false, fmt.Errorf("%w: dimension %q not owned by mode %q", ErrUnreachable, dim, mode.ID)
	}
	if !m.reg.HasGroup(dim, group) {
		return false, fmt.Errorf("%w: group %q not declared on %q", ErrUnreachable, group, dim)
	}
	if m.state.SelectedGroup[dim] == group {
		return false, nil
	}
	m.state.SelectedGroup[dim] = group
	if m.state.SelectedUnit != "" && mode.StrictContainment {
		if u, ok := m.reg.Unit(m.state.SelectedUnit); !ok || !u.MemberOf(dim, group) {
			m.state.SelectedUnit = ""
		}
	}
	return true, nil
}

// SelectUnit selects a unit reachable under the current mode and group.
// An unreachable unit is a no-op that reports ErrUnreachable rather
// than mutating state.
func (m *Machine) SelectUnit(id registry.UnitID) (bool, error) {
	mode := m.CurrentMode()
	u, ok := m.reg.Unit(id)
	if !ok {
		return false, fmt.Errorf("%w: unknown unit %q", ErrUnreachable, id)
	}
	if mode.RequiresGroup {
		group := m.state.SelectedGroup[mode.Dimension]
		if group == "" {
			return false, fmt.Errorf("%w: mode %q needs a selected %s", ErrUnreachable, mode.ID, mode.Dimension)
		}
		if mode.StrictContainment && !u.MemberOf(mode.Dimension, group) {
			return false, fmt.Errorf("%w: unit %q not in %s %q", ErrUnreachable, id, mode.Dimension, group)
		}
	}
	if m.state.SelectedUnit == id {
		return false, nil
	}
	m.state.SelectedUnit = id
	return true, nil
}

// Restore replaces the state wholesale after validating every
// reference. Used when loading persisted state; any invalid piece
// rejects the whole record so the caller can fall back to defaults.
func (m *Machine) Restore(s State) error {
	mode, ok := m.byID[s.Mode]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMode, s.Mode)
	}
	if !mode.Enabled {
		return fmt.Errorf("%w: %q", ErrModeDisabled, s.Mode)
	}
	for dim, group := range s.SelectedGroup {
		if group == "" {
			continue
		}
		if !m.reg.HasGroup(dim, group) {
			return fmt.Errorf("%w: group %q not declared on %q", ErrUnreachable, group, dim)
		}
	}
	if s.SelectedUnit != "" {
		u, ok := m.reg.Unit(s.SelectedUnit)
		if !ok {
			return fmt.Errorf("%w: unknown unit %q", ErrUnreachable, s.SelectedUnit)
		}
		if mode.StrictContainment {
			group := s.SelectedGroup[mode.Dimension]
			if group == "" && mode.RequiresGroup {
				return fmt.Errorf("%w: unit without %s selection", ErrUnreachable, mode.Dimension)
			}
			if group != "" && !u.MemberOf(mode.Dimension, group) {
				return fmt.Errorf("%w: unit %q not in %s %q", ErrUnreachable, s.SelectedUnit, mode.Dimension, group)
			}
		}
	}
	restored := s.Clone()
	if restored.SelectedGroup == nil {
		restored.SelectedGroup = make(map[registry.Dimension]registry.GroupID)
	}
	m.state = restored
	return nil
}

// Reset returns the machine to the default initial state.
func (m *Machine) Reset() {
	for _, mode := range m.modes {
		if mode.Enabled {
			m.state = State{
				Mode:          mode.ID,
				SelectedGroup: make(map[registry.Dimension]registry.GroupID),
			}
			return
		}
	}
}

func (m *Machine) unitValid(mode Mode, id registry.UnitID) bool {
	u, ok := m.reg.Unit(id)
	if !ok {
		return false
	}
	if !mode.StrictContainment {
		return true
	}
	group := m.state.SelectedGroup[mode.Dimension]
	if group == "" {
		return !mode.RequiresGroup
	}
	return u.MemberOf(mode.Dimension, group)
}
