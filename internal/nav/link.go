package nav

import (
	"github.com/opsdeck/opsdeck/internal/registry"
)

// ActionKind classifies the outcome of a symbolic link resolution.
type ActionKind int

const (
	// ActionNone means the link was inert: unknown target, or the mode
	// policy forbids reaching it from here. No state changed.
	ActionNone ActionKind = iota
	// ActionSelectUnit means the unit was selected inside the current group.
	ActionSelectUnit
	// ActionSwitchGroup means the group context changed to reach the unit.
	ActionSwitchGroup
)

// Action describes what a link resolution did.
type Action struct {
	Kind  ActionKind
	Unit  registry.UnitID
	Group registry.GroupID
}

// OpenUnit resolves a symbolic "open unit" request into concrete
// transitions, applying the active mode's policy. Every mutation goes
// through SelectGroup/SelectUnit — the same code path as direct
// interaction — so a link can never partially apply: the group switch
// is attempted first and the unit selection is validated before either
// is committed.
func (m *Machine) OpenUnit(target registry.UnitID) Action {
	u, ok := m.reg.Unit(target)
	if !ok {
		return Action{Kind: ActionNone}
	}
	mode := m.CurrentMode()
	group := m.state.SelectedGroup[mode.Dimension]

	inGroup := group != "" && u.MemberOf(mode.Dimension, group)
	if inGroup || !mode.StrictContainment {
		if _, err := m.SelectUnit(target); err != nil {
			return Action{Kind: ActionNone}
		}
		return Action{Kind: ActionSelectUnit, Unit: target}
	}

	if !mode.AllowCrossGroupLinks {
		return Action{Kind: ActionNone}
	}
	home := firstGroupOf(u, mode.Dimension)
	if home == "" || !m.reg.HasGroup(mode.Dimension, home) {
		return Action{Kind: ActionNone}
	}
	prev := m.state.Clone()
	if _, err := m.SelectGroup(mode.Dimension, home); err != nil {
		return Action{Kind: ActionNone}
	}
	if _, err := m.SelectUnit(target); err != nil {
		// Roll the group switch back; links apply fully or not at all.
		m.state = prev
		return Action{Kind: ActionNone}
	}
	return Action{Kind: ActionSwitchGroup, Unit: target, Group: home}
}

func firstGroupOf(u registry.Unit, dim registry.Dimension) registry.GroupID {
	groups := u.GroupKeys[dim]
	if len(groups) == 0 {
		return ""
	}
	return groups[0]
}
