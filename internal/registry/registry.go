package registry

import (
	"fmt"
	"sort"
)

// Dimension is a navigation axis units can be grouped on.
type Dimension string

const (
	DimWorkPackage Dimension = "workpackage"
	DimCategory    Dimension = "category"
)

// UnitID uniquely identifies a navigable unit.
type UnitID string

// GroupID identifies a group within a dimension.
type GroupID string

// Unit is a single navigable content entry. Immutable after Load.
type Unit struct {
	ID           UnitID
	Label        string
	GroupKeys    map[Dimension][]GroupID
	DefaultOrder int
	// Seq is the registration sequence, assigned at load time.
	// It is the first tie-break when default orders collide.
	Seq int
}

// MemberOf reports whether the unit belongs to the given group.
func (u Unit) MemberOf(dim Dimension, group GroupID) bool {
	for _, g := range u.GroupKeys[dim] {
		if g == group {
			return true
		}
	}
	return false
}

// Group is a labelled member set on one dimension.
type Group struct {
	ID    GroupID
	Label string
}

// DuplicateUnitIDError indicates two manifests declared the same unit id.
// This is a manifest authoring error and is fatal at startup.
type DuplicateUnitIDError struct {
	ID UnitID
}

func (e DuplicateUnitIDError) Error() string {
	return fmt.Sprintf("registry: duplicate unit id %q", e.ID)
}

// Registry holds the static manifest of every navigable unit.
// Read-only after Load; safe to share across goroutines without locks.
type Registry struct {
	units   map[UnitID]Unit
	order   []UnitID
	groups  map[Dimension][]Group
	members map[Dimension]map[GroupID][]UnitID
}

// Load builds a registry from declared units and group catalogs.
// Units keep their given order as registration sequence.
func Load(units []Unit, groups map[Dimension][]Group) (*Registry, error) {
	r := &Registry{
		units:   make(map[UnitID]Unit, len(units)),
		order:   make([]UnitID, 0, len(units)),
		groups:  make(map[Dimension][]Group, len(groups)),
		members: make(map[Dimension]map[GroupID][]UnitID),
	}
	for dim, gs := range groups {
		r.groups[dim] = append([]Group(nil), gs...)
		r.members[dim] = make(map[GroupID][]UnitID)
	}
	for i, u := range units {
		if _, exists := r.units[u.ID]; exists {
			return nil, DuplicateUnitIDError{ID: u.ID}
		}
		u.Seq = i
		r.units[u.ID] = u
		r.order = append(r.order, u.ID)
		for dim, gids := range u.GroupKeys {
			if r.members[dim] == nil {
				r.members[dim] = make(map[GroupID][]UnitID)
			}
			for _, gid := range gids {
				r.members[dim][gid] = append(r.members[dim][gid], u.ID)
			}
		}
	}
	return r, nil
}

// Unit returns the unit for id.
func (r *Registry) Unit(id UnitID) (Unit, bool) {
	u, ok := r.units[id]
	return u, ok
}

// Units returns all units in registration order.
func (r *Registry) Units() []Unit {
	out := make([]Unit, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.units[id])
	}
	return out
}

// UnitsInGroup returns the member ids of a group. Unknown or empty
// groups yield an empty slice, not an error.
func (r *Registry) UnitsInGroup(dim Dimension, group GroupID) []UnitID {
	byGroup := r.members[dim]
	if byGroup == nil {
		return nil
	}
	return append([]UnitID(nil), byGroup[group]...)
}

// Groups returns the declared groups for a dimension, in catalog order.
func (r *Registry) Groups(dim Dimension) []Group {
	return append([]Group(nil), r.groups[dim]...)
}

// HasGroup reports whether a group is declared on a dimension.
func (r *Registry) HasGroup(dim Dimension, group GroupID) bool {
	for _, g := range r.groups[dim] {
		if g.ID == group {
			return true
		}
	}
	return false
}

// GroupLabel returns the display label for a group, falling back to its id.
func (r *Registry) GroupLabel(dim Dimension, group GroupID) string {
	for _, g := range r.groups[dim] {
		if g.ID == group {
			return g.Label
		}
	}
	return string(group)
}

// Dimensions returns the dimensions with declared groups, sorted for
// deterministic iteration.
func (r *Registry) Dimensions() []Dimension {
	out := make([]Dimension, 0, len(r.groups))
	for dim := range r.groups {
		out = append(out, dim)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
