package ordering

import (
	"sort"

	"github.com/opsdeck/opsdeck/internal/registry"
)

// Scope names the override layer a rule belongs to.
type Scope string

const (
	ScopeDefault    Scope = "default"
	ScopeContextual Scope = "contextual"
	ScopeUser       Scope = "user"
)

// Rule is a layered order override. Contextual rules with an empty
// GroupID apply globally to the unit on every group of the dimension.
type Rule struct {
	Scope     Scope
	Dimension registry.Dimension
	GroupID   registry.GroupID
	UnitID    registry.UnitID
	Order     int
}

type ruleKey struct {
	dim   registry.Dimension
	group registry.GroupID
	unit  registry.UnitID
}

// Resolver computes the effective display order of units for a
// navigation context. Pure and side-effect-free: identical inputs
// always yield identical ordered lists.
type Resolver struct {
	reg        *registry.Registry
	user       map[ruleKey]int
	contextual map[ruleKey]int
	global     map[registry.UnitID]int
}

// NewResolver builds a resolver over the registry and override rules.
// Default-scope rules are ignored; defaults come from the units themselves.
func NewResolver(reg *registry.Registry, rules []Rule) *Resolver {
	r := &Resolver{
		reg:        reg,
		user:       make(map[ruleKey]int),
		contextual: make(map[ruleKey]int),
		global:     make(map[registry.UnitID]int),
	}
	r.AddRules(rules)
	return r
}

// AddRules merges additional rules into the resolver. Later rules on the
// same key replace earlier ones.
func (r *Resolver) AddRules(rules []Rule) {
	for _, rule := range rules {
		switch rule.Scope {
		case ScopeUser:
			r.user[ruleKey{rule.Dimension, rule.GroupID, rule.UnitID}] = rule.Order
		case ScopeContextual:
			if rule.GroupID == "" {
				r.global[rule.UnitID] = rule.Order
			} else {
				r.contextual[ruleKey{rule.Dimension, rule.GroupID, rule.UnitID}] = rule.Order
			}
		}
	}
}

// RemoveUserRule drops a user-layer override, restoring the layers below.
func (r *Resolver) RemoveUserRule(dim registry.Dimension, group registry.GroupID, unit registry.UnitID) {
	delete(r.user, ruleKey{dim, group, unit})
}

// EffectiveOrder resolves the order value for one unit in a context,
// checking layers in strict priority.
func (r *Resolver) EffectiveOrder(dim registry.Dimension, group registry.GroupID, unit registry.Unit) (int, Scope) {
	if v, ok := r.user[ruleKey{dim, group, unit.ID}]; ok {
		return v, ScopeUser
	}
	if v, ok := r.contextual[ruleKey{dim, group, unit.ID}]; ok {
		return v, ScopeContextual
	}
	if v, ok := r.global[unit.ID]; ok {
		return v, ScopeContextual
	}
	return unit.DefaultOrder, ScopeDefault
}

// Resolve returns the member units of (dim, group) sorted by effective
// order. An empty group id means no group restriction: all units of the
// registry are candidates. Ties break by registration sequence, then
// lexical id.
func (r *Resolver) Resolve(dim registry.Dimension, group registry.GroupID) []registry.UnitID {
	var candidates []registry.Unit
	if group == "" {
		candidates = r.reg.Units()
	} else {
		for _, id := range r.reg.UnitsInGroup(dim, group) {
			if u, ok := r.reg.Unit(id); ok {
				candidates = append(candidates, u)
			}
		}
	}

	type ranked struct {
		unit  registry.Unit
		order int
	}
	rows := make([]ranked, 0, len(candidates))
	for _, u := range candidates {
		order, _ := r.EffectiveOrder(dim, group, u)
		rows = append(rows, ranked{unit: u, order: order})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].order != rows[j].order {
			return rows[i].order < rows[j].order
		}
		if rows[i].unit.Seq != rows[j].unit.Seq {
			return rows[i].unit.Seq < rows[j].unit.Seq
		}
		return rows[i].unit.ID < rows[j].unit.ID
	})

	out := make([]registry.UnitID, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.unit.ID)
	}
	return out
}

// UserRules returns the current user-layer overrides, ordered
// deterministically for persistence.
func (r *Resolver) UserRules() []Rule {
	out := make([]Rule, 0, len(r.user))
	for k, v := range r.user {
		out = append(out, Rule{Scope: ScopeUser, Dimension: k.dim, GroupID: k.group, UnitID: k.unit, Order: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dimension != out[j].Dimension {
			return out[i].Dimension < out[j].Dimension
		}
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].UnitID < out[j].UnitID
	})
	return out
}
