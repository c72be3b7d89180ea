package nav

import "github.com/opsdeck/opsdeck/internal/registry"

// ModeID names a navigation paradigm.
type ModeID string

const (
	ModePerWorkPackage ModeID = "per_wp"
	ModePerCategory    ModeID = "per_category"
	ModePerFunction    ModeID = "per_function"
	ModeFavorites      ModeID = "favorites"
)

// Mode declares one navigation paradigm and its containment policy.
// Disabled modes may exist in configuration but are never assignable.
type Mode struct {
	ID      ModeID
	Label   string
	Enabled bool

	// Dimension is the grouping axis the mode navigates on.
	Dimension registry.Dimension
	// RequiresGroup means unit selection needs a group selected first.
	RequiresGroup bool
	// StrictContainment means the selected unit must belong to the
	// selected group of the mode's dimension.
	StrictContainment bool
	// AllowCrossGroupLinks permits a symbolic link to switch the
	// selected group when its target lives elsewhere. When false the
	// link is inert outside the current group.
	AllowCrossGroupLinks bool
}

// DefaultModes is the console's mode allow-list. New modes are added
// here without touching transition logic.
func DefaultModes() []Mode {
	return []Mode{
		{
			ID:                   ModePerWorkPackage,
			Label:                "Per Work Package",
			Enabled:              true,
			Dimension:            registry.DimWorkPackage,
			RequiresGroup:        true,
			StrictContainment:    true,
			AllowCrossGroupLinks: true,
		},
		{
			ID:                ModePerCategory,
			Label:             "Per Category",
			Enabled:           true,
			Dimension:         registry.DimCategory,
			RequiresGroup:     true,
			StrictContainment: true,
			// Strict per-category browsing: only currently visible
			// units are reachable, links never teleport.
			AllowCrossGroupLinks: false,
		},
		{ID: ModePerFunction, Label: "Per Function", Enabled: false, Dimension: "function"},
		{ID: ModeFavorites, Label: "Favorites", Enabled: false, Dimension: "favorite"},
	}
}
