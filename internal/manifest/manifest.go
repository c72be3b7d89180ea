// Package manifest loads the declarative unit and group catalogs the
// registry is built from. Each navigable unit ships one YAML manifest;
// a groups.yaml file declares the work-package and category catalogs
// plus contextual order overrides.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opsdeck/opsdeck/internal/ordering"
	"github.com/opsdeck/opsdeck/internal/registry"
)

// GroupsFile is the reserved catalog file name inside the manifest dir.
const GroupsFile = "groups.yaml"

// UnitManifest is one unit's static declaration.
type UnitManifest struct {
	ID           string   `yaml:"id"`
	Label        string   `yaml:"label"`
	WorkPackages []string `yaml:"workpackages"`
	Categories   []string `yaml:"categories"`
	Order        int      `yaml:"order"`
}

type groupEntry struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

type overrideEntry struct {
	Dimension string `yaml:"dimension"`
	Group     string `yaml:"group"`
	Unit      string `yaml:"unit"`
	Order     int    `yaml:"order"`
}

type groupsCatalog struct {
	WorkPackages   []groupEntry    `yaml:"workpackages"`
	Categories     []groupEntry    `yaml:"categories"`
	OrderOverrides []overrideEntry `yaml:"order_overrides"`
}

// Bundle is the fully parsed manifest set, ready for registry.Load and
// the order resolver.
type Bundle struct {
	Units  []registry.Unit
	Groups map[registry.Dimension][]registry.Group
	Rules  []ordering.Rule
}

// ParseUnitYAML decodes and validates a single unit manifest payload.
func ParseUnitYAML(data []byte) (UnitManifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return UnitManifest{}, fmt.Errorf("manifest: unit payload is empty")
	}
	var m UnitManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return UnitManifest{}, fmt.Errorf("manifest: decode unit: %w", err)
	}
	if err := m.validate(); err != nil {
		return UnitManifest{}, err
	}
	return m, nil
}

func (m UnitManifest) validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("manifest: unit id is required")
	}
	if strings.TrimSpace(m.Label) == "" {
		return fmt.Errorf("manifest: unit %q: label is required", m.ID)
	}
	return nil
}

func (m UnitManifest) toUnit() registry.Unit {
	keys := make(map[registry.Dimension][]registry.GroupID)
	for _, wp := range m.WorkPackages {
		keys[registry.DimWorkPackage] = append(keys[registry.DimWorkPackage], registry.GroupID(wp))
	}
	for _, c := range m.Categories {
		keys[registry.DimCategory] = append(keys[registry.DimCategory], registry.GroupID(c))
	}
	return registry.Unit{
		ID:           registry.UnitID(m.ID),
		Label:        m.Label,
		GroupKeys:    keys,
		DefaultOrder: m.Order,
	}
}

// LoadDir reads every *.yaml unit manifest in dir plus the groups
// catalog. Files are walked in lexical order so registration sequence
// is reproducible across runs. Malformed files are fatal with the
// offending path in the error.
func LoadDir(dir string) (Bundle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Bundle{}, fmt.Errorf("manifest: read %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var bundle Bundle
	bundle.Groups = make(map[registry.Dimension][]registry.Group)
	sawCatalog := false

	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return Bundle{}, fmt.Errorf("manifest: read %s: %w", path, err)
		}
		if name == GroupsFile {
			catalog, err := parseCatalog(data)
			if err != nil {
				return Bundle{}, fmt.Errorf("manifest: %s: %w", path, err)
			}
			applyCatalog(&bundle, catalog)
			sawCatalog = true
			continue
		}
		unit, err := ParseUnitYAML(data)
		if err != nil {
			return Bundle{}, fmt.Errorf("manifest: %s: %w", path, err)
		}
		bundle.Units = append(bundle.Units, unit.toUnit())
	}

	if !sawCatalog {
		// No explicit catalog: derive groups from unit membership so a
		// bare manifest directory still navigates.
		applyCatalog(&bundle, deriveCatalog(bundle.Units))
	}
	return bundle, nil
}

func parseCatalog(data []byte) (groupsCatalog, error) {
	var c groupsCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return groupsCatalog{}, fmt.Errorf("decode groups catalog: %w", err)
	}
	for i, g := range c.WorkPackages {
		if strings.TrimSpace(g.ID) == "" {
			return groupsCatalog{}, fmt.Errorf("workpackages[%d]: id is required", i)
		}
	}
	for i, g := range c.Categories {
		if strings.TrimSpace(g.ID) == "" {
			return groupsCatalog{}, fmt.Errorf("categories[%d]: id is required", i)
		}
	}
	for i, o := range c.OrderOverrides {
		if strings.TrimSpace(o.Unit) == "" {
			return groupsCatalog{}, fmt.Errorf("order_overrides[%d]: unit is required", i)
		}
		if o.Group != "" && o.Dimension == "" {
			return groupsCatalog{}, fmt.Errorf("order_overrides[%d]: group-scoped override needs a dimension", i)
		}
	}
	return c, nil
}

func applyCatalog(bundle *Bundle, catalog groupsCatalog) {
	for _, g := range catalog.WorkPackages {
		bundle.Groups[registry.DimWorkPackage] = append(bundle.Groups[registry.DimWorkPackage],
			registry.Group{ID: registry.GroupID(g.ID), Label: labelOr(g.Title, g.ID)})
	}
	for _, g := range catalog.Categories {
		bundle.Groups[registry.DimCategory] = append(bundle.Groups[registry.DimCategory],
			registry.Group{ID: registry.GroupID(g.ID), Label: labelOr(g.Title, g.ID)})
	}
	for _, o := range catalog.OrderOverrides {
		bundle.Rules = append(bundle.Rules, ordering.Rule{
			Scope:     ordering.ScopeContextual,
			Dimension: registry.Dimension(o.Dimension),
			GroupID:   registry.GroupID(o.Group),
			UnitID:    registry.UnitID(o.Unit),
			Order:     o.Order,
		})
	}
}

func deriveCatalog(units []registry.Unit) groupsCatalog {
	var c groupsCatalog
	seenWP := map[registry.GroupID]bool{}
	seenCat := map[registry.GroupID]bool{}
	for _, u := range units {
		for _, g := range u.GroupKeys[registry.DimWorkPackage] {
			if !seenWP[g] {
				seenWP[g] = true
				c.WorkPackages = append(c.WorkPackages, groupEntry{ID: string(g)})
			}
		}
		for _, g := range u.GroupKeys[registry.DimCategory] {
			if !seenCat[g] {
				seenCat[g] = true
				c.Categories = append(c.Categories, groupEntry{ID: string(g)})
			}
		}
	}
	return c
}

func labelOr(label, fallback string) string {
	if strings.TrimSpace(label) == "" {
		return fallback
	}
	return label
}
