package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/internal/ordering"
	"github.com/opsdeck/opsdeck/internal/registry"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDirParsesUnitsAndCatalog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "groups.yaml", `
workpackages:
  - id: WP4
    title: Monitoring and Diagnostics
  - id: WP5
categories:
  - id: Monitoring
order_overrides:
  - dimension: workpackage
    group: WP4
    unit: svc_lifecycle
    order: 1
  - unit: svc_timeline
    order: 5
`)
	writeFile(t, dir, "svc_lifecycle.yaml", `
id: svc_lifecycle
label: Lifecycle
workpackages: [WP4]
categories: [Monitoring]
order: 40
`)
	writeFile(t, dir, "svc_timeline.yaml", `
id: svc_timeline
label: Timeline
workpackages: [WP4, WP5]
order: 20
`)
	writeFile(t, dir, "notes.txt", "ignored")

	bundle, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, bundle.Units, 2)
	require.Equal(t, registry.UnitID("svc_lifecycle"), bundle.Units[0].ID)
	require.Equal(t, "Monitoring and Diagnostics", bundle.Groups[registry.DimWorkPackage][0].Label)
	require.Equal(t, "WP5", bundle.Groups[registry.DimWorkPackage][1].Label)

	require.Len(t, bundle.Rules, 2)
	require.Equal(t, ordering.ScopeContextual, bundle.Rules[0].Scope)
	require.Equal(t, registry.GroupID("WP4"), bundle.Rules[0].GroupID)
	require.Empty(t, bundle.Rules[1].GroupID) // global contextual override

	reg, err := registry.Load(bundle.Units, bundle.Groups)
	require.NoError(t, err)
	require.Equal(t, []registry.UnitID{"svc_lifecycle", "svc_timeline"}, reg.UnitsInGroup(registry.DimWorkPackage, "WP4"))
}

func TestLoadDirDerivesGroupsWithoutCatalog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "id: a\nlabel: A\nworkpackages: [WP3]\n")
	writeFile(t, dir, "b.yaml", "id: b\nlabel: B\ncategories: [Ops]\n")

	bundle, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, bundle.Groups[registry.DimWorkPackage], 1)
	require.Len(t, bundle.Groups[registry.DimCategory], 1)
	require.Equal(t, registry.GroupID("WP3"), bundle.Groups[registry.DimWorkPackage][0].ID)
}

func TestLoadDirRejectsMissingID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "label: No ID\n")

	_, err := LoadDir(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad.yaml")
	require.Contains(t, err.Error(), "id is required")
}

func TestLoadDirRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "id: [unterminated\n")

	_, err := LoadDir(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken.yaml")
}

func TestLoadDirRejectsGroupOverrideWithoutDimension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "groups.yaml", `
order_overrides:
  - group: WP4
    unit: svc_x
    order: 2
`)
	_, err := LoadDir(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "needs a dimension")
}

func TestParseUnitYAMLEmptyPayload(t *testing.T) {
	_, err := ParseUnitYAML([]byte("  \n"))
	require.Error(t, err)
}
