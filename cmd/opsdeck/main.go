package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opsdeck/opsdeck/internal/config"
	"github.com/opsdeck/opsdeck/internal/logging"
	"github.com/opsdeck/opsdeck/internal/manifest"
	"github.com/opsdeck/opsdeck/internal/nav"
	"github.com/opsdeck/opsdeck/internal/ordering"
	"github.com/opsdeck/opsdeck/internal/registry"
	"github.com/opsdeck/opsdeck/internal/store"
	"github.com/opsdeck/opsdeck/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, closeLog, err := logging.New(cfg.UI.LogDir)
	if err != nil {
		log.Printf("warn: logging disabled: %v", err)
		logger = logging.Discard()
	} else {
		defer closeLog.Close()
	}

	bundle, err := manifest.LoadDir(cfg.Manifest.Dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("manifests: %v", err)
		}
		// No manifest directory yet: run on the built-in demo set so a
		// fresh install still has something to navigate.
		logger.Info("manifest dir missing, using built-in units", "dir", cfg.Manifest.Dir)
		bundle = builtinBundle()
	}

	reg, err := registry.Load(bundle.Units, bundle.Groups)
	if err != nil {
		log.Fatalf("registry: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}
	if err := store.RunMigrations(cfg.Database.Path, cfg.Database.MigrationsPath); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	states := store.NewStateRepo(db)
	overrides := store.NewOverrideRepo(db)

	rules := bundle.Rules
	if userRules, err := overrides.List(ctx); err != nil {
		logger.Warn("load user order overrides", "err", err)
	} else {
		rules = append(rules, userRules...)
	}
	resolver := ordering.NewResolver(reg, rules)

	machine, err := nav.NewMachine(reg, nav.DefaultModes())
	if err != nil {
		log.Fatalf("navigation: %v", err)
	}
	restoreState(ctx, machine, states, logger)

	app := tui.New(ctx, cfg, tui.Deps{
		Registry:  reg,
		Machine:   machine,
		Resolver:  resolver,
		States:    states,
		Overrides: overrides,
		Logger:    logger,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

// restoreState loads the persisted navigation record and applies it when
// every reference it holds is still valid. Any failure, including a
// schema version mismatch, falls back to the default initial state.
func restoreState(ctx context.Context, machine *nav.Machine, states *store.StateRepo, logger *slog.Logger) {
	state, ok, err := states.Load(ctx)
	if err != nil {
		logger.Warn("discarding persisted navigation state", "err", err)
		return
	}
	if !ok {
		return
	}
	if err := machine.Restore(state); err != nil {
		logger.Warn("persisted navigation state no longer valid", "err", err)
		return
	}
	logger.Info("restored navigation state", "mode", string(state.Mode))
}

// builtinBundle is the demo catalog used when no manifests exist.
func builtinBundle() manifest.Bundle {
	wp := func(gs ...registry.GroupID) []registry.GroupID { return gs }
	units := []registry.Unit{
		{ID: "deploy-console", Label: "Deploy Console", GroupKeys: map[registry.Dimension][]registry.GroupID{
			registry.DimWorkPackage: wp("wp-platform"),
			registry.DimCategory:    wp("cat-operations"),
		}},
		{ID: "log-explorer", Label: "Log Explorer", GroupKeys: map[registry.Dimension][]registry.GroupID{
			registry.DimWorkPackage: wp("wp-platform"),
			registry.DimCategory:    wp("cat-observability"),
		}},
		{ID: "alert-center", Label: "Alert Center", GroupKeys: map[registry.Dimension][]registry.GroupID{
			registry.DimWorkPackage: wp("wp-reliability"),
			registry.DimCategory:    wp("cat-observability"),
		}},
		{ID: "runbook-viewer", Label: "Runbook Viewer", GroupKeys: map[registry.Dimension][]registry.GroupID{
			registry.DimWorkPackage: wp("wp-reliability"),
			registry.DimCategory:    wp("cat-operations"),
		}},
	}
	groups := map[registry.Dimension][]registry.Group{
		registry.DimWorkPackage: {
			{ID: "wp-platform", Label: "Platform"},
			{ID: "wp-reliability", Label: "Reliability"},
		},
		registry.DimCategory: {
			{ID: "cat-operations", Label: "Operations"},
			{ID: "cat-observability", Label: "Observability"},
		},
	}
	return manifest.Bundle{Units: units, Groups: groups}
}
