// Package tui renders the operator console shell: the work-package and
// tool bars, the orchestrator mode panel, and a placeholder content
// pane. The shell owns no navigation state; it reads the machine and
// proposes transitions through its operations.
package tui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/opsdeck/opsdeck/internal/config"
	"github.com/opsdeck/opsdeck/internal/logging"
	"github.com/opsdeck/opsdeck/internal/nav"
	"github.com/opsdeck/opsdeck/internal/ordering"
	"github.com/opsdeck/opsdeck/internal/registry"
	"github.com/opsdeck/opsdeck/internal/store"
)

// LinkRequestMsg asks the shell to open a unit symbolically, the way an
// inline reference inside content would.
type LinkRequestMsg struct {
	Target registry.UnitID
}

// App ties the orchestration core to the terminal shell.
type App struct {
	ctx       context.Context
	cfg       config.Config
	reg       *registry.Registry
	machine   *nav.Machine
	resolver  *ordering.Resolver
	states    *store.StateRepo
	overrides *store.OverrideRepo
	logger    *slog.Logger

	keys      *KeyRegistry
	sessionID string
	width     int
	height    int
	status    string
	clock     int64
	quitting  bool

	orch orchestratorPanel
}

// Deps carries the wired collaborators into the shell.
type Deps struct {
	Registry  *registry.Registry
	Machine   *nav.Machine
	Resolver  *ordering.Resolver
	States    *store.StateRepo
	Overrides *store.OverrideRepo
	Logger    *slog.Logger
}

func New(ctx context.Context, cfg config.Config, deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &App{
		ctx:       ctx,
		cfg:       cfg,
		reg:       deps.Registry,
		machine:   deps.Machine,
		resolver:  deps.Resolver,
		states:    deps.States,
		overrides: deps.Overrides,
		logger:    logger,
		keys:      NewKeyRegistry(DefaultBindings()),
		sessionID: uuid.NewString(),
		status:    "Ready",
		width:     100,
		height:    32,
		orch:      newOrchestratorPanel(),
	}
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		return a, nil
	case LinkRequestMsg:
		a.followLink(m.Target)
		return a, nil
	case tea.KeyMsg:
		if a.orch.open {
			return a.handleOrchKey(m)
		}
		return a.handleBarKey(m)
	}
	return a, nil
}

func (a *App) handleBarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case a.keys.IsAction(msg, "quit", "app"):
		a.quitting = true
		return a, tea.Quit
	case a.keys.IsAction(msg, "orchestrator", "app"):
		a.openOrchestrator()
	case a.keys.IsAction(msg, "group-prev", "app"):
		a.moveGroup(-1)
	case a.keys.IsAction(msg, "group-next", "app"):
		a.moveGroup(+1)
	case a.keys.IsAction(msg, "tool-prev", "app"):
		a.moveTool(-1)
	case a.keys.IsAction(msg, "tool-next", "app"):
		a.moveTool(+1)
	case a.keys.IsAction(msg, "tool-pin", "app"):
		a.pinTool()
	}
	return a, nil
}

// moveGroup shifts the selected group along the active mode's bar.
// Entering a group also selects its first tool in effective order,
// through the same transition path as a direct tool click.
func (a *App) moveGroup(delta int) {
	mode := a.machine.CurrentMode()
	groups := a.reg.Groups(mode.Dimension)
	if len(groups) == 0 {
		return
	}
	current := a.machine.SelectedGroup()
	idx := 0
	if current != "" {
		for i, g := range groups {
			if g.ID == current {
				idx = i + delta
				break
			}
		}
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(groups) {
		idx = len(groups) - 1
	}
	target := groups[idx].ID
	changed, err := a.machine.SelectGroup(mode.Dimension, target)
	if err != nil {
		a.status = "Not reachable here"
		return
	}
	if a.machine.SelectedUnit() == "" {
		a.selectDefaultTool()
	}
	if changed {
		a.status = "Selected " + a.reg.GroupLabel(mode.Dimension, target)
		a.persist()
	}
}

// selectDefaultTool picks the first tool of the selected group, the
// console's behaviour when a work package or category is entered.
func (a *App) selectDefaultTool() {
	mode := a.machine.CurrentMode()
	group := a.machine.SelectedGroup()
	if group == "" {
		return
	}
	order := a.resolver.Resolve(mode.Dimension, group)
	if len(order) == 0 {
		return
	}
	if _, err := a.machine.SelectUnit(order[0]); err != nil {
		a.logger.Warn("default tool selection rejected", "unit", string(order[0]), "err", err)
	}
}

func (a *App) moveTool(delta int) {
	mode := a.machine.CurrentMode()
	group := a.machine.SelectedGroup()
	if group == "" {
		return
	}
	order := a.resolver.Resolve(mode.Dimension, group)
	if len(order) == 0 {
		return
	}
	idx := 0
	current := a.machine.SelectedUnit()
	for i, id := range order {
		if id == current {
			idx = i + delta
			break
		}
	}
	if idx < 0 {
		idx = len(order) - 1
	}
	if idx >= len(order) {
		idx = 0
	}
	changed, err := a.machine.SelectUnit(order[idx])
	if err != nil {
		a.status = "Not reachable here"
		return
	}
	if changed {
		if u, ok := a.reg.Unit(order[idx]); ok {
			a.status = "Opened " + u.Label
		}
		a.persist()
	}
}

// pinTool promotes the selected tool to the front of its group with a
// user-layer order override, persisted so it survives restarts.
func (a *App) pinTool() {
	mode := a.machine.CurrentMode()
	group := a.machine.SelectedGroup()
	unit := a.machine.SelectedUnit()
	if group == "" || unit == "" {
		return
	}
	order := a.resolver.Resolve(mode.Dimension, group)
	if len(order) == 0 || order[0] == unit {
		return
	}
	first, ok := a.reg.Unit(order[0])
	if !ok {
		return
	}
	top, _ := a.resolver.EffectiveOrder(mode.Dimension, group, first)
	rule := ordering.Rule{
		Scope:     ordering.ScopeUser,
		Dimension: mode.Dimension,
		GroupID:   group,
		UnitID:    unit,
		Order:     top - 1,
	}
	a.resolver.AddRules([]ordering.Rule{rule})
	if a.overrides != nil {
		if err := a.overrides.Put(a.ctx, rule); err != nil {
			a.logger.Warn("persist order override", "err", err)
		}
	}
	if u, ok := a.reg.Unit(unit); ok {
		a.status = "Pinned " + u.Label
	}
}

// followLink resolves a symbolic open-unit request. Unresolvable links
// are silently inert: no visible error, no state change.
func (a *App) followLink(target registry.UnitID) {
	before := a.machine.State()
	action := a.machine.OpenUnit(target)
	if action.Kind == nav.ActionNone {
		a.logger.Info("link inert", "target", string(target))
		return
	}
	if u, ok := a.reg.Unit(action.Unit); ok {
		a.status = "Opened " + u.Label
	}
	if !a.machine.State().Equal(before) {
		a.persist()
	}
}

// persist writes the committed state. Failures are logged and absorbed;
// the in-memory state is already committed and stays authoritative.
func (a *App) persist() {
	if a.states == nil {
		return
	}
	if err := a.states.Save(a.ctx, a.machine.State(), a.sessionID); err != nil {
		a.logger.Warn("persist navigation state", "err", err)
	}
}

// nextStamp returns a strictly monotonic activation timestamp for
// activity events within this session.
func (a *App) nextStamp() int64 {
	a.clock++
	return a.clock
}
