package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/opsdeck/opsdeck/internal/arbiter"
	"github.com/opsdeck/opsdeck/internal/nav"
	"github.com/opsdeck/opsdeck/internal/search"
)

// orchestratorPanel is the mode selector overlay. Its rows are torn
// down and rebuilt on every keystroke of the search box, so each row
// carries a fresh activation event whose timestamp stays nil until the
// operator actually commits a row. The arbitration pass over the whole
// batch is what separates those rebuilds from real selections.
type orchestratorPanel struct {
	open   bool
	input  textinput.Model
	rows   []orchRow
	cursor int
}

// orchRow is one selectable mode entry plus its activation event.
type orchRow struct {
	id       nav.ModeID
	label    string
	disabled bool
	event    arbiter.Event
}

func newOrchestratorPanel() orchestratorPanel {
	ti := textinput.New()
	ti.Placeholder = "Search modes"
	ti.Prompt = "> "
	ti.CharLimit = 64
	return orchestratorPanel{input: ti}
}

func (a *App) openOrchestrator() {
	a.orch.open = true
	a.orch.input.SetValue("")
	a.orch.input.Focus()
	a.orch.cursor = 0
	a.rebuildOrchRows()
}

func (a *App) closeOrchestrator() {
	a.orch.open = false
	a.orch.input.Blur()
	a.orch.rows = nil
}

// rebuildOrchRows regenerates the panel rows from the current query.
// Every regenerated row gets a new control id and a nil timestamp:
// rebuilding is not activating.
func (a *App) rebuildOrchRows() {
	items := make([]search.Item, 0, len(a.machine.Modes()))
	for _, m := range a.machine.Modes() {
		items = append(items, search.Item{
			ID:       string(m.ID),
			Label:    m.Label,
			Section:  "modes",
			Disabled: !m.Enabled,
		})
	}
	matches := search.Rank(items, a.orch.input.Value())

	rows := make([]orchRow, 0, len(matches))
	for i, match := range matches {
		mode, ok := a.modeByID(nav.ModeID(match.Item.ID))
		if !ok {
			continue
		}
		rows = append(rows, orchRow{
			id:       mode.ID,
			label:    mode.Label,
			disabled: !mode.Enabled,
			event: arbiter.Event{
				ControlID: uuid.NewString(),
				Target:    string(mode.ID),
				Dimension: mode.Dimension,
				Disabled:  !mode.Enabled,
				Timestamp: nil,
				Seq:       i,
			},
		})
	}
	a.orch.rows = rows
	if a.orch.cursor >= len(rows) {
		a.orch.cursor = 0
	}
}

func (a *App) modeByID(id nav.ModeID) (nav.Mode, bool) {
	for _, m := range a.machine.Modes() {
		if m.ID == id {
			return m, true
		}
	}
	return nav.Mode{}, false
}

func (a *App) handleOrchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.closeOrchestrator()
		return a, nil
	case "up":
		if a.orch.cursor > 0 {
			a.orch.cursor--
		}
		return a, nil
	case "down":
		if a.orch.cursor < len(a.orch.rows)-1 {
			a.orch.cursor++
		}
		return a, nil
	case "enter":
		if a.orch.cursor < len(a.orch.rows) {
			stamp := a.nextStamp()
			a.orch.rows[a.orch.cursor].event.Timestamp = &stamp
		}
		a.commitOrchBatch()
		return a, nil
	case "ctrl+c":
		a.quitting = true
		return a, tea.Quit
	}

	before := a.orch.input.Value()
	var cmd tea.Cmd
	a.orch.input, cmd = a.orch.input.Update(msg)
	if a.orch.input.Value() != before {
		a.rebuildOrchRows()
		// A query change is a pure re-render; arbitration over the new
		// batch must produce no transition.
		a.commitOrchBatch()
	}
	return a, cmd
}

// commitOrchBatch runs arbitration over the current row batch and, when
// a genuine intent emerges, applies it to the machine.
func (a *App) commitOrchBatch() {
	batch := make([]arbiter.Event, 0, len(a.orch.rows))
	for _, r := range a.orch.rows {
		batch = append(batch, r.event)
	}
	intent, ok := arbiter.Arbitrate(batch, string(a.machine.State().Mode))
	if !ok {
		return
	}
	changed, err := a.machine.SetMode(nav.ModeID(intent.Target))
	if err != nil {
		a.status = "Mode unavailable"
		a.logger.Warn("mode switch rejected", "mode", intent.Target, "err", err)
		return
	}
	if changed {
		a.status = "Mode: " + a.machine.CurrentMode().Label
		a.persist()
	}
	a.closeOrchestrator()
}
