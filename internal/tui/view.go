package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Catppuccin Mocha, same palette the rest of our tooling uses.
const (
	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface0 lipgloss.Color = "#313244"
	colorBase     lipgloss.Color = "#1e1e2e"
	colorLavender lipgloss.Color = "#b4befe"
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorTeal     lipgloss.Color = "#94e2d5"
)

var (
	styleModeLine = lipgloss.NewStyle().Foreground(colorPink).Bold(true)
	styleBarItem  = lipgloss.NewStyle().Foreground(colorSubtext0).Padding(0, 1)
	styleBarSel   = lipgloss.NewStyle().Foreground(colorBase).Background(colorLavender).Bold(true).Padding(0, 1)
	styleDim      = lipgloss.NewStyle().Foreground(colorOverlay0)
	styleDisabled = lipgloss.NewStyle().Foreground(colorOverlay0).Strikethrough(true)
	styleStatus   = lipgloss.NewStyle().Foreground(colorTeal)
	styleEmpty    = lipgloss.NewStyle().Foreground(colorOverlay0).Border(lipgloss.RoundedBorder()).BorderForeground(colorSurface0).Padding(1, 3)
	stylePanel    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorPink).Padding(0, 1)
	styleCursor   = lipgloss.NewStyle().Foreground(colorPink).Bold(true)
)

func (a *App) View() string {
	if a.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleModeLine.Render("Orchestrator | " + a.machine.CurrentMode().Label))
	b.WriteString("\n\n")
	b.WriteString(a.renderGroupBar())
	b.WriteString("\n")
	b.WriteString(a.renderToolBar())
	b.WriteString("\n\n")

	if a.orch.open {
		b.WriteString(a.renderOrchestrator())
	} else {
		b.WriteString(a.renderContent())
	}

	b.WriteString("\n\n")
	b.WriteString(styleStatus.Render(a.status))
	b.WriteString(styleDim.Render(fmt.Sprintf("  ·  platform %s  ·  %d tools  ·  o orchestrator, q quit",
		a.cfg.UI.PlatformVersion, len(a.reg.Units()))))
	return b.String()
}

func (a *App) renderGroupBar() string {
	mode := a.machine.CurrentMode()
	groups := a.reg.Groups(mode.Dimension)
	if len(groups) == 0 {
		return styleDim.Render("(no " + string(mode.Dimension) + " groups declared)")
	}
	selected := a.machine.SelectedGroup()
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		if g.ID == selected {
			parts = append(parts, styleBarSel.Render(g.Label))
		} else {
			parts = append(parts, styleBarItem.Render(g.Label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (a *App) renderToolBar() string {
	mode := a.machine.CurrentMode()
	group := a.machine.SelectedGroup()
	if group == "" {
		return styleDim.Render("Select a group to list its tools")
	}
	order := a.resolver.Resolve(mode.Dimension, group)
	if len(order) == 0 {
		return styleDim.Render("No tools in this group")
	}
	selected := a.machine.SelectedUnit()
	parts := make([]string, 0, len(order))
	for _, id := range order {
		u, ok := a.reg.Unit(id)
		if !ok {
			continue
		}
		if id == selected {
			parts = append(parts, styleBarSel.Render(u.Label))
		} else {
			parts = append(parts, styleBarItem.Render(u.Label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (a *App) renderContent() string {
	id := a.machine.SelectedUnit()
	if id == "" {
		return styleEmpty.Render("No tool open.\nPick a work package or press o to switch modes.")
	}
	u, ok := a.reg.Unit(id)
	if !ok {
		return styleEmpty.Render("No tool open.")
	}
	return styleEmpty.Render("Tool: " + u.Label + "\n(content pane placeholder)")
}

func (a *App) renderOrchestrator() string {
	var b strings.Builder
	b.WriteString(a.orch.input.View())
	b.WriteString("\n\n")
	if len(a.orch.rows) == 0 {
		b.WriteString(styleDim.Render("No matching modes"))
	}
	for i, row := range a.orch.rows {
		cursor := "  "
		if i == a.orch.cursor {
			cursor = styleCursor.Render("> ")
		}
		label := row.label
		if row.disabled {
			label = styleDisabled.Render(label + " (disabled)")
		} else if row.id == a.machine.State().Mode {
			label = styleBarSel.Render(label)
		} else {
			label = lipgloss.NewStyle().Foreground(colorText).Render(label)
		}
		b.WriteString(cursor + label + "\n")
	}
	return stylePanel.Render(b.String())
}
