package panel

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpItem struct {
	key  string
	desc string
}

type helpSection struct {
	title string
	items []helpItem
}

var helpSections = []helpSection{
	{title: "Global", items: []helpItem{
		{key: "q / Ctrl+C", desc: "quit"},
		{key: "?", desc: "toggle help"},
	}},
	{title: "Modules", items: []helpItem{
		{key: "j/k ↑/↓", desc: "select experiment"},
		{key: "Enter / Space", desc: "open or close (locked modules stay closed)"},
		{key: "L", desc: "lock or unlock"},
	}},
	{title: "Iterations", items: []helpItem{
		{key: "a / g", desc: "add iteration / generate"},
		{key: "d", desc: "done"},
		{key: "c / Esc", desc: "cancel"},
		{key: "R", desc: "reset experiment"},
		{key: "Tab", desc: "select iteration"},
		{key: "s / m / l", desc: "set length short, medium or long"},
		{key: "x", desc: "remove iteration"},
	}},
}

func (m *Model) renderHelpOverlay(width, height int) string {
	palette := m.palette()

	lines := make([]string, 0, 32)
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(palette.Base.Accent)).Render("Help"), "")

	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(palette.Base.Accent))
	for _, sec := range helpSections {
		lines = append(lines, lipgloss.NewStyle().Bold(true).Render(sec.title))
		for _, it := range sec.items {
			lines = append(lines, "  "+keyStyle.Render(it.key)+"  "+it.desc)
		}
		lines = append(lines, "")
	}
	lines = append(lines, palette.Muted().Render("Dismiss: ? or Esc"))

	panel := lipgloss.NewStyle().
		Border(palette.Border()).
		BorderForeground(lipgloss.Color(palette.Base.Border)).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
	if width <= 0 || height <= 0 {
		return panel
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, panel)
}
