package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mugaber/challenge-experiment-module/internal/store"
)

func (m *Model) renderHeader() string {
	palette := m.palette()
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Base.Foreground)).
		Background(lipgloss.Color(palette.Chrome.Header)).
		Bold(true).
		Padding(0, 1)

	snap := m.store.Snapshot()
	left := "Experiments"
	center := fmt.Sprintf("rev %d", m.store.Revision())
	if pending := pendingCount(snap); pending > 0 {
		center = fmt.Sprintf("%s  %d pending", center, pending)
	}
	right := "idle"
	if snap.Active != nil {
		right = "adding " + snap.Active.String()
	}
	return style.Width(max(0, m.width)).Render(joinHeader(left, center, right, max(0, m.width-2)))
}

func (m *Model) renderFooter() string {
	palette := m.palette()
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Base.Foreground)).
		Background(lipgloss.Color(palette.Chrome.Footer)).
		Padding(0, 1)

	line := "j/k select  enter open  L lock  ? help  q quit"
	switch {
	case m.flash != "":
		line = lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Chrome.Flash)).Render(m.flash)
	case m.lastEvent != nil:
		line = fmt.Sprintf("%s  #%d %s experiment %s", line, m.lastEvent.Revision, m.lastEvent.Type, m.lastEvent.EntityID)
	}
	return style.Width(max(0, m.width)).Render(line)
}

// pendingCount includes iterations orphaned by a second add.
func pendingCount(snap store.State) int {
	n := 0
	for _, exp := range snap.Experiments {
		n += exp.PendingCount()
	}
	return n
}

func joinHeader(left, center, right string, width int) string {
	left = strings.TrimSpace(left)
	center = strings.TrimSpace(center)
	right = strings.TrimSpace(right)
	if width <= 0 {
		return left + "  " + center + "  " + right
	}

	space := width - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right)
	if space < 2 {
		return left + "  " + right
	}
	leftGap := space / 2
	rightGap := space - leftGap
	return left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right
}
