package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mugaber/challenge-experiment-module/internal/models"
	"github.com/mugaber/challenge-experiment-module/internal/store"
)

const (
	emptyPrompt    = "To add a new iteration, start typing a prompt or generate one."
	selectionMark  = "Selection"
	lockedGlyph    = "🔒"
	unlockedGlyph  = "🔓"
	otherAddingMsg = "An iteration is being added in another module"
)

func (m *Model) renderExperiments(snap store.State) string {
	if len(snap.Experiments) == 0 {
		return m.palette().Muted().Render("no experiments")
	}
	m.clampCursor(snap)

	cards := make([]string, 0, len(snap.Experiments))
	for i, exp := range snap.Experiments {
		cards = append(cards, m.renderCard(snap, exp, i == m.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (m *Model) renderCard(snap store.State, exp *models.Experiment, selected bool) string {
	palette := m.palette()
	width := 0
	if m.width > 4 {
		width = min(m.width-2, 72)
	}

	title := palette.Title(exp.Status == models.StatusUnlocked).Render(exp.Title)
	header := title
	if glyph := lockGlyph(exp.Status); glyph != "" {
		header = joinEnds(title, glyph, width-2)
	}

	lines := []string{header}
	if m.open[exp.ID] {
		lines = append(lines, m.renderBody(snap, exp, selected)...)
	}
	return palette.Card(selected, width).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderBody(snap store.State, exp *models.Experiment, selected bool) []string {
	palette := m.palette()
	var lines []string

	if exp.Status == models.StatusEmpty && !adding(snap, exp) {
		lines = append(lines, "", palette.Muted().Render(emptyPrompt))
	}
	if len(exp.Iterations) > 0 {
		lines = append(lines, "")
		for i, it := range exp.Iterations {
			lines = append(lines, m.renderIteration(it, selected && i == m.iteration))
		}
	}

	actions := m.actionsFor(snap, exp)
	switch {
	case len(actions) > 0:
		buttons := make([]string, 0, len(actions))
		for _, a := range actions {
			buttons = append(buttons, palette.Accent().Render("["+a.key+"]")+" "+palette.Action().Render(a.label))
		}
		lines = append(lines, "", strings.Join(buttons, "  "))
	case snap.Active != nil:
		lines = append(lines, "", palette.Muted().Render(otherAddingMsg))
	}
	return lines
}

func (m *Model) renderIteration(it models.Iteration, selected bool) string {
	palette := m.palette()

	cursor := "  "
	if selected {
		cursor = palette.Accent().Render("› ")
	}
	id := palette.Muted().Render(fmt.Sprintf("EM-%d", it.ID))

	titleColor := palette.Iteration.Pending
	if it.State == models.IterationDone {
		titleColor = palette.Iteration.Done
	}
	row := cursor + id + "  " + lipgloss.NewStyle().Foreground(lipgloss.Color(titleColor)).Render(it.Title)

	if it.State != models.IterationDone {
		return row
	}

	lengths := make([]string, 0, len(models.IterationLengths))
	for _, l := range models.IterationLengths {
		if l == it.Length {
			lengths = append(lengths, lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(palette.Iteration.Length)).Render(string(l)))
			continue
		}
		lengths = append(lengths, palette.Muted().Render(string(l)))
	}
	mark := palette.Muted().Render(selectionMark) + " " +
		lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Iteration.Selected)).Render("●")
	return row + "  " + strings.Join(lengths, " ") + "  " + mark
}

// lockGlyph is empty for Empty experiments, which show no lock control.
func lockGlyph(status models.Status) string {
	switch status {
	case models.StatusLocked:
		return lockedGlyph
	case models.StatusUnlocked:
		return unlockedGlyph
	default:
		return ""
	}
}

func joinEnds(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + right
}
