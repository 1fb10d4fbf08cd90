package styles

import "github.com/charmbracelet/lipgloss"

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// IterationColors defines colors for iteration rows.
type IterationColors struct {
	Done     string
	Pending  string
	Selected string
	Length   string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	SelectedCard string
	Flash        string
}

// Theme defines the panel style tokens.
type Theme struct {
	Name        string
	BorderStyle string // "rounded", "sharp", "double", "hidden"

	Base      BaseColors
	Iteration IterationColors
	Chrome    ChromeColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// Lookup returns the named theme, falling back to DefaultTheme.
func Lookup(name string) Theme {
	if t, ok := Themes[name]; ok {
		return t
	}
	return DefaultTheme
}

// Border returns the lipgloss border for the theme's BorderStyle.
func (t Theme) Border() lipgloss.Border {
	switch t.BorderStyle {
	case "sharp":
		return lipgloss.NormalBorder()
	case "double":
		return lipgloss.DoubleBorder()
	case "hidden":
		return lipgloss.HiddenBorder()
	default:
		return lipgloss.RoundedBorder()
	}
}

// Card styles one experiment module. Selected cards use the accent border.
func (t Theme) Card(selected bool, width int) lipgloss.Style {
	border := t.Base.Border
	if selected {
		border = t.Chrome.SelectedCard
	}
	style := lipgloss.NewStyle().
		Border(t.Border()).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, 1)
	if width > 0 {
		style = style.Width(width)
	}
	return style
}

// Title styles an experiment title; inactive titles are dimmed.
func (t Theme) Title(active bool) lipgloss.Style {
	color := t.Base.Muted
	if active {
		color = t.Base.Foreground
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
}

// Muted styles secondary text.
func (t Theme) Muted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted))
}

// Accent styles keys and highlights.
func (t Theme) Accent() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Accent))
}

// Action styles an action button label.
func (t Theme) Action() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.Base.Accent)).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color(t.Base.Border))
}
