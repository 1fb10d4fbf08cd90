package styles

// HighContrastTheme favors legibility on low-quality terminals.
var HighContrastTheme = Theme{
	Name:        "high-contrast",
	BorderStyle: "double",
	Base: BaseColors{
		Background: "16",
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "231",
	},
	Iteration: IterationColors{
		Done:     "231",
		Pending:  "250",
		Selected: "46",
		Length:   "226",
	},
	Chrome: ChromeColors{
		Header:       "19",
		Footer:       "18",
		SelectedCard: "51",
		Flash:        "226",
	},
}
