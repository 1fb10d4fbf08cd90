package styles

// DefaultTheme is the baseline dark palette.
var DefaultTheme = Theme{
	Name:        "default",
	BorderStyle: "rounded",
	Base: BaseColors{
		Background: "234",
		Foreground: "255",
		Muted:      "244",
		Accent:     "75",
		Border:     "238",
	},
	Iteration: IterationColors{
		Done:     "250",
		Pending:  "243",
		Selected: "41",
		Length:   "111",
	},
	Chrome: ChromeColors{
		Header:       "236",
		Footer:       "235",
		SelectedCard: "75",
		Flash:        "214",
	},
}
