// Package panel is the terminal view over the experiment store.
package panel

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/mugaber/challenge-experiment-module/internal/events"
	"github.com/mugaber/challenge-experiment-module/internal/logging"
	"github.com/mugaber/challenge-experiment-module/internal/models"
	"github.com/mugaber/challenge-experiment-module/internal/panel/styles"
	"github.com/mugaber/challenge-experiment-module/internal/store"
)

const eventBuffer = 32

type Theme string

const (
	ThemeDefault      Theme = "default"
	ThemeHighContrast Theme = "high-contrast"
)

type Config struct {
	Store *store.Store

	// Publisher, when set, feeds the footer with applied events.
	Publisher events.Publisher

	Theme  string
	Logger zerolog.Logger
}

// Model is the bubbletea model. Experiment data always comes from the store;
// the model keeps only presentation state.
type Model struct {
	store  *store.Store
	pub    events.Publisher
	sink   *eventSink
	theme  Theme
	logger zerolog.Logger

	width    int
	height   int
	showHelp bool

	cursor    int          // selected experiment index
	iteration int          // selected iteration index within the selected experiment
	open      map[int]bool // keyed by experiment id
	flash     string
	lastEvent *models.Event
}

type eventMsg struct {
	event *models.Event
}

// eventSink buffers store events for the update loop. Sends after close are
// dropped; the publisher may still be running a handler it picked up before
// the subscription went away.
type eventSink struct {
	mu     sync.Mutex
	ch     chan *models.Event
	closed bool
}

func newEventSink(size int) *eventSink {
	return &eventSink{ch: make(chan *models.Event, size)}
}

func (s *eventSink) send(event *models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- event:
	default:
		// The footer only shows the latest event.
	}
}

func (s *eventSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

const subscriptionID = "panel"

func NewModel(cfg Config) (*Model, error) {
	normalized, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	m := &Model{
		store:  normalized.Store,
		pub:    normalized.Publisher,
		theme:  Theme(normalized.Theme),
		logger: normalized.Logger,
		open:   make(map[int]bool),
	}
	if m.pub != nil {
		m.sink = newEventSink(eventBuffer)
		err := m.pub.Subscribe(subscriptionID, events.Filter{}, m.sink.send)
		if err != nil {
			return nil, fmt.Errorf("subscribe to store events: %w", err)
		}
	}
	return m, nil
}

func Run(cfg Config) error {
	model, err := NewModel(cfg)
	if err != nil {
		return err
	}
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func (m *Model) Close() error {
	if m == nil || m.pub == nil {
		return nil
	}
	err := m.pub.Unsubscribe(subscriptionID)
	m.sink.close()
	if err != nil && !errors.Is(err, events.ErrSubscriptionNotFound) {
		return err
	}
	return nil
}

func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m *Model) waitForEvent() tea.Cmd {
	if m.sink == nil {
		return nil
	}
	ch := m.sink.ch
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg{event: event}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil
	case eventMsg:
		m.lastEvent = typed.event
		return m, m.waitForEvent()
	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(typed); handled {
			return m, cmd
		}
		m.handleKey(typed)
	}
	return m, nil
}

func (m *Model) View() string {
	header := m.renderHeader()
	footer := m.renderFooter()
	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	var body string
	if m.showHelp {
		body = m.renderHelpOverlay(m.width, contentHeight)
	} else {
		body = m.renderExperiments(m.store.Snapshot())
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit, true
	case "?":
		m.showHelp = !m.showHelp
		return nil, true
	case "esc":
		if m.showHelp {
			m.showHelp = false
			return nil, true
		}
	}
	return nil, m.showHelp
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	m.flash = ""
	snap := m.store.Snapshot()
	if len(snap.Experiments) == 0 {
		return
	}
	m.clampCursor(snap)
	exp := snap.Experiments[m.cursor]

	switch key := msg.String(); key {
	case "up", "k":
		m.moveCursor(snap, -1)
	case "down", "j":
		m.moveCursor(snap, 1)
	case "enter", " ":
		m.toggleOpen(exp)
	case "tab":
		m.moveIteration(exp, 1)
	case "shift+tab":
		m.moveIteration(exp, -1)
	case "L":
		m.toggleLock(exp)
	case "s", "m", "l":
		m.setLength(exp, lengthKeys[key])
	case "x":
		m.removeIteration(snap, exp)
	default:
		if !m.offers(snap, exp, key) {
			return
		}
		m.runAction(exp, key)
	}
}

var lengthKeys = map[string]models.IterationLength{
	"s": models.LengthShort,
	"m": models.LengthMedium,
	"l": models.LengthLong,
}

// action is a button on an open experiment module.
type action struct {
	key   string
	label string
}

// actionsFor returns the buttons an experiment module shows.
func (m *Model) actionsFor(snap store.State, exp *models.Experiment) []action {
	if !m.open[exp.ID] {
		return nil
	}
	if adding(snap, exp) {
		return []action{{key: "c", label: "cancel"}, {key: "d", label: "done"}}
	}
	if snap.Active != nil {
		// Another module owns the pending iteration.
		return nil
	}
	if exp.Status == models.StatusEmpty {
		return []action{{key: "g", label: "generate"}, {key: "a", label: "add iteration"}}
	}
	actions := []action{{key: "a", label: "add iteration"}}
	if len(exp.Iterations) > 0 {
		actions = append(actions, action{key: "R", label: "reset"})
	}
	return actions
}

func (m *Model) offers(snap store.State, exp *models.Experiment, key string) bool {
	if key == "esc" {
		key = "c"
	}
	for _, a := range m.actionsFor(snap, exp) {
		if a.key == key {
			return true
		}
	}
	return false
}

func (m *Model) runAction(exp *models.Experiment, key string) {
	logger := logging.WithExperiment(m.logger, exp.ID)
	switch key {
	case "a", "g":
		next := m.store.AddIteration(exp.ID)
		if updated, ok := next.Experiment(exp.ID); ok {
			m.iteration = len(updated.Iterations) - 1
		}
	case "d":
		m.store.ResolveIteration(store.OperationDone)
	case "c", "esc":
		m.store.ResolveIteration(store.OperationCancel)
		m.iteration = 0
	case "R":
		m.store.ResetExperiment(exp.ID)
		m.iteration = 0
	}
	logger.Debug().Str("key", key).Msg("panel action")
}

func (m *Model) toggleOpen(exp *models.Experiment) {
	if m.open[exp.ID] {
		m.open[exp.ID] = false
		return
	}
	if exp.Status == models.StatusLocked {
		m.flash = "Experiment is locked"
		return
	}
	m.open[exp.ID] = true
}

func (m *Model) toggleLock(exp *models.Experiment) {
	if exp.Status == models.StatusEmpty {
		return
	}
	next := m.store.ToggleLock(exp.ID)
	if updated, ok := next.Experiment(exp.ID); ok && updated.Status == models.StatusLocked {
		m.open[exp.ID] = false
	}
}

// selectedDone returns the selected iteration when the module is editable
// and the iteration is committed.
func (m *Model) selectedDone(exp *models.Experiment) (models.Iteration, bool) {
	if !m.open[exp.ID] || exp.Status == models.StatusLocked {
		return models.Iteration{}, false
	}
	if m.iteration < 0 || m.iteration >= len(exp.Iterations) {
		return models.Iteration{}, false
	}
	it := exp.Iterations[m.iteration]
	return it, it.State == models.IterationDone
}

func (m *Model) setLength(exp *models.Experiment, length models.IterationLength) {
	it, ok := m.selectedDone(exp)
	if !ok {
		return
	}
	m.store.UpdateIterationLength(exp.ID, it.ID, length)
}

func (m *Model) removeIteration(snap store.State, exp *models.Experiment) {
	it, ok := m.selectedDone(exp)
	if !ok {
		return
	}
	if snap.Active != nil {
		m.flash = "Finish the pending iteration first"
		return
	}
	next := m.store.RemoveIteration(exp.ID, it.ID)
	if updated, ok := next.Experiment(exp.ID); ok && m.iteration >= len(updated.Iterations) {
		m.iteration = max(0, len(updated.Iterations)-1)
	}
}

func (m *Model) moveCursor(snap store.State, delta int) {
	next := m.cursor + delta
	if next < 0 || next >= len(snap.Experiments) {
		return
	}
	m.cursor = next
	m.iteration = 0
}

func (m *Model) moveIteration(exp *models.Experiment, delta int) {
	n := len(exp.Iterations)
	if !m.open[exp.ID] || n == 0 {
		return
	}
	m.iteration = ((m.iteration+delta)%n + n) % n
}

func (m *Model) clampCursor(snap store.State) {
	if m.cursor >= len(snap.Experiments) {
		m.cursor = len(snap.Experiments) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func adding(snap store.State, exp *models.Experiment) bool {
	return snap.Active != nil && snap.Active.ExperimentID == exp.ID
}

func (c Config) normalize() (Config, error) {
	if c.Store == nil {
		return Config{}, fmt.Errorf("panel: %w", store.ErrUninitialized)
	}
	if strings.TrimSpace(c.Theme) == "" {
		c.Theme = string(ThemeDefault)
	}
	switch Theme(c.Theme) {
	case ThemeDefault, ThemeHighContrast:
	default:
		return Config{}, fmt.Errorf("invalid theme %q", c.Theme)
	}
	return c, nil
}

func (m *Model) palette() styles.Theme {
	return styles.Lookup(string(m.theme))
}
