package panel

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/mugaber/challenge-experiment-module/internal/events"
	"github.com/mugaber/challenge-experiment-module/internal/models"
	"github.com/mugaber/challenge-experiment-module/internal/store"
)

func newTestModel(t *testing.T, cfg Config) *Model {
	t.Helper()
	if cfg.Store == nil {
		s, err := store.New()
		require.NoError(t, err)
		cfg.Store = s
	}
	model, err := NewModel(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, model.Close())
	})
	return model
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{
		Type:  tea.KeyRunes,
		Runes: []rune{r},
	}
}

func applyUpdate(t *testing.T, model *Model, msg tea.Msg) *Model {
	t.Helper()
	next, _ := model.Update(msg)
	out, ok := next.(*Model)
	require.True(t, ok)
	return out
}

func press(t *testing.T, model *Model, keys ...tea.KeyMsg) *Model {
	t.Helper()
	for _, k := range keys {
		model = applyUpdate(t, model, k)
	}
	return model
}

func experiment(t *testing.T, m *Model, id int) *models.Experiment {
	t.Helper()
	exp, ok := m.store.Experiment(id)
	require.True(t, ok)
	return exp
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
)

func TestNewModelValidatesConfig(t *testing.T) {
	_, err := NewModel(Config{})
	require.ErrorIs(t, err, store.ErrUninitialized)

	s, err := store.New()
	require.NoError(t, err)
	_, err = NewModel(Config{Store: s, Theme: "neon"})
	require.EqualError(t, err, `invalid theme "neon"`)

	m, err := NewModel(Config{Store: s, Theme: "high-contrast"})
	require.NoError(t, err)
	require.Equal(t, ThemeHighContrast, m.theme)
}

func TestClosedModulesShowOnlyTitleAndGlyph(t *testing.T) {
	m := newTestModel(t, Config{})
	view := m.View()

	require.Contains(t, view, "Experiment Module")
	require.Contains(t, view, lockedGlyph)
	require.Contains(t, view, unlockedGlyph)
	require.NotContains(t, view, emptyPrompt)
	require.NotContains(t, view, "EM-1")
}

func TestEmptyGlyphIsHidden(t *testing.T) {
	require.Empty(t, lockGlyph(models.StatusEmpty))
	require.Equal(t, lockedGlyph, lockGlyph(models.StatusLocked))
	require.Equal(t, unlockedGlyph, lockGlyph(models.StatusUnlocked))
}

func TestOpenEmptyModuleShowsPrompt(t *testing.T) {
	m := newTestModel(t, Config{})
	m = press(t, m, keyEnter)

	view := m.View()
	require.Contains(t, view, emptyPrompt)
	require.Contains(t, view, "generate")
	require.Contains(t, view, "add iteration")
	require.NotContains(t, view, "reset")
}

func TestAddDoneFlow(t *testing.T) {
	m := newTestModel(t, Config{})
	m = press(t, m, keyEnter, runeKey('a'))

	require.Equal(t, &models.ActiveIteration{ExperimentID: 1, IterationID: 1}, m.store.Active())
	view := m.View()
	require.Contains(t, view, models.PendingIterationTitle)
	require.Contains(t, view, "cancel")
	require.Contains(t, view, "done")
	require.NotContains(t, view, "add iteration")
	require.NotContains(t, view, emptyPrompt)

	m = press(t, m, runeKey('d'))
	exp := experiment(t, m, 1)
	require.Equal(t, models.StatusUnlocked, exp.Status)
	require.Equal(t, models.IterationDone, exp.Iterations[0].State)
	require.Nil(t, m.store.Active())
	require.Contains(t, m.View(), selectionMark)
	require.Contains(t, m.View(), "reset")
}

func TestGenerateAndEscCancel(t *testing.T) {
	m := newTestModel(t, Config{})
	m = press(t, m, keyEnter, runeKey('g'))
	require.NotNil(t, m.store.Active())

	m = press(t, m, keyEsc)
	require.Nil(t, m.store.Active())
	require.Equal(t, models.StatusEmpty, experiment(t, m, 1).Status)
}

func TestActionsRequireOpenModule(t *testing.T) {
	m := newTestModel(t, Config{})
	m = press(t, m, runeKey('a'), runeKey('R'))
	require.Zero(t, m.store.Revision())
}

func TestLockedModuleRefusesToOpen(t *testing.T) {
	m := newTestModel(t, Config{})
	m = press(t, m, keyDown, keyDown, keyEnter)

	require.False(t, m.open[3])
	require.Equal(t, "Experiment is locked", m.flash)
	require.Contains(t, m.View(), "Experiment is locked")
}

func TestLockingForceClosesModule(t *testing.T) {
	m := newTestModel(t, Config{})
	m = press(t, m, keyDown, keyEnter)
	require.True(t, m.open[2])

	m = press(t, m, runeKey('L'))
	require.Equal(t, models.StatusLocked, experiment(t, m, 2).Status)
	require.False(t, m.open[2])

	m = press(t, m, runeKey('L'), keyEnter)
	require.Equal(t, models.StatusUnlocked, experiment(t, m, 2).Status)
	require.True(t, m.open[2])
}

func TestLockIsNotOfferedOnEmpty(t *testing.T) {
	m := newTestModel(t, Config{})
	m = press(t, m, runeKey('L'))
	require.Equal(t, models.StatusEmpty, experiment(t, m, 1).Status)
	require.Zero(t, m.store.Revision())
}

func TestResetEmptiesModule(t *testing.T) {
	m := newTestModel(t, Config{})
	m = press(t, m, keyDown, keyEnter, runeKey('R'))

	exp := experiment(t, m, 2)
	require.Equal(t, models.StatusEmpty, exp.Status)
	require.Empty(t, exp.Iterations)
	require.Contains(t, m.View(), emptyPrompt)
}

func TestLengthAndRemoveOnSelectedIteration(t *testing.T) {
	m := newTestModel(t, Config{})
	m = press(t, m, keyDown, keyEnter, runeKey('a'), runeKey('d'))
	require.Len(t, experiment(t, m, 2).Iterations, 2)

	// The new iteration stays selected after done.
	m = press(t, m, runeKey('l'))
	exp := experiment(t, m, 2)
	require.Equal(t, models.LengthShort, exp.Iterations[0].Length)
	require.Equal(t, models.LengthLong, exp.Iterations[1].Length)

	m = press(t, m, keyTab, runeKey('x'))
	exp = experiment(t, m, 2)
	require.Len(t, exp.Iterations, 1)
	require.Equal(t, 1, exp.Iterations[0].ID)
	require.Equal(t, models.LengthLong, exp.Iterations[0].Length)
}

func TestPendingIterationIgnoresLengthAndRemove(t *testing.T) {
	m := newTestModel(t, Config{})
	m = press(t, m, keyEnter, runeKey('a'))
	rev := m.store.Revision()

	m = press(t, m, runeKey('m'), runeKey('x'))
	require.Equal(t, rev, m.store.Revision())
	require.Equal(t, models.LengthShort, experiment(t, m, 1).Iterations[0].Length)
}

func TestRemoveBlockedWhileAdding(t *testing.T) {
	m := newTestModel(t, Config{})
	m = press(t, m, keyEnter, runeKey('a'), keyDown, keyEnter, runeKey('x'))

	require.Len(t, experiment(t, m, 2).Iterations, 1)
	require.Equal(t, "Finish the pending iteration first", m.flash)
}

func TestOtherModulesHideActionsWhileAdding(t *testing.T) {
	m := newTestModel(t, Config{})
	m = press(t, m, keyEnter, runeKey('a'), keyDown, keyEnter, runeKey('a'), runeKey('R'))

	require.Equal(t, &models.ActiveIteration{ExperimentID: 1, IterationID: 1}, m.store.Active())
	require.Len(t, experiment(t, m, 2).Iterations, 1)
	require.Contains(t, m.View(), otherAddingMsg)
}

func TestHelpToggleSwallowsKeys(t *testing.T) {
	m := newTestModel(t, Config{})
	m = press(t, m, runeKey('?'))
	require.True(t, m.showHelp)
	require.Contains(t, m.View(), "Dismiss")

	m = press(t, m, keyEnter)
	require.False(t, m.open[1])

	m = press(t, m, keyEsc)
	require.False(t, m.showHelp)
}

func TestQuitKeys(t *testing.T) {
	m := newTestModel(t, Config{})
	for _, k := range []tea.KeyMsg{runeKey('q'), {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(k)
		require.NotNil(t, cmd)
		_, ok := cmd().(tea.QuitMsg)
		require.True(t, ok)
	}
}

func TestFooterShowsLatestEvent(t *testing.T) {
	pub := events.NewInMemoryPublisher()
	s, err := store.New(store.WithPublisher(pub))
	require.NoError(t, err)
	m := newTestModel(t, Config{Store: s, Publisher: pub})
	require.Equal(t, 1, pub.SubscriberCount())

	m = press(t, m, keyEnter, runeKey('a'))
	cmd := m.Init()
	require.NotNil(t, cmd)
	m = applyUpdate(t, m, cmd())

	require.NotNil(t, m.lastEvent)
	require.Equal(t, models.EventTypeIterationAdded, m.lastEvent.Type)
	require.Contains(t, m.View(), "iteration.added")

	require.NoError(t, m.Close())
	require.Zero(t, pub.SubscriberCount())
}

func TestWindowResize(t *testing.T) {
	m := newTestModel(t, Config{})
	m = applyUpdate(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	require.Equal(t, 80, m.width)
	require.Contains(t, m.View(), "rev 0")
}

func TestEventWaitEndsAfterClose(t *testing.T) {
	pub := events.NewInMemoryPublisher()
	s, err := store.New(store.WithPublisher(pub))
	require.NoError(t, err)
	m := newTestModel(t, Config{Store: s, Publisher: pub})

	cmd := m.Init()
	require.NotNil(t, cmd)
	require.NoError(t, m.Close())
	require.Nil(t, cmd())

	// Events published after close are dropped.
	require.NotPanics(t, func() { m.sink.send(&models.Event{Type: models.EventTypeIterationAdded}) })
	require.NoError(t, m.Close())
}

func TestHeaderCountsPendingIterations(t *testing.T) {
	m := newTestModel(t, Config{})
	require.NotContains(t, m.View(), "pending")

	m = press(t, m, keyEnter, runeKey('a'))
	require.Contains(t, m.View(), "1 pending")
	require.Contains(t, m.View(), "adding 1/1")

	m = press(t, m, runeKey('d'))
	require.NotContains(t, m.View(), "pending")
}
