// Package store owns the experiment collection and the active-iteration
// pointer, and applies commands to them.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mugaber/challenge-experiment-module/internal/events"
	"github.com/mugaber/challenge-experiment-module/internal/models"
)

// ErrUninitialized is the panic value for commands issued on a nil Store.
var ErrUninitialized = errors.New("store: used before initialization, construct it with store.New")

// Store is the owned state container. Each command is one atomic
// transaction: read the full state, compute the next one, publish it.
type Store struct {
	mu       sync.Mutex
	state    State
	revision uint64

	finalTitle string
	publisher  events.Publisher
	logger     zerolog.Logger
	now        func() time.Time

	seed []*models.Experiment
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithPublisher publishes one event per state-changing command.
func WithPublisher(p events.Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

// WithFinalTitle sets the title given to iterations on commit.
func WithFinalTitle(title string) Option {
	return func(s *Store) {
		if title != "" {
			s.finalTitle = title
		}
	}
}

// WithExperiments replaces the seed experiments.
func WithExperiments(experiments []*models.Experiment) Option {
	return func(s *Store) {
		s.seed = experiments
	}
}

// withClock overrides the event timestamp source.
func withClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a store holding Seed() or the experiments given by WithExperiments.
func New(opts ...Option) (*Store, error) {
	s := &Store{
		finalTitle: models.DoneIterationTitle,
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	seed := s.seed
	if seed == nil {
		seed = Seed()
	}
	s.seed = nil

	experiments := make([]*models.Experiment, 0, len(seed))
	seen := make(map[int]struct{}, len(seed))
	for i, exp := range seed {
		cp := exp.Clone()
		if cp != nil && cp.Iterations == nil {
			cp.Iterations = []models.Iteration{}
		}
		if err := cp.Validate(); err != nil {
			return nil, fmt.Errorf("experiments[%d]: %w", i, err)
		}
		if _, dup := seen[cp.ID]; dup {
			return nil, fmt.Errorf("experiments[%d]: duplicate id %d", i, cp.ID)
		}
		seen[cp.ID] = struct{}{}
		experiments = append(experiments, cp)
	}
	s.state = State{Experiments: experiments}
	return s, nil
}

// Snapshot returns the current state. The returned experiments are shared
// with the store and must be treated as read-only.
func (s *Store) Snapshot() State {
	s.mustInit()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Experiments returns the ordered experiment collection.
func (s *Store) Experiments() []*models.Experiment {
	return s.Snapshot().Experiments
}

// Experiment returns one experiment by id.
func (s *Store) Experiment(id int) (*models.Experiment, bool) {
	return s.Snapshot().Experiment(id)
}

// Active returns the active-iteration pointer, or nil.
func (s *Store) Active() *models.ActiveIteration {
	return s.Snapshot().Active
}

// Revision counts the commands that changed state.
func (s *Store) Revision() uint64 {
	s.mustInit()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// AddIteration appends a pending iteration to an unlocked or empty experiment.
func (s *Store) AddIteration(experimentID int) State {
	return s.Apply(Command{Kind: CommandAdd, ExperimentID: experimentID})
}

// ResolveIteration commits or cancels the active iteration.
func (s *Store) ResolveIteration(op Operation) State {
	return s.Apply(Command{Kind: CommandResolve, Operation: op})
}

// UpdateIterationLength sets the length of one iteration.
func (s *Store) UpdateIterationLength(experimentID, iterationID int, length models.IterationLength) State {
	return s.Apply(Command{Kind: CommandLength, ExperimentID: experimentID, IterationID: iterationID, Length: length})
}

// RemoveIteration deletes an iteration and renumbers the remainder.
func (s *Store) RemoveIteration(experimentID, iterationID int) State {
	return s.Apply(Command{Kind: CommandRemove, ExperimentID: experimentID, IterationID: iterationID})
}

// ToggleLock flips an experiment between Locked and Unlocked.
func (s *Store) ToggleLock(experimentID int) State {
	return s.Apply(Command{Kind: CommandLock, ExperimentID: experimentID})
}

// ResetExperiment empties an experiment and clears the active pointer.
func (s *Store) ResetExperiment(experimentID int) State {
	return s.Apply(Command{Kind: CommandReset, ExperimentID: experimentID})
}

// Apply runs cmd and returns the resulting snapshot.
func (s *Store) Apply(cmd Command) State {
	return s.ApplyContext(context.Background(), cmd)
}

// ApplyContext runs cmd; ctx is passed to the event publisher.
func (s *Store) ApplyContext(ctx context.Context, cmd Command) State {
	s.mustInit()

	s.mu.Lock()
	prev := s.state
	next := apply(prev, cmd, s.finalTitle)
	changed := stateChanged(prev, next)
	s.state = next
	var event *models.Event
	if changed {
		s.revision++
		event = s.eventFor(cmd, prev, next)
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	logger := s.logger.With().Str("command", cmd.String()).Logger()
	if !changed {
		logger.Debug().Msg("command left state unchanged")
		return snapshot
	}
	logger.Debug().Uint64("revision", event.Revision).Msg("command applied")

	if s.publisher != nil {
		s.publisher.Publish(ctx, event)
	}
	return snapshot
}

func (s *Store) snapshotLocked() State {
	out := State{Experiments: s.state.Experiments}
	if s.state.Active != nil {
		active := *s.state.Active
		out.Active = &active
	}
	return out
}

func (s *Store) mustInit() {
	if s == nil {
		panic(ErrUninitialized)
	}
}

func (s *Store) eventFor(cmd Command, prev, next State) *models.Event {
	experimentID := cmd.ExperimentID
	iterationID := cmd.IterationID
	var eventType models.EventType

	switch cmd.Kind {
	case CommandAdd:
		eventType = models.EventTypeIterationAdded
		if next.Active != nil {
			iterationID = next.Active.IterationID
		}
	case CommandResolve:
		eventType = models.EventTypeIterationCommitted
		if cmd.Operation == OperationCancel {
			eventType = models.EventTypeIterationCancelled
		}
		if prev.Active != nil {
			experimentID = prev.Active.ExperimentID
			iterationID = prev.Active.IterationID
		}
	case CommandLength:
		eventType = models.EventTypeIterationResized
	case CommandRemove:
		eventType = models.EventTypeIterationRemoved
	case CommandLock:
		eventType = models.EventTypeExperimentUnlocked
		if exp, ok := next.Experiment(experimentID); ok && exp.Status == models.StatusLocked {
			eventType = models.EventTypeExperimentLocked
		}
	case CommandReset:
		eventType = models.EventTypeExperimentReset
	}

	payload := models.CommandPayload{
		Command:     cmd.String(),
		IterationID: iterationID,
		Length:      cmd.Length,
	}
	if exp, ok := next.Experiment(experimentID); ok {
		payload.Status = exp.Status
		payload.Iterations = len(exp.Iterations)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode event payload")
	}

	return &models.Event{
		Timestamp:  s.now().UTC(),
		Type:       eventType,
		EntityType: models.EntityTypeExperiment,
		EntityID:   strconv.Itoa(experimentID),
		Revision:   s.revision,
		Payload:    raw,
	}
}

// stateChanged compares by identity: transitions allocate new values only
// for what they modify. An Active pointer naming no iteration counts as nil.
func stateChanged(prev, next State) bool {
	prevActive, nextActive := liveActive(prev), liveActive(next)
	if (prevActive == nil) != (nextActive == nil) {
		return true
	}
	if prevActive != nil && *prevActive != *nextActive {
		return true
	}
	if len(prev.Experiments) != len(next.Experiments) {
		return true
	}
	for i := range prev.Experiments {
		if prev.Experiments[i] != next.Experiments[i] {
			return true
		}
	}
	return false
}

// liveActive returns s.Active when it names an existing iteration.
func liveActive(s State) *models.ActiveIteration {
	if s.Active == nil {
		return nil
	}
	exp, ok := s.Experiment(s.Active.ExperimentID)
	if !ok || iterationIndex(exp, s.Active.IterationID) < 0 {
		return nil
	}
	return s.Active
}
