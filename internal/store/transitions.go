package store

import (
	"fmt"

	"github.com/mugaber/challenge-experiment-module/internal/models"
)

// State is one immutable snapshot of the store.
//
// Published experiments are never mutated. A transition replaces the pointer of
// the experiment it touches and carries every other pointer over, so callers
// can detect "experiment X did not change" with ==. A transition that matches
// nothing returns the same Experiments slice.
type State struct {
	Experiments []*models.Experiment `json:"experiments" yaml:"experiments"`

	// Active is the iteration currently being added, nil when no add is in progress.
	Active *models.ActiveIteration `json:"active_iteration" yaml:"active_iteration"`
}

// Experiment returns the experiment with the given id.
func (s State) Experiment(id int) (*models.Experiment, bool) {
	for _, exp := range s.Experiments {
		if exp.ID == id {
			return exp, true
		}
	}
	return nil, false
}

// Validate checks every experiment's invariants.
func (s State) Validate() error {
	var errs models.ValidationErrors
	for i, exp := range s.Experiments {
		errs.Add(fmt.Sprintf("experiments[%d]", i), exp.Validate())
	}
	return errs.Err()
}

// Operation resolves the active iteration.
type Operation string

const (
	OperationDone   Operation = "done"
	OperationCancel Operation = "cancel"
)

// Valid reports whether op is a known operation.
func (op Operation) Valid() bool {
	return op == OperationDone || op == OperationCancel
}

// replaceExperiment swaps in fn's result for the experiment with the given id.
// fn returning nil leaves the experiment untouched.
func replaceExperiment(experiments []*models.Experiment, id int, fn func(*models.Experiment) *models.Experiment) []*models.Experiment {
	for i, exp := range experiments {
		if exp.ID != id {
			continue
		}
		next := fn(exp)
		if next == nil {
			return experiments
		}
		out := make([]*models.Experiment, len(experiments))
		copy(out, experiments)
		out[i] = next
		return out
	}
	return experiments
}

// withIterations copies exp with iterations replaced, keeping status in step:
// an experiment with no iterations is always Empty.
func withIterations(exp *models.Experiment, iterations []models.Iteration) *models.Experiment {
	next := *exp
	next.Iterations = iterations
	if len(iterations) == 0 {
		next.Status = models.StatusEmpty
	}
	return &next
}

// AddIteration appends a pending iteration to an experiment and points Active
// at it. Locked experiments are left unchanged. A pointer to an earlier
// pending iteration is overwritten; that iteration stays Pending.
func AddIteration(s State, experimentID int) State {
	var active *models.ActiveIteration
	s.Experiments = replaceExperiment(s.Experiments, experimentID, func(exp *models.Experiment) *models.Experiment {
		if exp.Status == models.StatusLocked {
			return nil
		}
		id := len(exp.Iterations) + 1
		iterations := make([]models.Iteration, 0, id)
		iterations = append(iterations, exp.Iterations...)
		iterations = append(iterations, models.Iteration{
			ID:           id,
			Title:        models.PendingIterationTitle,
			ExperimentID: experimentID,
			State:        models.IterationPending,
			Length:       models.LengthShort,
		})
		next := withIterations(exp, iterations)
		if next.Status == models.StatusEmpty {
			next.Status = models.StatusUnlocked
		}
		active = &models.ActiveIteration{ExperimentID: experimentID, IterationID: id}
		return next
	})
	if active != nil {
		s.Active = active
	}
	return s
}

// ResolveIteration commits or cancels the iteration named by Active. It never
// searches for other pending iterations. Active is nil afterwards whatever the
// outcome, including when it was nil or named an iteration that is gone.
func ResolveIteration(s State, op Operation, finalTitle string) State {
	active := s.Active
	s.Active = nil
	if active == nil || !op.Valid() {
		return s
	}

	s.Experiments = replaceExperiment(s.Experiments, active.ExperimentID, func(exp *models.Experiment) *models.Experiment {
		if iterationIndex(exp, active.IterationID) < 0 {
			return nil
		}
		iterations := make([]models.Iteration, 0, len(exp.Iterations))
		for _, it := range exp.Iterations {
			if it.ID != active.IterationID {
				iterations = append(iterations, it)
				continue
			}
			if op == OperationCancel {
				continue
			}
			it.Title = finalTitle
			it.State = models.IterationDone
			iterations = append(iterations, it)
		}
		return withIterations(exp, iterations)
	})
	return s
}

// UpdateIterationLength sets the length of one iteration. Status, ids and
// Active are untouched.
func UpdateIterationLength(s State, experimentID, iterationID int, length models.IterationLength) State {
	if !length.Valid() {
		return s
	}
	s.Experiments = replaceExperiment(s.Experiments, experimentID, func(exp *models.Experiment) *models.Experiment {
		idx := iterationIndex(exp, iterationID)
		if idx < 0 || exp.Iterations[idx].Length == length {
			return nil
		}
		next := exp.Clone()
		next.Iterations[idx].Length = length
		return next
	})
	return s
}

// RemoveIteration deletes one iteration and renumbers the rest 1..n in their
// existing order. Active is not adjusted.
func RemoveIteration(s State, experimentID, iterationID int) State {
	s.Experiments = replaceExperiment(s.Experiments, experimentID, func(exp *models.Experiment) *models.Experiment {
		if iterationIndex(exp, iterationID) < 0 {
			return nil
		}
		iterations := make([]models.Iteration, 0, len(exp.Iterations)-1)
		for _, it := range exp.Iterations {
			if it.ID == iterationID {
				continue
			}
			it.ID = len(iterations) + 1
			iterations = append(iterations, it)
		}
		return withIterations(exp, iterations)
	})
	return s
}

// ToggleLock flips Locked and Unlocked. Any status other than Locked,
// including Empty, becomes Locked.
func ToggleLock(s State, experimentID int) State {
	s.Experiments = replaceExperiment(s.Experiments, experimentID, func(exp *models.Experiment) *models.Experiment {
		next := *exp
		if exp.Status == models.StatusLocked {
			next.Status = models.StatusUnlocked
		} else {
			next.Status = models.StatusLocked
		}
		return &next
	})
	return s
}

// ResetExperiment empties an experiment regardless of its status and clears
// Active, even when Active points into a different experiment.
func ResetExperiment(s State, experimentID int) State {
	s.Active = nil
	s.Experiments = replaceExperiment(s.Experiments, experimentID, func(exp *models.Experiment) *models.Experiment {
		return withIterations(exp, []models.Iteration{})
	})
	return s
}

func iterationIndex(exp *models.Experiment, iterationID int) int {
	for i, it := range exp.Iterations {
		if it.ID == iterationID {
			return i
		}
	}
	return -1
}
