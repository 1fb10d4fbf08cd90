// Package models defines the experiment and iteration data types.
package models

import (
	"fmt"
	"strings"
)

// Status is the experiment-level mode.
type Status string

const (
	// StatusEmpty means the experiment has no iterations.
	StatusEmpty Status = "empty"
	// StatusLocked means the experiment is read-only until unlocked.
	StatusLocked Status = "locked"
	// StatusUnlocked means the experiment is editable.
	StatusUnlocked Status = "unlocked"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusEmpty, StatusLocked, StatusUnlocked:
		return true
	}
	return false
}

// IterationState is the lifecycle state of a single iteration.
type IterationState string

const (
	IterationPending IterationState = "pending"
	IterationDone    IterationState = "done"
)

// Valid reports whether s is a known iteration state.
func (s IterationState) Valid() bool {
	return s == IterationPending || s == IterationDone
}

// IterationLength classifies how long an iteration is.
type IterationLength string

const (
	LengthShort  IterationLength = "short"
	LengthMedium IterationLength = "medium"
	LengthLong   IterationLength = "long"
)

// IterationLengths lists lengths in selector order.
var IterationLengths = []IterationLength{LengthShort, LengthMedium, LengthLong}

// Valid reports whether l is a known length.
func (l IterationLength) Valid() bool {
	switch l {
	case LengthShort, LengthMedium, LengthLong:
		return true
	}
	return false
}

// ParseIterationLength parses a length name, ignoring case and surrounding space.
func ParseIterationLength(value string) (IterationLength, error) {
	l := IterationLength(strings.ToLower(strings.TrimSpace(value)))
	if !l.Valid() {
		return "", fmt.Errorf("invalid iteration length %q (want short, medium or long)", value)
	}
	return l, nil
}

const (
	// PendingIterationTitle is the placeholder shown while an iteration is being added.
	PendingIterationTitle = "Adding iteration..."

	// DoneIterationTitle is the title an iteration receives when it is committed.
	DoneIterationTitle = "Iteration title"
)

// Iteration is one unit of work within an experiment.
type Iteration struct {
	// ID is dense within the owning experiment: iterations are always numbered 1..n.
	ID    int    `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`

	// ExperimentID is a lookup key back to the owner.
	ExperimentID int             `json:"experiment_id" yaml:"experiment_id"`
	State        IterationState  `json:"state" yaml:"state"`
	Length       IterationLength `json:"length" yaml:"length"`
}

// Experiment is a named container with a lock status and ordered iterations.
type Experiment struct {
	ID         int         `json:"id" yaml:"id"`
	Title      string      `json:"title" yaml:"title"`
	Status     Status      `json:"status" yaml:"status"`
	Iterations []Iteration `json:"iterations" yaml:"iterations"`
}

// Clone returns a deep copy of the experiment.
func (e *Experiment) Clone() *Experiment {
	if e == nil {
		return nil
	}
	out := *e
	out.Iterations = append([]Iteration(nil), e.Iterations...)
	return &out
}

// Iteration returns the iteration with the given id.
func (e *Experiment) Iteration(id int) (Iteration, bool) {
	if e == nil {
		return Iteration{}, false
	}
	for _, it := range e.Iterations {
		if it.ID == id {
			return it, true
		}
	}
	return Iteration{}, false
}

// PendingCount returns the number of iterations still pending.
func (e *Experiment) PendingCount() int {
	if e == nil {
		return 0
	}
	n := 0
	for _, it := range e.Iterations {
		if it.State == IterationPending {
			n++
		}
	}
	return n
}

// Validate checks the experiment invariants.
func (e *Experiment) Validate() error {
	var errs ValidationErrors
	if e == nil {
		errs.AddMessage("experiment", "is nil")
		return errs.Err()
	}
	if e.ID <= 0 {
		errs.AddMessage("id", "must be a positive integer")
	}
	if !e.Status.Valid() {
		errs.AddMessage("status", fmt.Sprintf("unknown status %q", e.Status))
	}
	if (e.Status == StatusEmpty) != (len(e.Iterations) == 0) {
		errs.AddMessage("status", fmt.Sprintf("%s with %d iterations", e.Status, len(e.Iterations)))
	}
	for i, it := range e.Iterations {
		field := fmt.Sprintf("iterations[%d]", i)
		if it.ID != i+1 {
			errs.AddMessage(field+".id", fmt.Sprintf("expected %d, got %d", i+1, it.ID))
		}
		if it.ExperimentID != e.ID {
			errs.AddMessage(field+".experiment_id", fmt.Sprintf("expected %d, got %d", e.ID, it.ExperimentID))
		}
		if !it.State.Valid() {
			errs.AddMessage(field+".state", fmt.Sprintf("unknown state %q", it.State))
		}
		if !it.Length.Valid() {
			errs.AddMessage(field+".length", fmt.Sprintf("unknown length %q", it.Length))
		}
	}
	return errs.Err()
}

// ActiveIteration identifies the single iteration currently being added.
type ActiveIteration struct {
	ExperimentID int `json:"experiment_id" yaml:"experiment_id"`
	IterationID  int `json:"iteration_id" yaml:"iteration_id"`
}

func (a ActiveIteration) String() string {
	return fmt.Sprintf("%d/%d", a.ExperimentID, a.IterationID)
}
