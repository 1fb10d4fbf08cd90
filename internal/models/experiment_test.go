package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseIterationLength(t *testing.T) {
	tests := []struct {
		in      string
		want    IterationLength
		wantErr bool
	}{
		{in: "short", want: LengthShort},
		{in: " Medium ", want: LengthMedium},
		{in: "LONG", want: LengthLong},
		{in: "", wantErr: true},
		{in: "huge", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIterationLength(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestExperimentValidate(t *testing.T) {
	valid := &Experiment{
		ID:     2,
		Title:  "Experiment Module",
		Status: StatusUnlocked,
		Iterations: []Iteration{
			{ID: 1, ExperimentID: 2, State: IterationDone, Length: LengthShort},
			{ID: 2, ExperimentID: 2, State: IterationPending, Length: LengthShort},
		},
	}
	require.NoError(t, valid.Validate())
	require.NoError(t, (&Experiment{ID: 1, Status: StatusEmpty}).Validate())

	tests := []struct {
		name  string
		exp   *Experiment
		field string
	}{
		{
			name:  "empty with iterations",
			exp:   &Experiment{ID: 1, Status: StatusEmpty, Iterations: []Iteration{{ID: 1, ExperimentID: 1, State: IterationDone, Length: LengthShort}}},
			field: "status",
		},
		{
			name:  "unlocked without iterations",
			exp:   &Experiment{ID: 1, Status: StatusUnlocked},
			field: "status",
		},
		{
			name:  "gap in ids",
			exp:   &Experiment{ID: 1, Status: StatusUnlocked, Iterations: []Iteration{{ID: 2, ExperimentID: 1, State: IterationDone, Length: LengthShort}}},
			field: "iterations[0].id",
		},
		{
			name:  "wrong owner",
			exp:   &Experiment{ID: 1, Status: StatusLocked, Iterations: []Iteration{{ID: 1, ExperimentID: 9, State: IterationDone, Length: LengthShort}}},
			field: "iterations[0].experiment_id",
		},
		{
			name:  "unknown length",
			exp:   &Experiment{ID: 1, Status: StatusLocked, Iterations: []Iteration{{ID: 1, ExperimentID: 1, State: IterationDone, Length: "tiny"}}},
			field: "iterations[0].length",
		},
		{
			name:  "non-positive id",
			exp:   &Experiment{ID: 0, Status: StatusEmpty},
			field: "id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.exp.Validate()
			require.Error(t, err)
			list, ok := err.(*ValidationErrors)
			require.True(t, ok)
			require.Contains(t, list.fields(), tt.field)
		})
	}
}

func TestExperimentCloneIsDeep(t *testing.T) {
	orig := &Experiment{
		ID:         3,
		Status:     StatusLocked,
		Iterations: []Iteration{{ID: 1, ExperimentID: 3, State: IterationDone, Length: LengthMedium}},
	}
	cp := orig.Clone()
	cp.Iterations[0].Length = LengthLong
	cp.Status = StatusUnlocked

	require.Equal(t, LengthMedium, orig.Iterations[0].Length)
	require.Equal(t, StatusLocked, orig.Status)
	require.Nil(t, (*Experiment)(nil).Clone())
}

func TestExperimentLookups(t *testing.T) {
	exp := &Experiment{
		ID:     1,
		Status: StatusUnlocked,
		Iterations: []Iteration{
			{ID: 1, ExperimentID: 1, State: IterationDone, Length: LengthShort},
			{ID: 2, ExperimentID: 1, State: IterationPending, Length: LengthShort},
		},
	}
	it, ok := exp.Iteration(2)
	require.True(t, ok)
	require.Equal(t, IterationPending, it.State)

	_, ok = exp.Iteration(3)
	require.False(t, ok)
	require.Equal(t, 1, exp.PendingCount())
}
