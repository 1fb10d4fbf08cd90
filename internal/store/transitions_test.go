package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mugaber/challenge-experiment-module/internal/models"
)

func seedState() State {
	return State{Experiments: Seed()}
}

func mustExperiment(t *testing.T, s State, id int) *models.Experiment {
	t.Helper()
	exp, ok := s.Experiment(id)
	require.True(t, ok, "experiment %d missing", id)
	return exp
}

func iterationIDs(exp *models.Experiment) []int {
	ids := make([]int, 0, len(exp.Iterations))
	for _, it := range exp.Iterations {
		ids = append(ids, it.ID)
	}
	return ids
}

func TestAddThenDoneOnEmptyExperiment(t *testing.T) {
	s := seedState()

	s = AddIteration(s, 1)
	exp := mustExperiment(t, s, 1)
	require.Equal(t, models.StatusUnlocked, exp.Status)
	require.Len(t, exp.Iterations, 1)
	require.Equal(t, models.Iteration{
		ID:           1,
		Title:        models.PendingIterationTitle,
		ExperimentID: 1,
		State:        models.IterationPending,
		Length:       models.LengthShort,
	}, exp.Iterations[0])
	require.Equal(t, &models.ActiveIteration{ExperimentID: 1, IterationID: 1}, s.Active)

	s = ResolveIteration(s, OperationDone, models.DoneIterationTitle)
	exp = mustExperiment(t, s, 1)
	require.Equal(t, models.IterationDone, exp.Iterations[0].State)
	require.Equal(t, models.DoneIterationTitle, exp.Iterations[0].Title)
	require.Equal(t, 1, exp.Iterations[0].ID)
	require.Equal(t, models.StatusUnlocked, exp.Status)
	require.Nil(t, s.Active)
}

func TestRemoveRenumbersRemainingIterations(t *testing.T) {
	s := seedState()
	s = ToggleLock(s, 3)
	s = AddIteration(s, 3)
	s = ResolveIteration(s, OperationDone, models.DoneIterationTitle)
	before := mustExperiment(t, s, 3)
	require.Equal(t, []int{1, 2, 3}, iterationIDs(before))
	formerThird := before.Iterations[2]

	s = RemoveIteration(s, 3, 2)
	exp := mustExperiment(t, s, 3)
	require.Equal(t, []int{1, 2}, iterationIDs(exp))
	require.Equal(t, models.LengthMedium, exp.Iterations[0].Length)
	require.Equal(t, formerThird.Title, exp.Iterations[1].Title)
	require.Equal(t, formerThird.Length, exp.Iterations[1].Length)

	// The previous snapshot is untouched.
	require.Equal(t, []int{1, 2, 3}, iterationIDs(before))
}

func TestRemoveLastIterationEmptiesExperiment(t *testing.T) {
	s := RemoveIteration(seedState(), 2, 1)
	exp := mustExperiment(t, s, 2)
	require.Empty(t, exp.Iterations)
	require.Equal(t, models.StatusEmpty, exp.Status)
}

func TestToggleLockFlipsBothWays(t *testing.T) {
	s := ToggleLock(seedState(), 2)
	require.Equal(t, models.StatusLocked, mustExperiment(t, s, 2).Status)
	require.Len(t, mustExperiment(t, s, 2).Iterations, 1)

	s = ToggleLock(s, 2)
	require.Equal(t, models.StatusUnlocked, mustExperiment(t, s, 2).Status)
}

func TestToggleLockOnEmptyLocks(t *testing.T) {
	s := ToggleLock(seedState(), 1)
	require.Equal(t, models.StatusLocked, mustExperiment(t, s, 1).Status)
}

func TestToggleLockKeepsActivePointer(t *testing.T) {
	s := AddIteration(seedState(), 2)
	active := *s.Active
	s = ToggleLock(s, 2)
	require.Equal(t, &active, s.Active)
}

func TestSecondAddOrphansFirstPendingIteration(t *testing.T) {
	s := AddIteration(seedState(), 1)
	s = AddIteration(s, 1)

	exp := mustExperiment(t, s, 1)
	require.Len(t, exp.Iterations, 2)
	require.Equal(t, &models.ActiveIteration{ExperimentID: 1, IterationID: 2}, s.Active)
	require.Equal(t, models.IterationPending, exp.Iterations[0].State)
	require.Equal(t, models.IterationPending, exp.Iterations[1].State)

	s = ResolveIteration(s, OperationDone, models.DoneIterationTitle)
	exp = mustExperiment(t, s, 1)
	require.Equal(t, models.IterationPending, exp.Iterations[0].State)
	require.Equal(t, models.IterationDone, exp.Iterations[1].State)
	require.Nil(t, s.Active)
}

func TestAddOnLockedExperimentIsNoop(t *testing.T) {
	s := seedState()
	next := AddIteration(s, 3)
	for i := range s.Experiments {
		require.Same(t, s.Experiments[i], next.Experiments[i])
	}
	require.Nil(t, next.Active)
	require.Len(t, mustExperiment(t, next, 3).Iterations, 2)
}

func TestAddCancelRoundTrip(t *testing.T) {
	for _, id := range []int{1, 2} {
		s := seedState()
		before := mustExperiment(t, s, id)

		s = AddIteration(s, id)
		s = ResolveIteration(s, OperationCancel, models.DoneIterationTitle)

		after := mustExperiment(t, s, id)
		require.Equal(t, before.Status, after.Status, "experiment %d", id)
		require.Equal(t, before.Iterations, after.Iterations, "experiment %d", id)
		require.Nil(t, s.Active)
	}
}

func TestResolveWithoutActiveIsNoop(t *testing.T) {
	s := seedState()
	for _, op := range []Operation{OperationDone, OperationCancel} {
		next := ResolveIteration(s, op, models.DoneIterationTitle)
		require.Nil(t, next.Active)
		for i := range s.Experiments {
			require.Same(t, s.Experiments[i], next.Experiments[i])
		}
	}
}

func TestResolveWithStalePointerKeepsExperiments(t *testing.T) {
	s := AddIteration(seedState(), 1)
	s = RemoveIteration(s, 1, 1)
	require.NotNil(t, s.Active)

	for _, op := range []Operation{OperationDone, OperationCancel} {
		next := ResolveIteration(s, op, models.DoneIterationTitle)
		require.Nil(t, next.Active)
		for i := range s.Experiments {
			require.Same(t, s.Experiments[i], next.Experiments[i])
		}
	}
}

func TestResolveFollowsPointerNotPendingScan(t *testing.T) {
	s := AddIteration(seedState(), 1)
	s = AddIteration(s, 2)
	// Point back at experiment 1 out of band.
	s.Active = &models.ActiveIteration{ExperimentID: 1, IterationID: 1}

	s = ResolveIteration(s, OperationCancel, models.DoneIterationTitle)
	require.Equal(t, models.StatusEmpty, mustExperiment(t, s, 1).Status)
	exp2 := mustExperiment(t, s, 2)
	require.Len(t, exp2.Iterations, 2)
	require.Equal(t, models.IterationPending, exp2.Iterations[1].State)
}

func TestResetClearsIterationsAndIsIdempotent(t *testing.T) {
	once := ResetExperiment(seedState(), 3)
	exp := mustExperiment(t, once, 3)
	require.Equal(t, models.StatusEmpty, exp.Status)
	require.Empty(t, exp.Iterations)

	twice := ResetExperiment(once, 3)
	require.Equal(t, once.Active, twice.Active)
	for i := range once.Experiments {
		require.Equal(t, *once.Experiments[i], *twice.Experiments[i])
	}
}

func TestResetClearsActivePointerGlobally(t *testing.T) {
	s := AddIteration(seedState(), 1)
	require.NotNil(t, s.Active)

	s = ResetExperiment(s, 2)
	require.Nil(t, s.Active)
	// The pending iteration of experiment 1 is orphaned, not removed.
	require.Equal(t, models.IterationPending, mustExperiment(t, s, 1).Iterations[0].State)
}

func TestUpdateIterationLength(t *testing.T) {
	s := AddIteration(seedState(), 2)
	active := *s.Active

	s = UpdateIterationLength(s, 2, 1, models.LengthLong)
	exp := mustExperiment(t, s, 2)
	require.Equal(t, models.LengthLong, exp.Iterations[0].Length)
	require.Equal(t, models.StatusUnlocked, exp.Status)
	require.Equal(t, []int{1, 2}, iterationIDs(exp))
	require.Equal(t, &active, s.Active)

	// Pending iterations accept a new length as well.
	s = UpdateIterationLength(s, 2, 2, models.LengthMedium)
	require.Equal(t, models.LengthMedium, mustExperiment(t, s, 2).Iterations[1].Length)
}

func TestUpdateIterationLengthRejectsUnknownValues(t *testing.T) {
	s := seedState()
	next := UpdateIterationLength(s, 2, 1, "huge")
	require.Same(t, s.Experiments[1], next.Experiments[1])
}

func TestRemoveDoesNotAdjustActivePointer(t *testing.T) {
	s := AddIteration(seedState(), 2)
	require.Equal(t, 2, s.Active.IterationID)

	s = RemoveIteration(s, 2, 1)
	// The pending iteration is now id 1, the pointer still says 2.
	require.Equal(t, &models.ActiveIteration{ExperimentID: 2, IterationID: 2}, s.Active)
	require.Equal(t, models.IterationPending, mustExperiment(t, s, 2).Iterations[0].State)
}

func TestUnknownIDsAreNoops(t *testing.T) {
	s := seedState()
	cases := map[string]State{
		"add":    AddIteration(s, 99),
		"length": UpdateIterationLength(s, 99, 1, models.LengthLong),
		"remove": RemoveIteration(s, 99, 1),
		"lock":   ToggleLock(s, 99),
		"reset":  ResetExperiment(s, 99),

		"iteration length": UpdateIterationLength(s, 2, 99, models.LengthLong),
		"iteration remove": RemoveIteration(s, 2, 99),
	}
	for name, next := range cases {
		require.Len(t, next.Experiments, len(s.Experiments), name)
		for i := range s.Experiments {
			require.Same(t, s.Experiments[i], next.Experiments[i], name)
		}
	}
}

func TestTransitionsReplaceOnlyTargetExperiment(t *testing.T) {
	s := seedState()
	next := AddIteration(s, 2)
	require.Same(t, s.Experiments[0], next.Experiments[0])
	require.NotSame(t, s.Experiments[1], next.Experiments[1])
	require.Same(t, s.Experiments[2], next.Experiments[2])

	// The earlier snapshot keeps its single iteration.
	require.Len(t, s.Experiments[1].Iterations, 1)
	require.Len(t, next.Experiments[1].Iterations, 2)
}

func TestSeedIsFreshEachCall(t *testing.T) {
	a := Seed()
	b := Seed()
	a[1].Iterations[0].Length = models.LengthLong
	require.Equal(t, models.LengthShort, b[1].Iterations[0].Length)

	require.NoError(t, State{Experiments: b}.Validate())
	require.Equal(t, []models.Status{models.StatusEmpty, models.StatusUnlocked, models.StatusLocked},
		[]models.Status{b[0].Status, b[1].Status, b[2].Status})
	require.Equal(t, []int{0, 1, 2}, []int{len(b[0].Iterations), len(b[1].Iterations), len(b[2].Iterations)})
}
