package store

import "github.com/mugaber/challenge-experiment-module/internal/models"

// SeedTitle is the title every seeded experiment carries.
const SeedTitle = "Experiment Module"

// Seed returns the fixed initial experiments: one Empty, one Unlocked with a
// single iteration and one Locked with two. Each call returns fresh values.
func Seed() []*models.Experiment {
	return []*models.Experiment{
		{
			ID:         1,
			Title:      SeedTitle,
			Status:     models.StatusEmpty,
			Iterations: []models.Iteration{},
		},
		{
			ID:     2,
			Title:  SeedTitle,
			Status: models.StatusUnlocked,
			Iterations: []models.Iteration{
				{ID: 1, Title: models.DoneIterationTitle, ExperimentID: 2, State: models.IterationDone, Length: models.LengthShort},
			},
		},
		{
			ID:     3,
			Title:  SeedTitle,
			Status: models.StatusLocked,
			Iterations: []models.Iteration{
				{ID: 1, Title: models.DoneIterationTitle, ExperimentID: 3, State: models.IterationDone, Length: models.LengthMedium},
				{ID: 2, Title: models.DoneIterationTitle, ExperimentID: 3, State: models.IterationDone, Length: models.LengthLong},
			},
		},
	}
}
