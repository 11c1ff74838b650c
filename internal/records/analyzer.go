package records

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/repstack/repstack/internal/exercise"
)

// DayStats aggregates one day of sets for an exercise.
type DayStats struct {
	AvgKg       float64 `json:"avg_kg"`
	AvgReps     float64 `json:"avg_reps"`
	MaxWeightKg float64 `json:"max_weight_kg"`
	Sets        int     `json:"sets"`
}

// ExerciseHistory is the per-day progress history of one exercise,
// aggregated across catalog and custom representations with the same
// normalized name key.
type ExerciseHistory struct {
	Exercise string                 `json:"exercise"`
	Key      string                 `json:"key"`
	Days     map[time.Time]DayStats `json:"days"`
}

// Analyzer derives progress history from stored sets.
type Analyzer struct {
	store Store
}

// NewAnalyzer creates an Analyzer over the given store.
func NewAnalyzer(store Store) *Analyzer {
	return &Analyzer{store: store}
}

// History returns per-day average load and reps plus set counts for one
// exercise name. The lookup goes through the normalized key, so a custom
// "Bench Press (Barbell)" and the catalog's "Barbell Bench Press"
// contribute to the same history.
func (a *Analyzer) History(ctx context.Context, ownerID int, name string) (*ExerciseHistory, error) {
	key := exercise.Normalize(name)

	sets, err := a.store.ListSetsForExercise(ctx, ownerID, key, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("listing sets: %w", err)
	}

	history := &ExerciseHistory{
		Exercise: name,
		Key:      string(key),
		Days:     make(map[time.Time]DayStats),
	}

	type acc struct {
		kg   float64
		reps int
		max  float64
		n    int
	}
	byDay := make(map[time.Time]*acc)
	for _, s := range sets {
		day := s.PerformedAt.Truncate(24 * time.Hour)
		b, ok := byDay[day]
		if !ok {
			b = &acc{}
			byDay[day] = b
		}
		w := effectiveWeight(s.WeightKg)
		b.kg += w
		b.reps += s.Reps
		if w > b.max {
			b.max = w
		}
		b.n++
	}

	for day, b := range byDay {
		history.Days[day] = DayStats{
			AvgKg:       b.kg / float64(b.n),
			AvgReps:     float64(b.reps) / float64(b.n),
			MaxWeightKg: b.max,
			Sets:        b.n,
		}
	}

	return history, nil
}
