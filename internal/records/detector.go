package records

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/repstack/repstack/internal/exercise"
	"github.com/repstack/repstack/internal/models"
)

// DefaultWeightTolerance absorbs floating rounding when two weights are
// compared for the reps-at-weight lineage.
const DefaultWeightTolerance = 0.01

// Config carries the detector's tunables. The tolerance is explicit
// rather than a buried literal so boundary behavior is testable.
type Config struct {
	WeightTolerance float64
}

func (c Config) tolerance() float64 {
	if c.WeightTolerance <= 0 {
		return DefaultWeightTolerance
	}
	return c.WeightTolerance
}

// Store is the persistence surface the detector needs. UpsertIfGreater
// must be a conditional write: insert when no live record exists for the
// candidate's (owner, exercise key, kind, weight bucket), overwrite only
// when the candidate's value strictly exceeds the stored one, and report
// whether anything changed. That guard is what keeps records monotonic
// under retries and out-of-order writes.
type Store interface {
	ListSetsForExercise(ctx context.Context, ownerID int, key exercise.NormKey, exclude uuid.UUID) ([]models.LoggedSet, error)
	UpsertIfGreater(ctx context.Context, rec models.PersonalBestRecord) (bool, error)
}

// Candidate is one record a newly committed set establishes, with a
// display-ready description.
type Candidate struct {
	Record      models.PersonalBestRecord `json:"record"`
	Description string                    `json:"description"`
}

// Detector evaluates newly committed sets against an owner's history and
// maintains at most one live record per lineage.
type Detector struct {
	store Store
	cfg   Config
	log   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDetector creates a Detector over the given store.
func NewDetector(store Store, cfg Config, log *slog.Logger) *Detector {
	return &Detector{
		store: store,
		cfg:   cfg,
		log:   log,
		locks: make(map[string]*sync.Mutex),
	}
}

// Evaluate runs personal-best detection for one newly committed set and
// upserts any candidates. Evaluations for the same (owner, exercise) are
// serialized; the read-then-conditionally-write sequence would otherwise
// race when an import batch is processed concurrently.
//
// Absence of history is not an error: every value is then a record.
func (d *Detector) Evaluate(ctx context.Context, ownerID int, ref models.ExerciseRef, set models.WorkoutSet) ([]Candidate, error) {
	key := exercise.Normalize(ref.Name)

	unlock := d.lock(ownerID, key)
	defer unlock()

	prior, err := d.store.ListSetsForExercise(ctx, ownerID, key, set.ID)
	if err != nil {
		return nil, fmt.Errorf("listing prior sets: %w", err)
	}

	// Missing weight counts as 0 kg. A true bodyweight exercise can
	// therefore never raise the weight lineage above 0, and a 0 kg
	// warm-up "beats" nothing; see DESIGN.md for why this stands.
	weight := effectiveWeight(set.WeightKg)
	tol := d.cfg.tolerance()

	var candidates []Candidate

	if maxW := maxWeight(prior); weight > maxW {
		candidates = append(candidates, d.weightCandidate(ownerID, ref, set, weight))
	}

	if maxReps := maxRepsNear(prior, weight, tol); set.Reps > maxReps {
		candidates = append(candidates, d.repsCandidate(ownerID, ref, set, weight, tol))
	}

	applied := candidates[:0]
	for _, c := range candidates {
		ok, err := d.store.UpsertIfGreater(ctx, c.Record)
		if err != nil {
			return nil, fmt.Errorf("upserting %s record: %w", c.Record.Kind, err)
		}
		if !ok {
			// A concurrent or out-of-order write already stored an equal
			// or better value; the candidate is silently superseded.
			continue
		}
		applied = append(applied, c)
		d.log.Info("personal best",
			"owner_id", ownerID,
			"exercise", ref.Name,
			"kind", c.Record.Kind,
			"value", c.Record.Value,
		)
	}

	return applied, nil
}

func (d *Detector) weightCandidate(ownerID int, ref models.ExerciseRef, set models.WorkoutSet, weight float64) Candidate {
	w := weight
	return Candidate{
		Record: models.PersonalBestRecord{
			ID:         uuid.New(),
			OwnerID:    ownerID,
			Exercise:   ref,
			Kind:       models.RecordWeight,
			WeightKg:   &w,
			Value:      weight,
			SetID:      set.ID,
			AchievedAt: achievedAt(set),
		},
		Description: fmt.Sprintf("New personal best: heaviest weight (%skg)", formatWeight(weight)),
	}
}

func (d *Detector) repsCandidate(ownerID int, ref models.ExerciseRef, set models.WorkoutSet, weight, tol float64) Candidate {
	w := weight
	return Candidate{
		Record: models.PersonalBestRecord{
			ID:           uuid.New(),
			OwnerID:      ownerID,
			Exercise:     ref,
			Kind:         models.RecordRepsAtWeight,
			WeightKg:     &w,
			WeightBucket: Bucket(weight, tol),
			Value:        float64(set.Reps),
			SetID:        set.ID,
			AchievedAt:   achievedAt(set),
		},
		Description: fmt.Sprintf("New personal best: %d reps at %skg", set.Reps, formatWeight(weight)),
	}
}

// Bucket quantizes a weight into its tolerance-sized equivalence class.
// All weights within one tolerance step share a bucket, which is what
// the record store keys the reps-at-weight lineage by.
func Bucket(weight, tolerance float64) int64 {
	return int64(math.Round(weight / tolerance))
}

// lock serializes detector evaluations per (owner, exercise key).
// Entries are never evicted; the map is bounded by the distinct
// (owner, exercise) pairs seen over the process lifetime, a few
// hundred per lifter.
func (d *Detector) lock(ownerID int, key exercise.NormKey) func() {
	lockKey := strconv.Itoa(ownerID) + "\x00" + string(key)

	d.mu.Lock()
	m, ok := d.locks[lockKey]
	if !ok {
		m = &sync.Mutex{}
		d.locks[lockKey] = m
	}
	d.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func effectiveWeight(w *float64) float64 {
	if w == nil {
		return 0
	}
	return *w
}

func maxWeight(sets []models.LoggedSet) float64 {
	var max float64
	for _, s := range sets {
		if w := effectiveWeight(s.WeightKg); w > max {
			max = w
		}
	}
	return max
}

func maxRepsNear(sets []models.LoggedSet, weight, tol float64) int {
	var max int
	for _, s := range sets {
		if math.Abs(effectiveWeight(s.WeightKg)-weight) > tol {
			continue
		}
		if s.Reps > max {
			max = s.Reps
		}
	}
	return max
}

func achievedAt(set models.WorkoutSet) time.Time {
	if !set.PerformedAt.IsZero() {
		return set.PerformedAt
	}
	return time.Now().UTC()
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}
