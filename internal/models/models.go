package models

import (
	"time"

	"github.com/google/uuid"
)

// ExerciseRefKind discriminates the two exercise reference variants.
type ExerciseRefKind string

const (
	// ExerciseCatalog references a shared catalog exercise.
	ExerciseCatalog ExerciseRefKind = "catalog"
	// ExerciseCustom references a user-owned custom exercise.
	ExerciseCustom ExerciseRefKind = "custom"
)

// ExerciseRef is a tagged reference to exactly one exercise definition,
// either from the shared catalog or from a user's custom list. The Kind
// tag plus a single ID replace the two-nullable-foreign-keys shape of
// typical schemas, so "exactly one is set" holds by construction.
type ExerciseRef struct {
	Kind     ExerciseRefKind `json:"kind"`
	ID       uuid.UUID       `json:"id"`
	OwnerID  int             `json:"owner_id,omitempty"` // custom only
	Name     string          `json:"name"`
	BodyPart string          `json:"body_part,omitempty"`
}

// CatalogRef builds a reference to a catalog exercise.
func CatalogRef(id uuid.UUID, name, bodyPart string) ExerciseRef {
	return ExerciseRef{Kind: ExerciseCatalog, ID: id, Name: name, BodyPart: bodyPart}
}

// CustomRef builds a reference to a user-owned custom exercise.
func CustomRef(id uuid.UUID, ownerID int, name, bodyPart string) ExerciseRef {
	return ExerciseRef{Kind: ExerciseCustom, ID: id, OwnerID: ownerID, Name: name, BodyPart: bodyPart}
}

// IsCatalog reports whether the reference points at a catalog exercise.
func (r ExerciseRef) IsCatalog() bool { return r.Kind == ExerciseCatalog }

// IsCustom reports whether the reference points at a custom exercise.
func (r ExerciseRef) IsCustom() bool { return r.Kind == ExerciseCustom }

// WorkoutSession is one workout occasion: a dated, optionally titled
// collection of exercise items.
type WorkoutSession struct {
	ID      uuid.UUID     `json:"id"`
	OwnerID int           `json:"owner_id"`
	Date    time.Time     `json:"date"`
	Title   string        `json:"title,omitempty"`
	Notes   string        `json:"notes,omitempty"`
	Items   []WorkoutItem `json:"items"`
}

// WorkoutItem is one exercise within a session, holding its ordered sets.
type WorkoutItem struct {
	ID         uuid.UUID    `json:"id"`
	SessionID  uuid.UUID    `json:"session_id"`
	Exercise   ExerciseRef  `json:"exercise"`
	OrderIndex int          `json:"order_index"`
	Sets       []WorkoutSet `json:"sets"`
}

// WorkoutSet is a single performed set. Weight is nullable (bodyweight
// work has none), reps are at least 1, RPE is optional 1-10.
type WorkoutSet struct {
	ID          uuid.UUID `json:"id"`
	ItemID      uuid.UUID `json:"item_id"`
	Number      int       `json:"number"` // 1-based, contiguous within the item
	Type        string    `json:"type,omitempty"`
	WeightKg    *float64  `json:"weight_kg,omitempty"`
	Reps        int       `json:"reps"`
	RPE         *float64  `json:"rpe,omitempty"`
	Note        string    `json:"note,omitempty"`
	PerformedAt time.Time `json:"performed_at"`
}

// RecordKind names a personal-best lineage.
type RecordKind string

const (
	// RecordWeight is the heaviest weight ever logged, regardless of reps.
	RecordWeight RecordKind = "weight"
	// RecordRepsAtWeight is the most reps ever logged at one weight bucket.
	RecordRepsAtWeight RecordKind = "reps_at_weight"
)

// PersonalBestRecord is the single live record of one lineage for one
// (owner, exercise) pair. Superseded records are overwritten in place.
type PersonalBestRecord struct {
	ID           uuid.UUID   `json:"id"`
	OwnerID      int         `json:"owner_id"`
	Exercise     ExerciseRef `json:"exercise"`
	Kind         RecordKind  `json:"kind"`
	WeightKg     *float64    `json:"weight_kg,omitempty"` // required for reps_at_weight
	WeightBucket int64       `json:"-"`                   // tolerance-quantized weight, 0 for kind=weight
	Value        float64     `json:"value"`
	SetID        uuid.UUID   `json:"set_id"`
	AchievedAt   time.Time   `json:"achieved_at"`
}

// ActivitySample is one day of activity totals for one user, the unit
// the progress aggregator sums over.
type ActivitySample struct {
	OwnerID      int       `json:"owner_id"`
	Date         time.Time `json:"date"`
	Steps        int64     `json:"steps"`
	DistanceKm   float64   `json:"distance_km"`
	Calories     float64   `json:"calories"`
	HeartRateAvg *float64  `json:"heart_rate_avg,omitempty"`
	Workouts     int       `json:"workouts"`
}

// GoalMetric names the activity quantity a goal targets.
type GoalMetric string

const (
	MetricSteps    GoalMetric = "steps"
	MetricDistance GoalMetric = "distance"
	MetricCalories GoalMetric = "calories"
	MetricWorkouts GoalMetric = "workouts"
)

// GoalPeriod is the granularity a goal is evaluated over.
type GoalPeriod string

const (
	PeriodDaily   GoalPeriod = "daily"
	PeriodWeekly  GoalPeriod = "weekly"
	PeriodMonthly GoalPeriod = "monthly"
)

// Goal is a user target for one metric over one period granularity.
// Progress and streak are derived from samples, never stored.
type Goal struct {
	ID      uuid.UUID  `json:"id"`
	OwnerID int        `json:"owner_id"`
	Metric  GoalMetric `json:"metric"`
	Period  GoalPeriod `json:"period"`
	Target  float64    `json:"target"`
	Active  bool       `json:"active"`
}

// WorkoutDraft is a parsed-but-unpersisted session produced by the
// tabular import parser. Exercises are still free-text names at this
// stage; the resolver turns them into ExerciseRefs.
type WorkoutDraft struct {
	Title     string
	StartTime time.Time
	EndTime   *time.Time
	Notes     string
	Exercises []DraftExercise
}

// DraftExercise is one exercise group within a WorkoutDraft, holding its
// sets in final 1-based order.
type DraftExercise struct {
	Name  string
	Notes string
	Sets  []DraftSet
}

// DraftSet mirrors WorkoutSet before ids exist.
type DraftSet struct {
	Number   int
	Type     string
	WeightKg *float64
	Reps     int
	RPE      *float64
}

// LoggedSet is the minimal view of a stored set the personal-best
// detector compares against.
type LoggedSet struct {
	ID          uuid.UUID
	WeightKg    *float64
	Reps        int
	PerformedAt time.Time
}
