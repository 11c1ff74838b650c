package records

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/repstack/repstack/internal/exercise"
	"github.com/repstack/repstack/internal/models"
)

// fakeRecordStore is an in-memory Store for detector tests. It mirrors
// the database guard: a record only replaces an existing one when its
// value is strictly greater.
type fakeRecordStore struct {
	sets    map[string][]models.LoggedSet // ownerID \x00 normkey
	records map[string]models.PersonalBestRecord
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{
		sets:    make(map[string][]models.LoggedSet),
		records: make(map[string]models.PersonalBestRecord),
	}
}

func setKey(ownerID int, key exercise.NormKey) string {
	return strconv.Itoa(ownerID) + "\x00" + string(key)
}

// addSet registers a committed set for an exercise name.
func (s *fakeRecordStore) addSet(ownerID int, name string, set models.WorkoutSet) {
	k := setKey(ownerID, exercise.Normalize(name))
	s.sets[k] = append(s.sets[k], models.LoggedSet{
		ID:          set.ID,
		WeightKg:    set.WeightKg,
		Reps:        set.Reps,
		PerformedAt: set.PerformedAt,
	})
}

func (s *fakeRecordStore) ListSetsForExercise(_ context.Context, ownerID int, key exercise.NormKey, exclude uuid.UUID) ([]models.LoggedSet, error) {
	var out []models.LoggedSet
	for _, set := range s.sets[setKey(ownerID, key)] {
		if set.ID == exclude {
			continue
		}
		out = append(out, set)
	}
	return out, nil
}

func (s *fakeRecordStore) UpsertIfGreater(_ context.Context, rec models.PersonalBestRecord) (bool, error) {
	k := recordKey(rec)
	existing, ok := s.records[k]
	if ok && rec.Value <= existing.Value {
		return false, nil
	}
	s.records[k] = rec
	return true, nil
}

func recordKey(rec models.PersonalBestRecord) string {
	return strconv.Itoa(rec.OwnerID) + "\x00" + string(exercise.Normalize(rec.Exercise.Name)) +
		"\x00" + string(rec.Kind) + "\x00" + strconv.FormatInt(rec.WeightBucket, 10)
}

func testDetector(store Store) *Detector {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDetector(store, Config{}, log)
}

func weightedSet(weight float64, reps int) models.WorkoutSet {
	return models.WorkoutSet{
		ID:          uuid.New(),
		WeightKg:    &weight,
		Reps:        reps,
		PerformedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

// evaluate commits a set to the fake store and runs detection, the same
// order the ingest pipeline uses.
func evaluate(t *testing.T, d *Detector, store *fakeRecordStore, ownerID int, name string, set models.WorkoutSet) []Candidate {
	t.Helper()
	store.addSet(ownerID, name, set)
	ref := models.CatalogRef(uuid.New(), name, "")
	got, err := d.Evaluate(context.Background(), ownerID, ref, set)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}
	return got
}

// TestFirstSetIsRecord verifies an owner's first set for an exercise
// establishes both lineages.
func TestFirstSetIsRecord(t *testing.T) {
	store := newFakeRecordStore()
	d := testDetector(store)

	got := evaluate(t, d, store, 1, "Bench Press", weightedSet(100, 5))
	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2 (weight + reps)", len(got))
	}
	if got[0].Record.Kind != models.RecordWeight || got[0].Record.Value != 100 {
		t.Errorf("weight record = %+v", got[0].Record)
	}
	if got[1].Record.Kind != models.RecordRepsAtWeight || got[1].Record.Value != 5 {
		t.Errorf("reps record = %+v", got[1].Record)
	}
	if got[0].Description != "New personal best: heaviest weight (100kg)" {
		t.Errorf("description = %q", got[0].Description)
	}
	if got[1].Description != "New personal best: 5 reps at 100kg" {
		t.Errorf("description = %q", got[1].Description)
	}
}

// TestStrictlyGreater verifies equal values never re-arm a record.
func TestStrictlyGreater(t *testing.T) {
	store := newFakeRecordStore()
	d := testDetector(store)

	evaluate(t, d, store, 1, "Squat", weightedSet(140, 5))

	// Same weight, same reps: no new records.
	got := evaluate(t, d, store, 1, "Squat", weightedSet(140, 5))
	if len(got) != 0 {
		t.Fatalf("candidates = %d, want 0 for a tie", len(got))
	}

	// More reps at the same weight: reps lineage only.
	got = evaluate(t, d, store, 1, "Squat", weightedSet(140, 6))
	if len(got) != 1 || got[0].Record.Kind != models.RecordRepsAtWeight {
		t.Fatalf("candidates = %+v, want one reps_at_weight", got)
	}

	// Heavier but fewer reps: weight lineage only (new bucket also
	// yields a reps record at the new weight).
	got = evaluate(t, d, store, 1, "Squat", weightedSet(150, 1))
	kinds := map[models.RecordKind]bool{}
	for _, c := range got {
		kinds[c.Record.Kind] = true
	}
	if !kinds[models.RecordWeight] {
		t.Errorf("candidates = %+v, want a weight record", got)
	}
}

// TestWeightToleranceBuckets verifies weights within the tolerance share
// a reps-at-weight lineage and weights beyond it do not.
func TestWeightToleranceBuckets(t *testing.T) {
	store := newFakeRecordStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDetector(store, Config{WeightTolerance: 0.5}, log)

	evaluate(t, d, store, 1, "Deadlift", weightedSet(100, 5))

	// 100.4 is within 0.5 of 100: fewer reps there is no record.
	set := weightedSet(100.4, 4)
	store.addSet(1, "Deadlift", set)
	got, err := d.Evaluate(context.Background(), 1, models.CatalogRef(uuid.New(), "Deadlift", ""), set)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}
	for _, c := range got {
		if c.Record.Kind == models.RecordRepsAtWeight {
			t.Errorf("4 reps near 100 should not beat 5 reps: %+v", c)
		}
	}

	// 101 is beyond the tolerance: its own lineage, so 4 reps records.
	set = weightedSet(101, 4)
	store.addSet(1, "Deadlift", set)
	got, err = d.Evaluate(context.Background(), 1, models.CatalogRef(uuid.New(), "Deadlift", ""), set)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}
	found := false
	for _, c := range got {
		if c.Record.Kind == models.RecordRepsAtWeight && c.Record.Value == 4 {
			found = true
		}
	}
	if !found {
		t.Errorf("got %+v, want a reps record at the 101 bucket", got)
	}
}

// TestOrderIndependence verifies replaying the same sets in a different
// order converges on the same final records.
func TestOrderIndependence(t *testing.T) {
	sets := []models.WorkoutSet{
		weightedSet(100, 5),
		weightedSet(110, 3),
		weightedSet(105, 8),
	}

	run := func(order []int) map[string]models.PersonalBestRecord {
		store := newFakeRecordStore()
		d := testDetector(store)
		for _, i := range order {
			store.addSet(1, "Row", sets[i])
			if _, err := d.Evaluate(context.Background(), 1, models.CatalogRef(uuid.New(), "Row", ""), sets[i]); err != nil {
				t.Fatalf("evaluate error: %v", err)
			}
		}
		return store.records
	}

	a := run([]int{0, 1, 2})
	b := run([]int{2, 1, 0})

	if len(a) != len(b) {
		t.Fatalf("record counts differ: %d vs %d", len(a), len(b))
	}
	for k, ra := range a {
		rb, ok := b[k]
		if !ok {
			t.Errorf("lineage %q missing from reversed run", k)
			continue
		}
		if ra.Value != rb.Value {
			t.Errorf("lineage %q value %v vs %v", k, ra.Value, rb.Value)
		}
	}
}

// TestNullWeightSets verifies bodyweight sets (nil weight) count as 0 kg:
// they never raise the weight lineage but do compete on reps at 0.
func TestNullWeightSets(t *testing.T) {
	store := newFakeRecordStore()
	d := testDetector(store)

	set := models.WorkoutSet{ID: uuid.New(), Reps: 12, PerformedAt: time.Now()}
	store.addSet(1, "Pull Up", set)
	got, err := d.Evaluate(context.Background(), 1, models.CatalogRef(uuid.New(), "Pull Up", ""), set)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}
	if len(got) != 1 || got[0].Record.Kind != models.RecordRepsAtWeight {
		t.Fatalf("candidates = %+v, want only reps_at_weight", got)
	}
	if got[0].Record.Value != 12 {
		t.Errorf("value = %v, want 12", got[0].Record.Value)
	}

	// More reps beats it; a later weighted set starts the weight lineage.
	set = models.WorkoutSet{ID: uuid.New(), Reps: 15, PerformedAt: time.Now()}
	got = evaluate(t, d, store, 1, "Pull Up", set)
	if len(got) != 1 || got[0].Record.Value != 15 {
		t.Fatalf("candidates = %+v, want one 15-rep record", got)
	}

	got = evaluate(t, d, store, 1, "Pull Up", weightedSet(20, 5))
	kinds := map[models.RecordKind]bool{}
	for _, c := range got {
		kinds[c.Record.Kind] = true
	}
	if !kinds[models.RecordWeight] || !kinds[models.RecordRepsAtWeight] {
		t.Errorf("candidates = %+v, want both lineages at 20kg", got)
	}
}

// TestCrossRepresentationIdentity verifies catalog and custom references
// with equivalent names share record lineages.
func TestCrossRepresentationIdentity(t *testing.T) {
	store := newFakeRecordStore()
	d := testDetector(store)

	set := weightedSet(100, 5)
	store.addSet(1, "Barbell Bench Press", set)
	if _, err := d.Evaluate(context.Background(), 1, models.CatalogRef(uuid.New(), "Barbell Bench Press", ""), set); err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	// Same exercise logged under a custom spelling: the 100 kg history
	// applies, so 90 kg is no record.
	set = weightedSet(90, 3)
	store.addSet(1, "Bench Press (Barbell)", set)
	got, err := d.Evaluate(context.Background(), 1, models.CustomRef(uuid.New(), 1, "Bench Press (Barbell)", ""), set)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}
	for _, c := range got {
		if c.Record.Kind == models.RecordWeight {
			t.Errorf("90kg should not beat 100kg across spellings: %+v", c)
		}
	}
}

// TestBucket verifies the tolerance quantization.
func TestBucket(t *testing.T) {
	tests := []struct {
		weight, tol float64
		want        int64
	}{
		{100, 0.01, 10000},
		{100.004, 0.01, 10000},
		{100.006, 0.01, 10001},
		{0, 0.01, 0},
		{2.5, 0.5, 5},
	}
	for _, tt := range tests {
		if got := Bucket(tt.weight, tt.tol); got != tt.want {
			t.Errorf("Bucket(%v, %v) = %d, want %d", tt.weight, tt.tol, got, tt.want)
		}
	}
}
