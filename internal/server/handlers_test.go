package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/repstack/repstack/internal/models"
)

// TestParseTimeRange verifies query parsing and the 30-day default.
func TestParseTimeRange(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	start, end, err := parseTimeRange(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := end.Sub(start); d < 29*24*time.Hour || d > 31*24*time.Hour {
		t.Errorf("default range = %v, want ~30 days", d)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions?start=2026-08-01&end=2026-08-28", nil)
	start, end, err = parseTimeRange(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Day() != 1 || end.Day() != 28 {
		t.Errorf("range = %v..%v, want Aug 1..28", start, end)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions?start=yesterday", nil)
	if _, _, err = parseTimeRange(req); err == nil {
		t.Error("expected error for unparseable start")
	}
}

// TestSessionPayloadDraft verifies manual session payloads renumber sets
// 1-based and clamp reps to at least 1.
func TestSessionPayloadDraft(t *testing.T) {
	w := 60.0
	p := &sessionPayload{
		Date:  "2026-08-20",
		Title: "Evening session",
		Exercises: []models.DraftExercise{
			{
				Name: "Overhead Press",
				Sets: []models.DraftSet{
					{Number: 9, WeightKg: &w, Reps: 5},
					{Number: 2, WeightKg: &w, Reps: 0},
				},
			},
		},
	}

	draft, err := p.draft()
	if err != nil {
		t.Fatalf("draft error: %v", err)
	}
	if draft.StartTime.Day() != 20 {
		t.Errorf("start = %v, want Aug 20", draft.StartTime)
	}
	sets := draft.Exercises[0].Sets
	if sets[0].Number != 1 || sets[1].Number != 2 {
		t.Errorf("numbers = %d, %d, want 1, 2", sets[0].Number, sets[1].Number)
	}
	if sets[1].Reps != 1 {
		t.Errorf("reps = %d, want clamped to 1", sets[1].Reps)
	}
}

// TestSessionPayloadDraftBadDate verifies an unparseable date is rejected
// rather than silently replaced.
func TestSessionPayloadDraftBadDate(t *testing.T) {
	p := &sessionPayload{Date: "someday"}
	if _, err := p.draft(); err == nil {
		t.Error("expected error for bad date")
	}
}

// TestWriteError verifies the JSON error envelope.
func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusBadRequest, "nope")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body["error"] != "nope" {
		t.Errorf("body = %v", body)
	}
}

// TestValidMetricPeriod verifies goal enum validation.
func TestValidMetricPeriod(t *testing.T) {
	for _, m := range []models.GoalMetric{models.MetricSteps, models.MetricDistance, models.MetricCalories, models.MetricWorkouts} {
		if !validMetric(m) {
			t.Errorf("validMetric(%q) = false", m)
		}
	}
	if validMetric("stairs") {
		t.Error("validMetric(stairs) = true")
	}
	if !validPeriod(models.PeriodWeekly) || validPeriod("fortnightly") {
		t.Error("period validation wrong")
	}
}

// TestSampleMetric verifies metric extraction from a sample.
func TestSampleMetric(t *testing.T) {
	s := models.ActivitySample{Steps: 8000, DistanceKm: 6.5, Calories: 450, Workouts: 2}
	if got := sampleMetric(s, models.MetricSteps); got != 8000 {
		t.Errorf("steps = %v", got)
	}
	if got := sampleMetric(s, models.MetricDistance); got != 6.5 {
		t.Errorf("distance = %v", got)
	}
	if got := sampleMetric(s, models.MetricWorkouts); got != 2 {
		t.Errorf("workouts = %v", got)
	}
}

// TestApplyGoalUpdate verifies updates touch only target and active, and
// that attempts to change the metric or period are rejected.
func TestApplyGoalUpdate(t *testing.T) {
	stored := models.Goal{
		Metric: models.MetricSteps,
		Period: models.PeriodDaily,
		Target: 8000,
		Active: false,
	}

	got, err := applyGoalUpdate(stored, goalPayload{Target: 10000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Target != 10000 {
		t.Errorf("target = %v, want 10000", got.Target)
	}
	if got.Active {
		t.Error("active flipped without being supplied")
	}

	active := true
	got, err = applyGoalUpdate(stored, goalPayload{Target: 8000, Active: &active})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Active {
		t.Error("active = false, want true")
	}

	// Restating the stored metric is fine; changing it is not.
	if _, err := applyGoalUpdate(stored, goalPayload{Metric: "steps", Target: 9000}); err != nil {
		t.Errorf("restated metric rejected: %v", err)
	}
	if _, err := applyGoalUpdate(stored, goalPayload{Metric: "calories", Target: 9000}); err == nil {
		t.Error("metric change accepted, want error")
	}
	if _, err := applyGoalUpdate(stored, goalPayload{Period: "weekly", Target: 9000}); err == nil {
		t.Error("period change accepted, want error")
	}
}
