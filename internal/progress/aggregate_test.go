package progress

import (
	"testing"
	"time"

	"github.com/repstack/repstack/internal/models"
)

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

func sample(d int, steps int64) models.ActivitySample {
	return models.ActivitySample{OwnerID: 1, Date: day(d), Steps: steps, DistanceKm: float64(steps) / 1000, Workouts: 1}
}

// TestWindowSumInclusive verifies both boundary days are counted.
func TestWindowSumInclusive(t *testing.T) {
	samples := []models.ActivitySample{
		sample(1, 1000), sample(2, 2000), sample(3, 3000), sample(4, 4000),
	}

	got := WindowSum(samples, day(2), day(3))
	if got.Steps != 5000 {
		t.Errorf("steps = %d, want 5000", got.Steps)
	}
	if got.Workouts != 2 {
		t.Errorf("workouts = %d, want 2", got.Workouts)
	}

	// Single-day window is the day itself.
	if got := WindowSum(samples, day(3), day(3)); got.Steps != 3000 {
		t.Errorf("single day steps = %d, want 3000", got.Steps)
	}
}

// TestWindowSumAdjacency verifies adjacent windows partition the samples:
// the halves sum to the whole.
func TestWindowSumAdjacency(t *testing.T) {
	var samples []models.ActivitySample
	for d := 1; d <= 10; d++ {
		samples = append(samples, sample(d, int64(d*100)))
	}

	whole := WindowSum(samples, day(1), day(10))
	left := WindowSum(samples, day(1), day(5))
	right := WindowSum(samples, day(6), day(10))

	if left.Steps+right.Steps != whole.Steps {
		t.Errorf("halves %d + %d != whole %d", left.Steps, right.Steps, whole.Steps)
	}
	if left.DistanceKm+right.DistanceKm != whole.DistanceKm {
		t.Errorf("distance halves do not sum to the whole")
	}
}

// TestWindowSumIntraDayTimes verifies samples with intra-day timestamps
// still land in the right day window.
func TestWindowSumIntraDayTimes(t *testing.T) {
	samples := []models.ActivitySample{
		{Date: time.Date(2026, 8, 2, 23, 59, 0, 0, time.UTC), Steps: 500},
	}
	if got := WindowSum(samples, day(2), day(2)); got.Steps != 500 {
		t.Errorf("steps = %d, want 500", got.Steps)
	}
	if got := WindowSum(samples, day(3), day(4)); got.Steps != 0 {
		t.Errorf("steps = %d, want 0", got.Steps)
	}
}

// TestPeriodsEnding verifies boundary generation per granularity.
func TestPeriodsEnding(t *testing.T) {
	ref := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)

	daily := PeriodsEnding(ref, models.PeriodDaily, 3)
	if len(daily) != 3 {
		t.Fatalf("daily periods = %d, want 3", len(daily))
	}
	if !daily[0].Start.Equal(day(28)) || !daily[0].End.Equal(day(28)) {
		t.Errorf("daily[0] = %+v, want Aug 28", daily[0])
	}
	if !daily[2].Start.Equal(day(26)) {
		t.Errorf("daily[2] = %+v, want Aug 26", daily[2])
	}

	weekly := PeriodsEnding(ref, models.PeriodWeekly, 2)
	if !weekly[0].Start.Equal(day(22)) || !weekly[0].End.Equal(day(28)) {
		t.Errorf("weekly[0] = %+v, want Aug 22-28", weekly[0])
	}
	if !weekly[1].Start.Equal(day(15)) || !weekly[1].End.Equal(day(21)) {
		t.Errorf("weekly[1] = %+v, want Aug 15-21", weekly[1])
	}

	monthly := PeriodsEnding(ref, models.PeriodMonthly, 2)
	if !monthly[0].Start.Equal(day(1)) || !monthly[0].End.Equal(day(28)) {
		t.Errorf("monthly[0] = %+v, want Aug 1-28 (clamped to ref)", monthly[0])
	}
	wantJulEnd := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	if !monthly[1].End.Equal(wantJulEnd) {
		t.Errorf("monthly[1].End = %v, want Jul 31", monthly[1].End)
	}
}

// TestStreak verifies streaks count back from the most recent period and
// stop at the first shortfall.
func TestStreak(t *testing.T) {
	goal := models.Goal{Metric: models.MetricSteps, Period: models.PeriodDaily, Target: 1000}
	periods := PeriodsEnding(day(10), models.PeriodDaily, 10)

	// Days 8-10 hit the target, day 7 misses, day 6 hits again.
	samples := []models.ActivitySample{
		sample(6, 1500), sample(7, 400),
		sample(8, 1000), sample(9, 2000), sample(10, 1200),
	}
	if got := Streak(samples, goal, periods); got != 3 {
		t.Errorf("streak = %d, want 3", got)
	}

	// Most recent period missing entirely: streak is 0 even with a
	// perfect history behind it.
	samples = []models.ActivitySample{
		sample(8, 1000), sample(9, 2000),
	}
	if got := Streak(samples, goal, periods); got != 0 {
		t.Errorf("streak = %d, want 0", got)
	}

	// Exactly on target counts.
	samples = []models.ActivitySample{sample(10, 1000)}
	if got := Streak(samples, goal, periods); got != 1 {
		t.Errorf("streak = %d, want 1", got)
	}
}

// TestStreakZeroTarget verifies a zero target never yields a streak.
func TestStreakZeroTarget(t *testing.T) {
	goal := models.Goal{Metric: models.MetricSteps, Period: models.PeriodDaily, Target: 0}
	periods := PeriodsEnding(day(10), models.PeriodDaily, 5)
	samples := []models.ActivitySample{sample(10, 99999)}

	if got := Streak(samples, goal, periods); got != 0 {
		t.Errorf("streak = %d, want 0 for zero target", got)
	}
}

// TestProgress verifies per-period evaluation and the zero-target percent
// guard.
func TestProgress(t *testing.T) {
	goal := models.Goal{Metric: models.MetricSteps, Period: models.PeriodDaily, Target: 1000}
	periods := PeriodsEnding(day(10), models.PeriodDaily, 2)
	samples := []models.ActivitySample{sample(10, 500), sample(9, 2000)}

	got := Progress(samples, goal, periods)
	if len(got) != 2 {
		t.Fatalf("progress = %d entries, want 2", len(got))
	}
	if got[0].Met || got[0].Percent != 50 {
		t.Errorf("most recent = %+v, want 50%% unmet", got[0])
	}
	if !got[1].Met || got[1].Percent != 200 {
		t.Errorf("previous = %+v, want 200%% met", got[1])
	}

	goal.Target = 0
	got = Progress(samples, goal, periods)
	if got[0].Percent != 0 || got[0].Met {
		t.Errorf("zero target = %+v, want percent 0, unmet", got[0])
	}
}
