package progress

import (
	"time"

	"github.com/repstack/repstack/internal/models"
)

// ActivityTotals is the windowed sum over a set of activity samples.
type ActivityTotals struct {
	Steps      int64   `json:"steps"`
	DistanceKm float64 `json:"distance_km"`
	Calories   float64 `json:"calories"`
	Workouts   int     `json:"workouts"`
}

// Metric extracts the total for one goal metric.
func (t ActivityTotals) Metric(m models.GoalMetric) float64 {
	switch m {
	case models.MetricSteps:
		return float64(t.Steps)
	case models.MetricDistance:
		return t.DistanceKm
	case models.MetricCalories:
		return t.Calories
	case models.MetricWorkouts:
		return float64(t.Workouts)
	}
	return 0
}

// WindowSum totals all samples whose date falls inside [start, end],
// inclusive on both ends. Sample dates are compared at day granularity.
func WindowSum(samples []models.ActivitySample, start, end time.Time) ActivityTotals {
	startDay := truncateDay(start)
	endDay := truncateDay(end)

	var totals ActivityTotals
	for _, s := range samples {
		day := truncateDay(s.Date)
		if day.Before(startDay) || day.After(endDay) {
			continue
		}
		totals.Steps += s.Steps
		totals.DistanceKm += s.DistanceKm
		totals.Calories += s.Calories
		totals.Workouts += s.Workouts
	}
	return totals
}

// Period is one closed goal-evaluation interval.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PeriodsEnding generates n consecutive period boundaries for a
// granularity, most recent first, with the last period ending at ref.
// Weekly periods end on the day of ref; monthly periods are calendar
// months containing ref and its predecessors.
func PeriodsEnding(ref time.Time, granularity models.GoalPeriod, n int) []Period {
	ref = truncateDay(ref)
	periods := make([]Period, 0, n)

	switch granularity {
	case models.PeriodWeekly:
		for i := 0; i < n; i++ {
			end := ref.AddDate(0, 0, -7*i)
			periods = append(periods, Period{Start: end.AddDate(0, 0, -6), End: end})
		}
	case models.PeriodMonthly:
		for i := 0; i < n; i++ {
			first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location()).AddDate(0, -i, 0)
			last := first.AddDate(0, 1, -1)
			if last.After(ref) {
				last = ref
			}
			periods = append(periods, Period{Start: first, End: last})
		}
	default: // daily
		for i := 0; i < n; i++ {
			day := ref.AddDate(0, 0, -i)
			periods = append(periods, Period{Start: day, End: day})
		}
	}

	return periods
}

// Streak counts consecutive periods, starting from the most recent,
// whose windowed sum of the goal's metric meets or exceeds its target.
// Counting stops at the first shortfall. A zero (or negative) target
// yields a zero streak; percentage-of-target style math would otherwise
// divide by zero.
func Streak(samples []models.ActivitySample, goal models.Goal, periods []Period) int {
	if goal.Target <= 0 {
		return 0
	}

	streak := 0
	for _, p := range periods {
		sum := WindowSum(samples, p.Start, p.End).Metric(goal.Metric)
		if sum < goal.Target {
			break
		}
		streak++
	}
	return streak
}

// PeriodProgress is one evaluated goal period, for reporting surfaces.
type PeriodProgress struct {
	Period  Period  `json:"period"`
	Value   float64 `json:"value"`
	Target  float64 `json:"target"`
	Met     bool    `json:"met"`
	Percent float64 `json:"percent"`
}

// Progress evaluates each period against the goal's target. Percent is 0
// when the target is 0.
func Progress(samples []models.ActivitySample, goal models.Goal, periods []Period) []PeriodProgress {
	out := make([]PeriodProgress, 0, len(periods))
	for _, p := range periods {
		value := WindowSum(samples, p.Start, p.End).Metric(goal.Metric)
		pp := PeriodProgress{Period: p, Value: value, Target: goal.Target}
		if goal.Target > 0 {
			pp.Met = value >= goal.Target
			pp.Percent = value / goal.Target * 100
		}
		out = append(out, pp)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
