package mcp

import (
	"context"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/repstack/repstack/internal/exercise"
	"github.com/repstack/repstack/internal/models"
	"github.com/repstack/repstack/internal/progress"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetPersonalBests = mcp.NewTool("get_personal_bests",
	mcp.WithDescription("List live personal-best records. Each lineage (heaviest weight, or most reps at a given weight) carries at most one live record per exercise."),
	mcp.WithString("exercise", mcp.Description("Filter by exercise name (matched on the normalized name, so word order and punctuation do not matter)")),
)

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("List workout session summaries (title, start time, notes) in a date range. Use get_exercise_history for per-exercise set detail."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetExerciseHistory = mcp.NewTool("get_exercise_history",
	mcp.WithDescription("Per-day progress history for one exercise: average load, average reps, max weight, and set counts. Catalog and custom exercises with the same normalized name share one history."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name (e.g. 'Barbell Bench Press')")),
)

var toolGetActivitySummary = mcp.NewTool("get_activity_summary",
	mcp.WithDescription("Sum daily activity samples (steps, distance, calories, workout count) over an inclusive date range."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetGoalStreaks = mcp.NewTool("get_goal_streaks",
	mcp.WithDescription("Current streak and per-period progress for every active goal, evaluated over the trailing periods."),
	mcp.WithString("periods", mcp.Description("Number of trailing periods to evaluate per goal. Defaults to 12.")),
)

var toolGetForecast = mcp.NewTool("get_forecast",
	mcp.WithDescription("Fit a moving-average or exponential-smoothing forecast over one activity metric and project it forward with a confidence band."),
	mcp.WithString("metric", mcp.Description("Activity metric name. Defaults to 'steps'."), mcp.Enum("steps", "distance", "calories", "workouts")),
	mcp.WithString("method", mcp.Description("Forecast method. Defaults to moving average."), mcp.Enum("moving_average", "exponential")),
	mcp.WithString("window", mcp.Description("Moving-average window in days, positive. Defaults to 7.")),
	mcp.WithString("decay", mcp.Description("Exponential smoothing factor, between 0 and 1 exclusive. Defaults to 0.3.")),
	mcp.WithString("start", mcp.Description("History start date. Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("History end date. Defaults to now.")),
	mcp.WithString("horizon", mcp.Description("Days to project forward. Defaults to 7.")),
)

// --- Tool handlers ---

func (h *handlers) getPersonalBests(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	key := ""
	if name := req.GetString("exercise", ""); name != "" {
		key = string(exercise.Normalize(name))
	}

	recs, err := h.ds.ListRecords(ctx, uid, key)
	if err != nil {
		h.log.Error("mcp get_personal_bests", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(recs)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	sessions, err := h.ds.ListSessions(ctx, uid, start, end)
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExerciseHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	uid := UserIDFromContext(ctx)
	history, err := h.analyzer.History(ctx, uid, name)
	if err != nil {
		h.log.Error("mcp get_exercise_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(history)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getActivitySummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	samples, err := h.ds.ListActivitySamples(ctx, uid, start, end)
	if err != nil {
		h.log.Error("mcp get_activity_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
		"totals": progress.WindowSum(samples, start, end),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getGoalStreaks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	n := 12
	if v := req.GetString("periods", ""); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}

	goals, err := h.ds.ListGoals(ctx, uid, true)
	if err != nil {
		h.log.Error("mcp get_goal_streaks", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	now := time.Now().UTC()
	out := make([]map[string]any, 0, len(goals))
	for _, goal := range goals {
		periods := progress.PeriodsEnding(now, goal.Period, n)
		if len(periods) == 0 {
			continue
		}
		samples, err := h.ds.ListActivitySamples(ctx, uid, periods[len(periods)-1].Start, periods[0].End)
		if err != nil {
			h.log.Error("mcp get_goal_streaks", "goal", goal.ID, "error", err)
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		out = append(out, map[string]any{
			"goal":    goal,
			"streak":  progress.Streak(samples, goal, periods),
			"periods": progress.Progress(samples, goal, periods),
		})
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getForecast(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	metric := models.GoalMetric(req.GetString("metric", string(models.MetricSteps)))
	opts := progress.ForecastOptions{
		Method:  progress.Method(req.GetString("method", "")),
		Horizon: 7,
	}
	if v := req.GetString("window", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return mcp.NewToolResultError("invalid window: " + v), nil
		}
		opts.Window = &n
	}
	if v := req.GetString("decay", ""); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return mcp.NewToolResultError("invalid decay: " + v), nil
		}
		opts.Decay = &f
	}
	if v := req.GetString("horizon", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			opts.Horizon = n
		}
	}

	uid := UserIDFromContext(ctx)
	samples, err := h.ds.ListActivitySamples(ctx, uid, start, end)
	if err != nil {
		h.log.Error("mcp get_forecast", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	points := make([]progress.SamplePoint, 0, len(samples))
	for _, smp := range samples {
		points = append(points, progress.SamplePoint{Date: smp.Date, Value: metricValue(smp, metric)})
	}

	series, err := progress.Forecast(points, opts)
	if err != nil {
		return mcp.NewToolResultError("forecast failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(series)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func metricValue(s models.ActivitySample, m models.GoalMetric) float64 {
	switch m {
	case models.MetricDistance:
		return s.DistanceKm
	case models.MetricCalories:
		return s.Calories
	case models.MetricWorkouts:
		return float64(s.Workouts)
	default:
		return float64(s.Steps)
	}
}
