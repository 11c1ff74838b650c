package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/repstack/repstack/internal/models"
	"github.com/repstack/repstack/internal/progress"
)

// handleActivityIngest stores daily activity samples from the request
// body, overwriting existing days.
func (s *Server) handleActivityIngest(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)

	var samples []models.ActivitySample
	if err := json.NewDecoder(r.Body).Decode(&samples); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	for i := range samples {
		samples[i].OwnerID = uid
	}

	written, err := s.db.UpsertActivitySamples(r.Context(), samples)
	if err != nil {
		s.log.Error("activity ingest error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"samples_written": written})
}

// handleActivitySummary returns the windowed sum over a date range.
func (s *Server) handleActivitySummary(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	samples, err := s.db.ListActivitySamples(r.Context(), uid, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
		"totals": progress.WindowSum(samples, start, end),
	})
}

type goalPayload struct {
	Metric string  `json:"metric"`
	Period string  `json:"period"`
	Target float64 `json:"target"`
	Active *bool   `json:"active"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)

	var payload goalPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	goal := models.Goal{
		ID:      uuid.New(),
		OwnerID: uid,
		Metric:  models.GoalMetric(payload.Metric),
		Period:  models.GoalPeriod(payload.Period),
		Target:  payload.Target,
		Active:  true,
	}
	if payload.Active != nil {
		goal.Active = *payload.Active
	}
	if !validMetric(goal.Metric) {
		writeError(w, http.StatusBadRequest, "unknown metric "+payload.Metric)
		return
	}
	if !validPeriod(goal.Period) {
		writeError(w, http.StatusBadRequest, "unknown period "+payload.Period)
		return
	}

	if err := s.db.CreateGoal(r.Context(), goal); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	activeOnly := r.URL.Query().Get("active") == "true"

	goals, err := s.db.ListGoals(r.Context(), uid, activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// applyGoalUpdate merges an update payload into a stored goal. A goal's
// metric and period are fixed at creation; a payload naming a different
// one is rejected rather than silently ignored.
func applyGoalUpdate(goal models.Goal, payload goalPayload) (models.Goal, error) {
	if payload.Metric != "" && models.GoalMetric(payload.Metric) != goal.Metric {
		return models.Goal{}, errors.New("metric cannot be changed; create a new goal instead")
	}
	if payload.Period != "" && models.GoalPeriod(payload.Period) != goal.Period {
		return models.Goal{}, errors.New("period cannot be changed; create a new goal instead")
	}
	goal.Target = payload.Target
	if payload.Active != nil {
		goal.Active = *payload.Active
	}
	return goal, nil
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid goal ID")
		return
	}

	var payload goalPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	existing, err := s.db.GetGoal(r.Context(), id, uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "goal not found")
		return
	}

	goal, err := applyGoalUpdate(*existing, payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.db.UpdateGoal(r.Context(), goal)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "goal not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid goal ID")
		return
	}

	deleted, err := s.db.DeleteGoal(r.Context(), id, uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "goal not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleGoalStreak evaluates a goal's current streak and per-period
// progress over the trailing periods (default 12).
func (s *Server) handleGoalStreak(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid goal ID")
		return
	}

	goal, err := s.db.GetGoal(r.Context(), id, uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if goal == nil {
		writeError(w, http.StatusNotFound, "goal not found")
		return
	}

	n := 12
	if v := r.URL.Query().Get("periods"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}

	periods := progress.PeriodsEnding(time.Now().UTC(), goal.Period, n)
	if len(periods) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"streak": 0})
		return
	}

	// One sample fetch covers every period; the oldest period's start
	// bounds the range.
	samples, err := s.db.ListActivitySamples(r.Context(), uid, periods[len(periods)-1].Start, periods[0].End)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"goal":    goal,
		"streak":  progress.Streak(samples, *goal, periods),
		"periods": progress.Progress(samples, *goal, periods),
	})
}

// handleForecast fits a short-horizon forecast over one activity metric.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	q := r.URL.Query()

	metric := models.GoalMetric(q.Get("metric"))
	if metric == "" {
		metric = models.MetricSteps
	}
	if !validMetric(metric) {
		writeError(w, http.StatusBadRequest, "unknown metric "+string(metric))
		return
	}

	opts := progress.ForecastOptions{
		Method:  progress.Method(q.Get("method")),
		Horizon: 7,
	}
	if v := q.Get("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid window")
			return
		}
		opts.Window = &n
	}
	if v := q.Get("decay"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid decay")
			return
		}
		opts.Decay = &f
	}
	if v := q.Get("horizon"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			opts.Horizon = n
		}
	}

	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	samples, err := s.db.ListActivitySamples(r.Context(), uid, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	points := make([]progress.SamplePoint, 0, len(samples))
	for _, smp := range samples {
		points = append(points, progress.SamplePoint{
			Date:  smp.Date,
			Value: sampleMetric(smp, metric),
		})
	}

	series, err := progress.Forecast(points, opts)
	if err != nil {
		var invalid *progress.InvalidParameterError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, invalid.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func sampleMetric(s models.ActivitySample, m models.GoalMetric) float64 {
	switch m {
	case models.MetricSteps:
		return float64(s.Steps)
	case models.MetricDistance:
		return s.DistanceKm
	case models.MetricCalories:
		return s.Calories
	case models.MetricWorkouts:
		return float64(s.Workouts)
	}
	return 0
}

func validMetric(m models.GoalMetric) bool {
	switch m {
	case models.MetricSteps, models.MetricDistance, models.MetricCalories, models.MetricWorkouts:
		return true
	}
	return false
}

func validPeriod(p models.GoalPeriod) bool {
	switch p {
	case models.PeriodDaily, models.PeriodWeekly, models.PeriodMonthly:
		return true
	}
	return false
}
