package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/repstack/repstack/internal/exercise"
	"github.com/repstack/repstack/internal/ingest"
	"github.com/repstack/repstack/internal/ingest/hevy"
	"github.com/repstack/repstack/internal/models"
	"github.com/repstack/repstack/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseTimeRange reads optional start/end query params (YYYY-MM-DD or
// RFC 3339), defaulting to the last 30 days.
func parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("end"); v != "" {
		t, err := parseFlexTime(v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end: %w", err)
		}
		end = t
	}
	if v := r.URL.Query().Get("start"); v != "" {
		t, err := parseFlexTime(v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start: %w", err)
		}
		start = t
	}
	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// handleImport ingests a raw CSV export in the request body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	start := time.Now()

	result, err := s.provider.Ingest(r.Context(), r.Body, uid)
	if result == nil {
		result = &ingest.Result{}
	}
	s.logImport(uid, "csv", result, err, int(time.Since(start).Milliseconds()))

	if err != nil {
		var malformed *hevy.MalformedInputError
		if errors.As(err, &malformed) {
			writeError(w, http.StatusBadRequest, malformed.Error())
			return
		}
		s.log.Error("import error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// sessionPayload is the JSON shape for manual session entry and the
// replace-items edit. Exercises are free-text names; the resolver turns
// them into references exactly as CSV import does.
type sessionPayload struct {
	Date      string                 `json:"date"`
	Title     string                 `json:"title"`
	Notes     string                 `json:"notes"`
	Exercises []models.DraftExercise `json:"exercises"`
}

func (p *sessionPayload) draft() (models.WorkoutDraft, error) {
	draft := models.WorkoutDraft{
		Title:     p.Title,
		Notes:     p.Notes,
		StartTime: time.Now().UTC(),
		Exercises: p.Exercises,
	}
	if p.Date != "" {
		t, err := parseFlexTime(p.Date)
		if err != nil {
			return draft, fmt.Errorf("invalid date: %w", err)
		}
		draft.StartTime = t
	}
	for i := range draft.Exercises {
		for j := range draft.Exercises[i].Sets {
			set := &draft.Exercises[i].Sets[j]
			set.Number = j + 1
			if set.Reps < 1 {
				set.Reps = 1
			}
		}
	}
	return draft, nil
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)

	var payload sessionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	draft, err := payload.draft()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := &ingest.Result{}
	if err := s.provider.ImportDraft(r.Context(), draft, uid, result); err != nil {
		s.log.Error("session create error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessions, err := s.db.ListSessions(r.Context(), uid, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	session, err := s.db.GetSession(r.Context(), id, uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	deleted, err := s.db.DeleteSession(r.Context(), id, uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleReplaceItems swaps a session's whole item list, the only edit
// path for stored sets. New sets run through record detection like
// imported ones.
func (s *Server) handleReplaceItems(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	var payload sessionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	draft, err := payload.draft()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.db.GetSession(r.Context(), id, uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	result, err := s.provider.ReplaceItems(r.Context(), *session, draft.Exercises)
	if err != nil {
		s.log.Error("replace items error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	refs, err := s.db.ListExercises(r.Context(), uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

func (s *Server) handleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name parameter required")
		return
	}

	history, err := s.analyzer.History(r.Context(), uid, name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)

	key := ""
	if name := r.URL.Query().Get("exercise"); name != "" {
		key = string(exercise.Normalize(name))
	}

	recs, err := s.db.ListRecords(r.Context(), uid, key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	stats, err := s.db.GetDataStats(r.Context(), uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	logs, err := s.db.QueryImportLogs(r.Context(), uid, 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// logImport records an import operation's outcome.
func (s *Server) logImport(uid int, source string, result *ingest.Result, importErr error, durationMs int) {
	status := "success"
	var errMsg *string
	if importErr != nil {
		status = "error"
		msg := importErr.Error()
		errMsg = &msg
	}

	entry := storage.ImportLog{
		UserID:                 uid,
		Source:                 source,
		Status:                 status,
		SessionsImported:       result.SessionsImported,
		SetsInserted:           result.SetsInserted,
		RecordsDetected:        result.RecordsDetected,
		CustomExercisesCreated: result.CustomExercisesCreated,
		DurationMs:             &durationMs,
		ErrorMessage:           errMsg,
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()

	if _, err := s.db.InsertImportLog(ctx, entry); err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
	}
}

// contextWithTimeout returns a background context with a 5-second
// timeout for logging that outlives the request.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
