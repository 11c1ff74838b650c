package hevy

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/repstack/repstack/internal/exercise"
	"github.com/repstack/repstack/internal/ingest"
	"github.com/repstack/repstack/internal/models"
	"github.com/repstack/repstack/internal/records"
)

// Store is everything the ingest pipeline needs from persistence:
// the resolver's catalog surface, the detector's record surface, and
// session writes.
type Store interface {
	exercise.Store
	records.Store
	InsertSession(ctx context.Context, session models.WorkoutSession) error
	ReplaceSessionItems(ctx context.Context, sessionID uuid.UUID, ownerID int, items []models.WorkoutItem) error
}

// Provider runs the full ingest pipeline for one CSV export payload:
// parse, resolve exercise names, persist sessions, then evaluate every
// stored set for personal bests.
type Provider struct {
	store    Store
	resolver *exercise.Resolver
	detector *records.Detector
	log      *slog.Logger
}

// NewProvider creates an ingest provider over the given store.
func NewProvider(store Store, cfg records.Config, log *slog.Logger) *Provider {
	return &Provider{
		store:    store,
		resolver: exercise.NewResolver(store, log),
		detector: records.NewDetector(store, cfg, log),
		log:      log,
	}
}

// Ingest imports one raw CSV payload for a user. Sessions are committed
// one at a time; a caller abandoning the batch mid-way leaves the
// already-committed sessions valid. Sets are evaluated for personal
// bests in file order, which is chronological within an export, so the
// first record wins and later regressions are ignored.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	drafts, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}

	result := &ingest.Result{}
	for _, draft := range drafts {
		if err := p.ImportDraft(ctx, draft, userID, result); err != nil {
			return result, err
		}
	}

	p.log.Info("import complete",
		"user_id", userID,
		"sessions", result.SessionsImported,
		"sets", result.SetsInserted,
		"records", result.RecordsDetected,
	)
	return result, nil
}

// ReplaceItems swaps a stored session's item list for a new one built
// from free-text exercises, then runs record detection over the new
// sets. This is the replace-all-items edit, the only mutation path for
// stored sets.
func (p *Provider) ReplaceItems(ctx context.Context, session models.WorkoutSession, exercises []models.DraftExercise) (*ingest.Result, error) {
	result := &ingest.Result{}

	items, err := p.buildItems(ctx, session, exercises, result)
	if err != nil {
		return result, err
	}

	if err := p.store.ReplaceSessionItems(ctx, session.ID, session.OwnerID, items); err != nil {
		return result, fmt.Errorf("replacing items: %w", err)
	}
	result.ItemsImported = len(items)

	for _, item := range items {
		for _, set := range item.Sets {
			result.SetsInserted++
			candidates, err := p.detector.Evaluate(ctx, session.OwnerID, item.Exercise, set)
			if err != nil {
				return result, fmt.Errorf("evaluating set for records: %w", err)
			}
			result.RecordsDetected += len(candidates)
			for _, c := range candidates {
				result.RecordMessages = append(result.RecordMessages,
					fmt.Sprintf("%s: %s", item.Exercise.Name, c.Description))
			}
		}
	}

	return result, nil
}

// buildItems resolves draft exercises into persisted-shape items for a
// session.
func (p *Provider) buildItems(ctx context.Context, session models.WorkoutSession, exercises []models.DraftExercise, result *ingest.Result) ([]models.WorkoutItem, error) {
	var items []models.WorkoutItem
	for i, ex := range exercises {
		ref, created, err := p.resolver.Resolve(ctx, session.OwnerID, ex.Name)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", ex.Name, err)
		}
		if created {
			result.CustomExercisesCreated++
		}

		item := models.WorkoutItem{
			ID:         uuid.New(),
			SessionID:  session.ID,
			Exercise:   ref,
			OrderIndex: i,
		}
		for _, set := range ex.Sets {
			item.Sets = append(item.Sets, models.WorkoutSet{
				ID:          uuid.New(),
				ItemID:      item.ID,
				Number:      set.Number,
				Type:        set.Type,
				WeightKg:    set.WeightKg,
				Reps:        set.Reps,
				RPE:         set.RPE,
				Note:        ex.Notes,
				PerformedAt: session.Date,
			})
		}
		items = append(items, item)
	}
	return items, nil
}

// ImportDraft resolves, persists and record-evaluates one draft
// session, accumulating counters into result. Manual session entry goes
// through the same path as CSV import.
func (p *Provider) ImportDraft(ctx context.Context, draft models.WorkoutDraft, userID int, result *ingest.Result) error {
	session := models.WorkoutSession{
		ID:      uuid.New(),
		OwnerID: userID,
		Date:    draft.StartTime,
		Title:   draft.Title,
		Notes:   draft.Notes,
	}

	items, err := p.buildItems(ctx, session, draft.Exercises, result)
	if err != nil {
		return err
	}
	session.Items = items

	if err := p.store.InsertSession(ctx, session); err != nil {
		return fmt.Errorf("storing session %q: %w", session.Title, err)
	}
	result.SessionsImported++
	result.ItemsImported += len(session.Items)

	// Detection runs after the session is committed so each set's own
	// row exists; the set under evaluation is excluded from its prior
	// history by id.
	for _, item := range session.Items {
		for _, set := range item.Sets {
			result.SetsInserted++
			candidates, err := p.detector.Evaluate(ctx, userID, item.Exercise, set)
			if err != nil {
				return fmt.Errorf("evaluating set for records: %w", err)
			}
			result.RecordsDetected += len(candidates)
			for _, c := range candidates {
				result.RecordMessages = append(result.RecordMessages,
					fmt.Sprintf("%s: %s", item.Exercise.Name, c.Description))
			}
		}
	}

	return nil
}
