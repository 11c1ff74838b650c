package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/repstack/repstack/internal/exercise"
	"github.com/repstack/repstack/internal/models"
	"github.com/repstack/repstack/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. *storage.DB
// satisfies it; all methods are reads scoped to one user.
type DataSource interface {
	ListRecords(ctx context.Context, ownerID int, key string) ([]models.PersonalBestRecord, error)
	ListSessions(ctx context.Context, ownerID int, start, end time.Time) ([]models.WorkoutSession, error)
	ListSetsForExercise(ctx context.Context, ownerID int, key exercise.NormKey, exclude uuid.UUID) ([]models.LoggedSet, error)
	ListActivitySamples(ctx context.Context, ownerID int, start, end time.Time) ([]models.ActivitySample, error)
	ListGoals(ctx context.Context, ownerID int, activeOnly bool) ([]models.Goal, error)
	GetDataStats(ctx context.Context, ownerID int) (*storage.DataStats, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
