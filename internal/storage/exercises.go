package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/repstack/repstack/internal/exercise"
	"github.com/repstack/repstack/internal/models"
)

// exerciseKey is the normalized-name key records and history queries
// group exercises by.
func exerciseKey(ref models.ExerciseRef) string {
	return string(exercise.Normalize(ref.Name))
}

// FindCatalogByName looks up a catalog exercise by exact,
// case-insensitive name.
func (db *DB) FindCatalogByName(ctx context.Context, name string) (models.ExerciseRef, bool, error) {
	var (
		id       uuid.UUID
		exName   string
		bodyPart string
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, body_part FROM catalog_exercises WHERE LOWER(name) = LOWER($1)`,
		name,
	).Scan(&id, &exName, &bodyPart)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ExerciseRef{}, false, nil
	}
	if err != nil {
		return models.ExerciseRef{}, false, fmt.Errorf("querying catalog exercise: %w", err)
	}
	return models.CatalogRef(id, exName, bodyPart), true, nil
}

// FindCatalogBySubstring finds a catalog exercise whose name contains,
// or is contained in, the given name (case-insensitive). Shortest match
// wins so "Incline Bench Press" prefers the closest entry.
func (db *DB) FindCatalogBySubstring(ctx context.Context, name string) (models.ExerciseRef, bool, error) {
	var (
		id       uuid.UUID
		exName   string
		bodyPart string
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, body_part FROM catalog_exercises
		 WHERE POSITION(LOWER($1) IN LOWER(name)) > 0
		    OR POSITION(LOWER(name) IN LOWER($1)) > 0
		 ORDER BY LENGTH(name) ASC
		 LIMIT 1`,
		name,
	).Scan(&id, &exName, &bodyPart)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ExerciseRef{}, false, nil
	}
	if err != nil {
		return models.ExerciseRef{}, false, fmt.Errorf("querying catalog substring: %w", err)
	}
	return models.CatalogRef(id, exName, bodyPart), true, nil
}

// FindCustomByName looks up a user's custom exercise by exact,
// case-insensitive name.
func (db *DB) FindCustomByName(ctx context.Context, ownerID int, name string) (models.ExerciseRef, bool, error) {
	var (
		id       uuid.UUID
		exName   string
		bodyPart string
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, body_part FROM custom_exercises
		 WHERE user_id = $1 AND LOWER(name) = LOWER($2)`,
		ownerID, name,
	).Scan(&id, &exName, &bodyPart)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ExerciseRef{}, false, nil
	}
	if err != nil {
		return models.ExerciseRef{}, false, fmt.Errorf("querying custom exercise: %w", err)
	}
	return models.CustomRef(id, ownerID, exName, bodyPart), true, nil
}

// CreateCustom inserts a custom exercise for a user. A concurrent create
// of the same name resolves to the existing row.
func (db *DB) CreateCustom(ctx context.Context, ownerID int, name string) (models.ExerciseRef, error) {
	id := uuid.New()
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO custom_exercises (id, user_id, name, body_part, norm_key)
		 VALUES ($1, $2, $3, '', $4)
		 ON CONFLICT DO NOTHING`,
		id, ownerID, name, string(exercise.Normalize(name)),
	)
	if err != nil {
		return models.ExerciseRef{}, fmt.Errorf("inserting custom exercise: %w", err)
	}

	// Re-read so the loser of a racing insert gets the winner's id.
	ref, ok, err := db.FindCustomByName(ctx, ownerID, name)
	if err != nil {
		return models.ExerciseRef{}, err
	}
	if !ok {
		return models.ExerciseRef{}, fmt.Errorf("custom exercise %q vanished after insert", name)
	}
	return ref, nil
}

// ListExercises returns the full catalog plus the user's custom
// exercises, catalog first.
func (db *DB) ListExercises(ctx context.Context, ownerID int) ([]models.ExerciseRef, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, body_part, 'catalog', 0 FROM catalog_exercises
		 UNION ALL
		 SELECT id, name, body_part, 'custom', user_id FROM custom_exercises WHERE user_id = $1
		 ORDER BY 4, 2`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var refs []models.ExerciseRef
	for rows.Next() {
		var (
			ref  models.ExerciseRef
			kind string
		)
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.BodyPart, &kind, &ref.OwnerID); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		ref.Kind = models.ExerciseRefKind(kind)
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
