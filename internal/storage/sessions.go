package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/repstack/repstack/internal/exercise"
	"github.com/repstack/repstack/internal/models"
)

// InsertSession stores a session with its items and sets in one
// transaction. Ids must already be assigned by the caller.
func (db *DB) InsertSession(ctx context.Context, session models.WorkoutSession) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO workout_sessions (id, user_id, date, title, notes) VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.OwnerID, session.Date, session.Title, session.Notes,
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	if err := insertItems(ctx, tx, session.ID, session.Items); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertItems(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, items []models.WorkoutItem) error {
	for _, item := range items {
		_, err := tx.Exec(ctx,
			`INSERT INTO workout_items (id, session_id, exercise_kind, exercise_id, order_index)
			 VALUES ($1, $2, $3, $4, $5)`,
			item.ID, sessionID, string(item.Exercise.Kind), item.Exercise.ID, item.OrderIndex,
		)
		if err != nil {
			return fmt.Errorf("inserting item: %w", err)
		}
		for _, set := range item.Sets {
			_, err := tx.Exec(ctx,
				`INSERT INTO workout_sets (id, item_id, set_number, set_type, weight_kg, reps, rpe, note, performed_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				set.ID, item.ID, set.Number, set.Type, set.WeightKg, set.Reps, set.RPE, set.Note, set.PerformedAt,
			)
			if err != nil {
				return fmt.Errorf("inserting set: %w", err)
			}
		}
	}
	return nil
}

// ReplaceSessionItems swaps a session's entire item list. This is the
// only mutation path for stored sets; cascade delete drops the old
// items and their sets.
func (db *DB) ReplaceSessionItems(ctx context.Context, sessionID uuid.UUID, ownerID int, items []models.WorkoutItem) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM workout_sessions WHERE id = $1 AND user_id = $2)`,
		sessionID, ownerID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking session: %w", err)
	}
	if !exists {
		return fmt.Errorf("session %s not found", sessionID)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM workout_items WHERE session_id = $1`, sessionID,
	); err != nil {
		return fmt.Errorf("deleting items: %w", err)
	}

	if err := insertItems(ctx, tx, sessionID, items); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListSessions returns a user's sessions in a date range, newest first,
// without their item lists.
func (db *DB) ListSessions(ctx context.Context, ownerID int, start, end time.Time) ([]models.WorkoutSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, date, title, notes FROM workout_sessions
		 WHERE user_id = $1 AND date >= $2 AND date <= $3
		 ORDER BY date DESC`,
		ownerID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.WorkoutSession
	for rows.Next() {
		var s models.WorkoutSession
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Date, &s.Title, &s.Notes); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetSession loads one session with items and sets in order.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID, ownerID int) (*models.WorkoutSession, error) {
	var s models.WorkoutSession
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, date, title, notes FROM workout_sessions WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	).Scan(&s.ID, &s.OwnerID, &s.Date, &s.Title, &s.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	itemRows, err := db.Pool.Query(ctx,
		`SELECT i.id, i.exercise_kind, i.exercise_id, i.order_index,
		        COALESCE(c.name, u.name), COALESCE(c.body_part, u.body_part, '')
		 FROM workout_items i
		 LEFT JOIN catalog_exercises c ON i.exercise_kind = 'catalog' AND c.id = i.exercise_id
		 LEFT JOIN custom_exercises u ON i.exercise_kind = 'custom' AND u.id = i.exercise_id
		 WHERE i.session_id = $1
		 ORDER BY i.order_index`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			item models.WorkoutItem
			kind string
		)
		item.SessionID = id
		if err := itemRows.Scan(&item.ID, &kind, &item.Exercise.ID, &item.OrderIndex,
			&item.Exercise.Name, &item.Exercise.BodyPart); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Exercise.Kind = models.ExerciseRefKind(kind)
		if item.Exercise.IsCustom() {
			item.Exercise.OwnerID = ownerID
		}
		s.Items = append(s.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	for i := range s.Items {
		setRows, err := db.Pool.Query(ctx,
			`SELECT id, set_number, set_type, weight_kg, reps, rpe, note, performed_at
			 FROM workout_sets WHERE item_id = $1 ORDER BY set_number`,
			s.Items[i].ID,
		)
		if err != nil {
			return nil, fmt.Errorf("querying sets: %w", err)
		}
		for setRows.Next() {
			var set models.WorkoutSet
			set.ItemID = s.Items[i].ID
			if err := setRows.Scan(&set.ID, &set.Number, &set.Type, &set.WeightKg,
				&set.Reps, &set.RPE, &set.Note, &set.PerformedAt); err != nil {
				setRows.Close()
				return nil, fmt.Errorf("scanning set: %w", err)
			}
			s.Items[i].Sets = append(s.Items[i].Sets, set)
		}
		if err := setRows.Err(); err != nil {
			setRows.Close()
			return nil, err
		}
		setRows.Close()
	}

	return &s, nil
}

// DeleteSession removes a session; items and sets cascade.
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID, ownerID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workout_sessions WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("deleting session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListSetsForExercise returns every set a user has logged for an
// exercise, identified by normalized name key so catalog and custom
// representations of the same movement aggregate together. The excluded
// id is the set currently under personal-best evaluation.
func (db *DB) ListSetsForExercise(ctx context.Context, ownerID int, key exercise.NormKey, exclude uuid.UUID) ([]models.LoggedSet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT st.id, st.weight_kg, st.reps, st.performed_at
		 FROM workout_sets st
		 JOIN workout_items i ON i.id = st.item_id
		 JOIN workout_sessions s ON s.id = i.session_id
		 LEFT JOIN catalog_exercises c ON i.exercise_kind = 'catalog' AND c.id = i.exercise_id
		 LEFT JOIN custom_exercises u ON i.exercise_kind = 'custom' AND u.id = i.exercise_id
		 WHERE s.user_id = $1
		   AND COALESCE(c.norm_key, u.norm_key) = $2
		   AND st.id <> $3
		 ORDER BY st.performed_at, st.set_number`,
		ownerID, string(key), exclude,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sets for exercise: %w", err)
	}
	defer rows.Close()

	var sets []models.LoggedSet
	for rows.Next() {
		var s models.LoggedSet
		if err := rows.Scan(&s.ID, &s.WeightKg, &s.Reps, &s.PerformedAt); err != nil {
			return nil, fmt.Errorf("scanning logged set: %w", err)
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}
