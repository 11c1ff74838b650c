package storage

import (
	"context"
	"fmt"

	"github.com/repstack/repstack/internal/models"
)

// UpsertIfGreater performs the conditional write the personal-best
// engine relies on: insert the record when no live row exists for its
// (user, exercise key, kind, weight bucket), overwrite an existing row
// only when the candidate's value strictly exceeds the stored one.
// Returns whether anything was written. The strictly-greater guard is
// what makes records monotonically non-decreasing under retries and
// out-of-order writes.
func (db *DB) UpsertIfGreater(ctx context.Context, rec models.PersonalBestRecord) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO personal_bests
		     (id, user_id, exercise_key, exercise_kind, exercise_id, exercise_name,
		      kind, weight_kg, weight_bucket, value, set_id, achieved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (user_id, exercise_key, kind, weight_bucket) DO UPDATE SET
		     weight_kg = EXCLUDED.weight_kg,
		     value = EXCLUDED.value,
		     set_id = EXCLUDED.set_id,
		     achieved_at = EXCLUDED.achieved_at,
		     exercise_kind = EXCLUDED.exercise_kind,
		     exercise_id = EXCLUDED.exercise_id,
		     exercise_name = EXCLUDED.exercise_name
		 WHERE EXCLUDED.value > personal_bests.value`,
		rec.ID, rec.OwnerID, exerciseKey(rec.Exercise), string(rec.Exercise.Kind),
		rec.Exercise.ID, rec.Exercise.Name, string(rec.Kind), rec.WeightKg,
		rec.WeightBucket, rec.Value, rec.SetID, rec.AchievedAt,
	)
	if err != nil {
		return false, fmt.Errorf("upserting personal best: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListRecords returns a user's live personal-best records, optionally
// filtered to one exercise (any representation with the same normalized
// name key matches).
func (db *DB) ListRecords(ctx context.Context, ownerID int, key string) ([]models.PersonalBestRecord, error) {
	query := `SELECT id, user_id, exercise_key, exercise_kind, exercise_id, exercise_name,
	                 kind, weight_kg, weight_bucket, value, set_id, achieved_at
	          FROM personal_bests WHERE user_id = $1`
	args := []any{ownerID}
	if key != "" {
		query += ` AND exercise_key = $2`
		args = append(args, key)
	}
	query += ` ORDER BY exercise_name, kind, weight_bucket`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying personal bests: %w", err)
	}
	defer rows.Close()

	var records []models.PersonalBestRecord
	for rows.Next() {
		var (
			rec  models.PersonalBestRecord
			ekey string
			kind string
			rk   string
		)
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &ekey, &kind, &rec.Exercise.ID,
			&rec.Exercise.Name, &rk, &rec.WeightKg, &rec.WeightBucket,
			&rec.Value, &rec.SetID, &rec.AchievedAt); err != nil {
			return nil, fmt.Errorf("scanning personal best: %w", err)
		}
		rec.Exercise.Kind = models.ExerciseRefKind(kind)
		if rec.Exercise.IsCustom() {
			rec.Exercise.OwnerID = ownerID
		}
		rec.Kind = models.RecordKind(rk)
		records = append(records, rec)
	}
	return records, rows.Err()
}
