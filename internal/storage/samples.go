package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/repstack/repstack/internal/models"
)

// UpsertActivitySamples writes daily activity samples, overwriting any
// existing row for the same (user, date). Returns the number written.
func (db *DB) UpsertActivitySamples(ctx context.Context, samples []models.ActivitySample) (int64, error) {
	var written int64
	for _, s := range samples {
		tag, err := db.Pool.Exec(ctx,
			`INSERT INTO activity_samples (user_id, date, steps, distance_km, calories, heart_rate_avg, workouts)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (user_id, date) DO UPDATE SET
			     steps = EXCLUDED.steps,
			     distance_km = EXCLUDED.distance_km,
			     calories = EXCLUDED.calories,
			     heart_rate_avg = EXCLUDED.heart_rate_avg,
			     workouts = EXCLUDED.workouts`,
			s.OwnerID, s.Date, s.Steps, s.DistanceKm, s.Calories, s.HeartRateAvg, s.Workouts,
		)
		if err != nil {
			return written, fmt.Errorf("upserting activity sample %s: %w", s.Date.Format("2006-01-02"), err)
		}
		written += tag.RowsAffected()
	}
	return written, nil
}

// ListActivitySamples returns a user's samples with dates inside
// [start, end], inclusive, oldest first.
func (db *DB) ListActivitySamples(ctx context.Context, ownerID int, start, end time.Time) ([]models.ActivitySample, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id, date, steps, distance_km, calories, heart_rate_avg, workouts
		 FROM activity_samples
		 WHERE user_id = $1 AND date >= $2 AND date <= $3
		 ORDER BY date`,
		ownerID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("querying activity samples: %w", err)
	}
	defer rows.Close()

	var samples []models.ActivitySample
	for rows.Next() {
		var s models.ActivitySample
		if err := rows.Scan(&s.OwnerID, &s.Date, &s.Steps, &s.DistanceKm, &s.Calories, &s.HeartRateAvg, &s.Workouts); err != nil {
			return nil, fmt.Errorf("scanning activity sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
