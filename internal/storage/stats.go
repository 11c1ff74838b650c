package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about all stored data for a user.
type DataStats struct {
	TotalSessions    int64      `json:"total_sessions"`
	TotalSets        int64      `json:"total_sets"`
	TotalExercises   int64      `json:"total_exercises"`
	TotalRecords     int64      `json:"total_records"`
	TotalSampleDays  int64      `json:"total_sample_days"`
	EarliestSession  *time.Time `json:"earliest_session"`
	LatestSession    *time.Time `json:"latest_session"`
}

// GetDataStats returns aggregate statistics for a user's stored data.
func (db *DB) GetDataStats(ctx context.Context, ownerID int) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(date), MAX(date) FROM workout_sessions WHERE user_id = $1`, ownerID,
	).Scan(&stats.TotalSessions, &stats.EarliestSession, &stats.LatestSession)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workout_sets st
		 JOIN workout_items i ON i.id = st.item_id
		 JOIN workout_sessions s ON s.id = i.session_id
		 WHERE s.user_id = $1`, ownerID,
	).Scan(&stats.TotalSets)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM catalog_exercises)
		      + (SELECT COUNT(*) FROM custom_exercises WHERE user_id = $1)`, ownerID,
	).Scan(&stats.TotalExercises)
	if err != nil {
		return nil, fmt.Errorf("counting exercises: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM personal_bests WHERE user_id = $1`, ownerID,
	).Scan(&stats.TotalRecords)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM activity_samples WHERE user_id = $1`, ownerID,
	).Scan(&stats.TotalSampleDays)
	if err != nil {
		return nil, fmt.Errorf("counting activity samples: %w", err)
	}

	return stats, nil
}
