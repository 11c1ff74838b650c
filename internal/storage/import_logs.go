package storage

import (
	"context"
	"fmt"
	"time"
)

// ImportLog is one recorded import operation.
type ImportLog struct {
	ID                     int64     `json:"id"`
	UserID                 int       `json:"user_id"`
	Source                 string    `json:"source"`
	Status                 string    `json:"status"`
	SessionsImported       int       `json:"sessions_imported"`
	SetsInserted           int       `json:"sets_inserted"`
	RecordsDetected        int       `json:"records_detected"`
	CustomExercisesCreated int       `json:"custom_exercises_created"`
	DurationMs             *int      `json:"duration_ms,omitempty"`
	ErrorMessage           *string   `json:"error_message,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}

// InsertImportLog records an import operation. Returns the row id.
func (db *DB) InsertImportLog(ctx context.Context, l ImportLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO import_logs
		     (user_id, source, status, sessions_imported, sets_inserted,
		      records_detected, custom_exercises_created, duration_ms, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		l.UserID, l.Source, l.Status, l.SessionsImported, l.SetsInserted,
		l.RecordsDetected, l.CustomExercisesCreated, l.DurationMs, l.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// QueryImportLogs returns a user's most recent import logs.
func (db *DB) QueryImportLogs(ctx context.Context, userID, limit int) ([]ImportLog, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, source, status, sessions_imported, sets_inserted,
		        records_detected, custom_exercises_created, duration_ms, error_message, created_at
		 FROM import_logs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var logs []ImportLog
	for rows.Next() {
		var l ImportLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Source, &l.Status, &l.SessionsImported,
			&l.SetsInserted, &l.RecordsDetected, &l.CustomExercisesCreated,
			&l.DurationMs, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
