package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/repstack/repstack/internal/models"
)

// CreateGoal inserts a goal.
func (db *DB) CreateGoal(ctx context.Context, g models.Goal) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO goals (id, user_id, metric, period, target, active) VALUES ($1, $2, $3, $4, $5, $6)`,
		g.ID, g.OwnerID, string(g.Metric), string(g.Period), g.Target, g.Active,
	)
	if err != nil {
		return fmt.Errorf("inserting goal: %w", err)
	}
	return nil
}

// GetGoal loads one goal; nil when absent.
func (db *DB) GetGoal(ctx context.Context, id uuid.UUID, ownerID int) (*models.Goal, error) {
	var (
		g      models.Goal
		metric string
		period string
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, metric, period, target, active FROM goals WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	).Scan(&g.ID, &g.OwnerID, &metric, &period, &g.Target, &g.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying goal: %w", err)
	}
	g.Metric = models.GoalMetric(metric)
	g.Period = models.GoalPeriod(period)
	return &g, nil
}

// ListGoals returns a user's goals, optionally only active ones.
func (db *DB) ListGoals(ctx context.Context, ownerID int, activeOnly bool) ([]models.Goal, error) {
	query := `SELECT id, user_id, metric, period, target, active FROM goals WHERE user_id = $1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY metric, period`

	rows, err := db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		var (
			g      models.Goal
			metric string
			period string
		)
		if err := rows.Scan(&g.ID, &g.OwnerID, &metric, &period, &g.Target, &g.Active); err != nil {
			return nil, fmt.Errorf("scanning goal: %w", err)
		}
		g.Metric = models.GoalMetric(metric)
		g.Period = models.GoalPeriod(period)
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// UpdateGoal replaces a goal's target and active flag.
func (db *DB) UpdateGoal(ctx context.Context, g models.Goal) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE goals SET target = $3, active = $4 WHERE id = $1 AND user_id = $2`,
		g.ID, g.OwnerID, g.Target, g.Active,
	)
	if err != nil {
		return false, fmt.Errorf("updating goal: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteGoal removes a goal.
func (db *DB) DeleteGoal(ctx context.Context, id uuid.UUID, ownerID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM goals WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("deleting goal: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
