package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Limits for Recent
const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
)

// Repository handles prediction history queries
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Insert stores a prediction
func (r *Repository) Insert(ctx context.Context, p *Prediction) error {
	stmt, err := r.db.GetPreparedStatement(stmtInsertPrediction)
	if err != nil {
		return err
	}

	var score sql.NullFloat64
	if p.Score != nil {
		score = sql.NullFloat64{Float64: *p.Score, Valid: true}
	}
	var riskIndex sql.NullInt64
	if p.RiskIndex != nil {
		riskIndex = sql.NullInt64{Int64: int64(*p.RiskIndex), Valid: true}
	}

	if _, err := stmt.ExecContext(ctx, p.ID, p.Endpoint, p.ActivityScore, score, riskIndex, p.RiskLevel, p.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

// ClampLimit maps a requested page size onto [1, MaxRecentLimit], using the default for
// non-positive values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	default:
		return limit
	}
}

// Recent returns the newest predictions first
func (r *Repository) Recent(ctx context.Context, limit int) ([]Prediction, error) {
	stmt, err := r.db.GetPreparedStatement(stmtRecentPredictions)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	predictions := make([]Prediction, 0)
	for rows.Next() {
		var (
			p         Prediction
			score     sql.NullFloat64
			riskIndex sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.Endpoint, &p.ActivityScore, &score, &riskIndex, &p.RiskLevel, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		if score.Valid {
			v := score.Float64
			p.Score = &v
		}
		if riskIndex.Valid {
			v := int(riskIndex.Int64)
			p.RiskIndex = &v
		}
		predictions = append(predictions, p)
	}

	return predictions, rows.Err()
}

// Stats aggregates counts and averages per endpoint
func (r *Repository) Stats(ctx context.Context) ([]EndpointStats, error) {
	stmt, err := r.db.GetPreparedStatement(stmtPredictionStats)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction stats: %w", err)
	}
	defer rows.Close()

	stats := make([]EndpointStats, 0, 2)
	for rows.Next() {
		var (
			s            EndpointStats
			avgScore     sql.NullFloat64
			avgRiskIndex sql.NullFloat64
		)
		if err := rows.Scan(&s.Endpoint, &s.Count, &s.AvgActivityScore, &avgScore, &avgRiskIndex); err != nil {
			return nil, fmt.Errorf("failed to scan prediction stats: %w", err)
		}
		if avgScore.Valid {
			v := avgScore.Float64
			s.AvgScore = &v
		}
		if avgRiskIndex.Valid {
			v := avgRiskIndex.Float64
			s.AvgRiskIndex = &v
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// PurgeOlderThan deletes predictions created before cutoff and returns how many were removed
func (r *Repository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM predictions WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge predictions: %w", err)
	}
	return res.RowsAffected()
}
