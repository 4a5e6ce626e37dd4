package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/ecoforge/apiserver/types"
)

// ScoreRepository maintains aggregated per-user point totals.
type ScoreRepository struct {
	db *sql.DB
}

func NewScoreRepository(db *sql.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// AddPoints folds one waste-log event into the user's running total.
func (r *ScoreRepository) AddPoints(ctx context.Context, userID, points int) error {
	const query = `
		INSERT INTO user_scores (user_id, total_points, entries, updated_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET total_points = user_scores.total_points + EXCLUDED.total_points,
			entries = user_scores.entries + 1,
			updated_at = EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, query, userID, points, time.Now())
	return err
}

// Top returns up to limit users ordered by total points, highest first.
func (r *ScoreRepository) Top(ctx context.Context, limit int) ([]types.UserScore, error) {
	const query = `
		SELECT s.user_id, u.username, s.total_points, s.entries
		FROM user_scores s
		JOIN users u ON u.id = s.user_id
		ORDER BY s.total_points DESC, s.user_id
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]types.UserScore, 0, limit)
	for rows.Next() {
		var score types.UserScore
		if err := rows.Scan(
			&score.UserID,
			&score.Username,
			&score.TotalPoints,
			&score.Entries,
		); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}
