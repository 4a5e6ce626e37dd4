package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/ecoforge/apiserver/types"
)

// WasteLogRepository handles persistence for waste-log entries.
// The table is append-only: no update or delete statements exist.
type WasteLogRepository struct {
	db *sql.DB
}

func NewWasteLogRepository(db *sql.DB) *WasteLogRepository {
	return &WasteLogRepository{db: db}
}

// Append durably stores one entry together with the raw request payload.
func (r *WasteLogRepository) Append(ctx context.Context, entry types.WasteLog, payload []byte) (types.WasteLog, error) {
	entry.CreatedAt = time.Now()

	const query = `
		INSERT INTO waste_logs (id, user_id, points, category, logged_for, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.Points,
		entry.Category,
		entry.Date.Time,
		payload,
		entry.CreatedAt,
	); err != nil {
		return types.WasteLog{}, err
	}
	return entry, nil
}

// ListByUser returns all entries owned by userID in insertion order,
// oldest first.
func (r *WasteLogRepository) ListByUser(ctx context.Context, userID int) ([]types.WasteLog, error) {
	const query = `
		SELECT id, user_id, points, category, logged_for, created_at
		FROM waste_logs
		WHERE user_id = $1
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]types.WasteLog, 0)
	for rows.Next() {
		var entry types.WasteLog
		var loggedFor time.Time
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Points,
			&entry.Category,
			&loggedFor,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.Date = types.NewDate(loggedFor)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
