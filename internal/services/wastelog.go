package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecoforge/apiserver/internal/events"
	"github.com/ecoforge/apiserver/types"
	"github.com/google/uuid"
)

const defaultLeaderboardLimit = 20

// WasteLogRepository defines persistence operations for waste-log entries.
type WasteLogRepository interface {
	Append(ctx context.Context, entry types.WasteLog, payload []byte) (types.WasteLog, error)
	ListByUser(ctx context.Context, userID int) ([]types.WasteLog, error)
}

// ScoreRepository defines read access to aggregated point totals.
type ScoreRepository interface {
	Top(ctx context.Context, limit int) ([]types.UserScore, error)
}

// WasteLogInput is the structured part of a waste-log request.
type WasteLogInput struct {
	Points   int
	Category string
	Date     types.Date
}

// WasteService encapsulates waste-log use-cases.
type WasteService struct {
	repo   WasteLogRepository
	scores ScoreRepository
	bus    *events.Bus
	logger *slog.Logger
}

// NewWasteService constructs a WasteService. bus may be nil, in which
// case appended entries are not announced to the broker.
func NewWasteService(repo WasteLogRepository, scores ScoreRepository, bus *events.Bus, logger *slog.Logger) *WasteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WasteService{repo: repo, scores: scores, bus: bus, logger: logger}
}

// Log appends one entry owned by userID. The raw request body is stored
// alongside the parsed columns so the append stays faithful to whatever
// the client sent. The entry is durable before any event is published;
// publish failures are logged, never returned.
func (s *WasteService) Log(ctx context.Context, userID int, input WasteLogInput, payload []byte) (types.WasteLog, error) {
	date := input.Date
	if date.IsZero() {
		date = types.Today()
	}

	entry := types.WasteLog{
		ID:       fmt.Sprintf("log-%s", uuid.NewString()),
		UserID:   userID,
		Points:   input.Points,
		Category: input.Category,
		Date:     date,
	}

	stored, err := s.repo.Append(ctx, entry, payload)
	if err != nil {
		return types.WasteLog{}, err
	}

	if s.bus != nil {
		event := events.WasteEvent{
			EntryID:  stored.ID,
			UserID:   stored.UserID,
			Points:   stored.Points,
			Category: stored.Category,
			Date:     stored.Date.String(),
			LoggedAt: time.Now().UTC(),
		}
		if err := s.bus.PublishWasteLogged(ctx, event); err != nil {
			s.logger.Warn("failed to publish waste event", "entry_id", stored.ID, "error", err)
		}
	}

	return stored, nil
}

// History returns all entries owned by userID, oldest first.
func (s *WasteService) History(ctx context.Context, userID int) ([]types.WasteLog, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Leaderboard returns the top aggregated point totals.
func (s *WasteService) Leaderboard(ctx context.Context, limit int) ([]types.UserScore, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > 100 {
		limit = 100
	}
	return s.scores.Top(ctx, limit)
}
