// Package worker consumes waste-log events and maintains per-user
// point totals. Aggregation is eventually consistent: handler errors
// are nacked and the broker redelivers.
package worker

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"

	"github.com/ecoforge/apiserver/config"
	"github.com/ecoforge/apiserver/internal/db"
	"github.com/ecoforge/apiserver/internal/events"
	"github.com/ecoforge/apiserver/internal/store"
)

// ScoreStore folds points into per-user totals.
type ScoreStore interface {
	AddPoints(ctx context.Context, userID, points int) error
}

// Worker folds waste events into the user_scores table.
type Worker struct {
	bus    *events.Bus
	db     *sql.DB
	scores ScoreStore
	logger *slog.Logger
}

// New constructs a Worker from config. An MQ backend is required.
func New(ctx context.Context, cfg config.Config) (*Worker, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	bus, err := events.NewBusFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if bus == nil {
		return nil, errors.New("MQ_BACKEND is required for the worker")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}

	return &Worker{
		bus:    bus,
		db:     dbConn,
		scores: store.NewScoreRepository(dbConn),
		logger: logger,
	}, nil
}

// Run consumes waste events until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	defer func() {
		_ = w.bus.Close()
		if w.db != nil {
			_ = w.db.Close()
		}
	}()

	w.logger.Info("score worker started", "channel", events.ChannelWasteLogged)

	err := w.bus.SubscribeWasteLogged(ctx, w.handleEvent)
	if errors.Is(err, context.Canceled) {
		w.logger.Info("score worker stopped")
		return nil
	}
	return err
}

func (w *Worker) handleEvent(ctx context.Context, event events.WasteEvent) error {
	if event.UserID < 1 {
		return nil
	}
	if err := w.scores.AddPoints(ctx, event.UserID, event.Points); err != nil {
		w.logger.Warn("failed to update score", "user_id", event.UserID, "error", err)
		return err
	}
	w.logger.Info("score updated", "user_id", event.UserID, "points", event.Points, "entry_id", event.EntryID)
	return nil
}
