package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ecoforge/apiserver/internal/events"
)

// memBackend is an in-memory events.Backend. Handler errors requeue the
// message like a broker nack would.
type memBackend struct {
	queue  chan events.Message
	nextID atomic.Int64
}

func newMemBackend() *memBackend {
	return &memBackend{queue: make(chan events.Message, 32)}
}

func (m *memBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	id := fmt.Sprintf("m-%d", m.nextID.Add(1))
	m.queue <- events.Message{ID: id, Data: data, Attributes: attrs}
	return id, nil
}

func (m *memBackend) Subscribe(ctx context.Context, channel string, handler events.RawHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-m.queue:
			if err := handler(ctx, msg); err != nil {
				m.queue <- msg
				continue
			}
		}
	}
}

func (m *memBackend) Close() error {
	return nil
}

type fakeScoreStore struct {
	mu       sync.Mutex
	totals   map[int]int
	calls    int
	failures int
	applied  chan struct{}
}

func newFakeScoreStore() *fakeScoreStore {
	return &fakeScoreStore{
		totals:  make(map[int]int),
		applied: make(chan struct{}, 32),
	}
}

func (f *fakeScoreStore) AddPoints(ctx context.Context, userID, points int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("store unavailable")
	}
	f.totals[userID] += points
	f.applied <- struct{}{}
	return nil
}

func (f *fakeScoreStore) total(userID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totals[userID]
}

func (f *fakeScoreStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestWorker(bus *events.Bus, scores ScoreStore) *Worker {
	return &Worker{
		bus:    bus,
		scores: scores,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func waitApplied(t *testing.T, scores *fakeScoreStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-scores.applied:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for update %d of %d", i+1, n)
		}
	}
}

func TestWorkerFoldsEventsIntoScores(t *testing.T) {
	backend := newMemBackend()
	bus := events.NewBus(backend)
	scores := newFakeScoreStore()

	for _, event := range []events.WasteEvent{
		{EntryID: "log-1", UserID: 1, Points: 10, Category: "plastic"},
		{EntryID: "log-2", UserID: 1, Points: 20, Category: "glass"},
		{EntryID: "log-3", UserID: 2, Points: 5, Category: "paper"},
	} {
		if err := bus.PublishWasteLogged(context.Background(), event); err != nil {
			t.Fatalf("publish error: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := newTestWorker(bus, scores)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitApplied(t, scores, 3)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v, want nil on cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}

	if got := scores.total(1); got != 30 {
		t.Fatalf("user 1 total = %d, want 30", got)
	}
	if got := scores.total(2); got != 5 {
		t.Fatalf("user 2 total = %d, want 5", got)
	}
}

func TestWorkerSkipsEventsWithoutUser(t *testing.T) {
	scores := newFakeScoreStore()
	w := newTestWorker(events.NewBus(newMemBackend()), scores)

	for _, userID := range []int{0, -3} {
		err := w.handleEvent(context.Background(), events.WasteEvent{EntryID: "log-x", UserID: userID, Points: 10})
		if err != nil {
			t.Fatalf("handleEvent(userID=%d) = %v, want nil", userID, err)
		}
	}
	if scores.callCount() != 0 {
		t.Fatalf("AddPoints calls = %d, want 0", scores.callCount())
	}
}

func TestWorkerRetriesOnStoreError(t *testing.T) {
	backend := newMemBackend()
	bus := events.NewBus(backend)
	scores := newFakeScoreStore()
	scores.failures = 1

	if err := bus.PublishWasteLogged(context.Background(), events.WasteEvent{EntryID: "log-1", UserID: 4, Points: 12}); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := newTestWorker(bus, scores)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitApplied(t, scores, 1)
	cancel()
	<-done

	if got := scores.callCount(); got < 2 {
		t.Fatalf("AddPoints calls = %d, want at least 2 (failure then redelivery)", got)
	}
	if got := scores.total(4); got != 12 {
		t.Fatalf("user 4 total = %d, want 12", got)
	}
}
