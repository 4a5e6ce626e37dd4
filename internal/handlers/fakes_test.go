package handlers

import (
	"context"
	"sync"

	"github.com/ecoforge/apiserver/internal/store"
	"github.com/ecoforge/apiserver/types"
)

// fakeUserRepo is an in-memory UserRepository. Uniqueness is enforced
// under a single lock, mirroring the database unique index.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[string]types.User)}
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[user.Username]; exists {
		return types.User{}, store.ErrDuplicate
	}
	user.ID = f.nextID
	f.nextID++
	f.users[user.Username] = user
	return user, nil
}

// fakeWasteRepo is an in-memory append-only WasteLogRepository.
type fakeWasteRepo struct {
	mu      sync.Mutex
	entries []types.WasteLog
}

func (f *fakeWasteRepo) Append(ctx context.Context, entry types.WasteLog, payload []byte) (types.WasteLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeWasteRepo) ListByUser(ctx context.Context, userID int) ([]types.WasteLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	owned := make([]types.WasteLog, 0)
	for _, entry := range f.entries {
		if entry.UserID == userID {
			owned = append(owned, entry)
		}
	}
	return owned, nil
}

// fakeScoreRepo serves a fixed leaderboard.
type fakeScoreRepo struct {
	scores []types.UserScore
}

func (f *fakeScoreRepo) Top(ctx context.Context, limit int) ([]types.UserScore, error) {
	if limit < len(f.scores) {
		return f.scores[:limit], nil
	}
	return f.scores, nil
}
