package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/ecoforge/apiserver/internal/services"
	"github.com/ecoforge/apiserver/types"
	"github.com/go-chi/chi/v5"
)

func newWasteTestRouter(t *testing.T, scores []types.UserScore) (*chi.Mux, *fakeWasteRepo) {
	t.Helper()

	wasteRepo := &fakeWasteRepo{}
	wasteService := services.NewWasteService(wasteRepo, &fakeScoreRepo{scores: scores}, nil, nil)

	router := chi.NewRouter()
	router.Route("/waste", func(r chi.Router) {
		WasteRouter(r, wasteService, RequireAuth(testSecret))
	})
	return router, wasteRepo
}

func tokenFor(t *testing.T, userID int) string {
	t.Helper()

	token, err := issueToken(userID, []byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("issueToken error: %v", err)
	}
	return token
}

func TestLogWasteTagsAuthenticatedUser(t *testing.T) {
	router, repo := newWasteTestRouter(t, nil)
	token := tokenFor(t, 3)

	// A client-supplied user_id must be ignored.
	rec := doJSON(t, router, http.MethodPost, "/waste/log", `{"points":10,"type":"plastic","user_id":99}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("log status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp WasteLogResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode log response: %v", err)
	}
	if resp.UserID != 3 {
		t.Fatalf("response user_id = %d, want 3", resp.UserID)
	}

	if len(repo.entries) != 1 {
		t.Fatalf("stored entries = %d, want 1", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.UserID != 3 {
		t.Fatalf("stored user_id = %d, want 3", entry.UserID)
	}
	if entry.Points != 10 || entry.Category != "plastic" {
		t.Fatalf("stored entry = %+v", entry)
	}
	if entry.ID == "" {
		t.Fatalf("expected generated entry id")
	}
	if entry.Date.IsZero() {
		t.Fatalf("expected defaulted date")
	}
}

func TestLogWasteRequiresToken(t *testing.T) {
	router, _ := newWasteTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/waste/log", `{"points":10,"type":"plastic"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestGetUserWasteReturnsOwnEntriesInOrder(t *testing.T) {
	router, _ := newWasteTestRouter(t, nil)
	token := tokenFor(t, 5)

	for i := 1; i <= 3; i++ {
		body := fmt.Sprintf(`{"points":%d,"type":"plastic","date":"2024-01-0%d"}`, i*10, i)
		rec := doJSON(t, router, http.MethodPost, "/waste/log", body, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("log %d status = %d", i, rec.Code)
		}
	}

	rec := doJSON(t, router, http.MethodGet, "/waste/user/5", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", rec.Code, http.StatusOK)
	}

	var entries []types.WasteLog
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	for i, entry := range entries {
		if entry.Points != (i+1)*10 {
			t.Fatalf("entry %d points = %d, want %d", i, entry.Points, (i+1)*10)
		}
		wantDate := fmt.Sprintf("2024-01-0%d", i+1)
		if entry.Date.String() != wantDate {
			t.Fatalf("entry %d date = %q, want %q", i, entry.Date.String(), wantDate)
		}
	}
}

func TestGetUserWasteForbiddenForOtherUser(t *testing.T) {
	router, _ := newWasteTestRouter(t, nil)

	aliceToken := tokenFor(t, 1)
	bobToken := tokenFor(t, 2)

	rec := doJSON(t, router, http.MethodPost, "/waste/log", `{"points":10,"type":"plastic"}`, aliceToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("log status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/waste/user/1", "", bobToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cross-user read status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if body := rec.Body.String(); len(body) > 0 {
		var resp ErrorResponse
		if err := json.Unmarshal([]byte(body), &resp); err != nil {
			t.Fatalf("decode error response: %v", err)
		}
		if resp.Error != "forbidden" {
			t.Fatalf("error = %q, want %q", resp.Error, "forbidden")
		}
	}
}

func TestGetUserWasteInvalidID(t *testing.T) {
	router, _ := newWasteTestRouter(t, nil)
	token := tokenFor(t, 1)

	rec := doJSON(t, router, http.MethodGet, "/waste/user/abc", "", token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLeaderboard(t *testing.T) {
	scores := []types.UserScore{
		{UserID: 1, Username: "alice", TotalPoints: 50, Entries: 5},
		{UserID: 2, Username: "bob", TotalPoints: 30, Entries: 3},
	}
	router, _ := newWasteTestRouter(t, scores)
	token := tokenFor(t, 1)

	rec := doJSON(t, router, http.MethodGet, "/waste/leaderboard", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got []types.UserScore
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(got) != 2 || got[0].Username != "alice" || got[0].TotalPoints != 50 {
		t.Fatalf("unexpected leaderboard: %+v", got)
	}

	rec = doJSON(t, router, http.MethodGet, "/waste/leaderboard", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
