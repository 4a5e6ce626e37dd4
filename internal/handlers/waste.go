package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ecoforge/apiserver/internal/services"
	"github.com/ecoforge/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const maxWastePayloadBytes = 1 << 20

// WasteHandler provides HTTP handlers for waste-log entries.
type WasteHandler struct {
	wasteService *services.WasteService
}

// NewWasteHandler constructs a handler with the provided service.
func NewWasteHandler(wasteService *services.WasteService) *WasteHandler {
	return &WasteHandler{wasteService: wasteService}
}

// WasteRouter registers token-gated waste routes on the given router.
func WasteRouter(r chi.Router, wasteService *services.WasteService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewWasteHandler(wasteService)

	r.Use(authMiddleware)
	r.Post("/log", handler.LogWaste)
	r.Get("/user/{userID}", handler.GetUserWaste)
	r.Get("/leaderboard", handler.Leaderboard)
}

// LogWaste appends one waste-log entry owned by the authenticated user.
// Ownership comes from the token subject; any user_id field in the
// payload is ignored.
func (h *WasteHandler) LogWaste(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	payload, err := readBodyLimited(r.Body, maxWastePayloadBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req WasteLogRequest
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
	}

	input := services.WasteLogInput{
		Points:   req.Points,
		Category: strings.TrimSpace(req.Type),
		Date:     req.Date,
	}
	if _, err := h.wasteService.Log(r.Context(), userID, input, payload); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to log waste")
		return
	}

	writeJSON(w, http.StatusOK, WasteLogResponse{
		Msg:    "Waste logged successfully",
		UserID: userID,
	})
}

// GetUserWaste returns the authenticated user's history. The path
// parameter is kept for client compatibility but must match the token
// subject; a mismatch is Forbidden, never another user's entries.
func (h *WasteHandler) GetUserWaste(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requested, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if requested != userID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	entries, err := h.wasteService.History(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list waste logs")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// Leaderboard returns the top aggregated point totals.
func (h *WasteHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	scores, err := h.wasteService.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, scores)
}

// WasteLogRequest is the structured part of a waste payload. Unknown
// fields are preserved in the stored raw payload.
type WasteLogRequest struct {
	Points int        `json:"points"`
	Type   string     `json:"type"`
	Date   types.Date `json:"date"`
}

// WasteLogResponse confirms an append.
type WasteLogResponse struct {
	Msg    string `json:"msg"`
	UserID int    `json:"user_id"`
}

func parseUserID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid user id")
	}
	return id, nil
}

func readBodyLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read request body")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("request body too large")
	}
	return data, nil
}
