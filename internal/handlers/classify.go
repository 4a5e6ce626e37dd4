package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ecoforge/apiserver/internal/archive"
	"github.com/ecoforge/apiserver/internal/classifier"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ClassifyHandler forwards images to the model server and serves the
// health probe.
type ClassifyHandler struct {
	client  *classifier.Client
	archive *archive.Archive
	logger  *slog.Logger
}

// NewClassifyHandler constructs a handler. archive may be nil, in which
// case accepted images are not retained.
func NewClassifyHandler(client *classifier.Client, imageArchive *archive.Archive, logger *slog.Logger) *ClassifyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifyHandler{client: client, archive: imageArchive, logger: logger}
}

// ClassifyRouter registers classification routes on the given router.
func ClassifyRouter(r chi.Router, client *classifier.Client, imageArchive *archive.Archive, logger *slog.Logger) {
	handler := NewClassifyHandler(client, imageArchive, logger)

	r.Post("/api/classify", handler.Classify)
	r.Get("/health", handler.Health)
}

// Classify accepts a base64 image, optionally data-URI prefixed, and
// returns the normalized model result.
func (h *ClassifyHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		writeError(w, http.StatusBadRequest, "no image provided")
		return
	}

	imageBytes, format, err := classifier.DecodeImage(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image")
		return
	}

	result, err := h.client.Classify(r.Context(), imageBytes)
	if err != nil {
		if errors.Is(err, classifier.ErrDecode) {
			writeError(w, http.StatusBadRequest, "invalid image")
			return
		}
		if errors.Is(err, classifier.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "classifier unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "classification failed")
		return
	}

	if h.archive != nil {
		key := fmt.Sprintf("classify/%s.%s", uuid.NewString(), format)
		contentType := "image/" + format
		if err := h.archive.Save(r.Context(), key, imageBytes, contentType); err != nil {
			h.logger.Warn("failed to archive image", "key", key, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// Health reports server liveness and whether the model server has its
// model loaded.
func (h *ClassifyHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		ModelLoaded: h.client.Health(r.Context()),
	})
}

// ClassifyRequest carries the base64 image payload.
type ClassifyRequest struct {
	Image string `json:"image"`
}

// HealthResponse is the health probe payload.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}
