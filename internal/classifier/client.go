// Package classifier is the gateway to the external food/trash model
// server. The model itself is a black box; this client validates the
// image, forwards it with a bounded timeout, and normalizes the score.
package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"time"

	"github.com/ecoforge/apiserver/config"
	"github.com/ecoforge/apiserver/types"
)

// ErrDecode is returned when the input is not a valid image.
var ErrDecode = errors.New("invalid image")

// ErrUnavailable is returned when the model server cannot be reached,
// times out, or responds with a failure.
var ErrUnavailable = errors.New("classifier unavailable")

const trashThreshold = 0.5

// Client calls the model server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a Client from config. The timeout bounds every
// inference call so one slow classification cannot hold a request open
// indefinitely.
func New(cfg config.ClassifierConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// DecodeImage decodes a base64 image payload, tolerating a data-URI
// prefix, and verifies the bytes are a decodable image.
func DecodeImage(encoded string) ([]byte, string, error) {
	if idx := strings.Index(encoded, "base64,"); idx >= 0 {
		encoded = encoded[idx+len("base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, "", ErrDecode
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", ErrDecode
	}
	return data, format, nil
}

type classifyRequest struct {
	Image string `json:"image"`
}

type modelResponse struct {
	RawScore float64 `json:"rawScore"`
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// Classify sends the image to the model server and normalizes its
// score: isTrash when the score crosses the threshold, confidence is
// the probability mass of the predicted class.
func (c *Client) Classify(ctx context.Context, imageBytes []byte) (types.Classification, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(imageBytes)); err != nil {
		return types.Classification{}, ErrDecode
	}

	body, err := json.Marshal(classifyRequest{
		Image: base64.StdEncoding.EncodeToString(imageBytes),
	})
	if err != nil {
		return types.Classification{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/classify", bytes.NewReader(body))
	if err != nil {
		return types.Classification{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.Classification{}, ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Classification{}, fmt.Errorf("%w: model server returned %d", ErrUnavailable, resp.StatusCode)
	}

	var model modelResponse
	if err := json.NewDecoder(resp.Body).Decode(&model); err != nil {
		return types.Classification{}, ErrUnavailable
	}
	if model.RawScore < 0 || model.RawScore > 1 {
		return types.Classification{}, fmt.Errorf("%w: score out of range", ErrUnavailable)
	}

	return normalize(model.RawScore), nil
}

// Health reports whether the model server is up and its model loaded.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false
	}
	return health.ModelLoaded
}

func normalize(rawScore float64) types.Classification {
	isTrash := rawScore > trashThreshold
	confidence := rawScore
	if !isTrash {
		confidence = 1 - rawScore
	}
	return types.Classification{
		IsTrash:    isTrash,
		IsFood:     !isTrash,
		Confidence: confidence,
		RawScore:   rawScore,
	}
}
