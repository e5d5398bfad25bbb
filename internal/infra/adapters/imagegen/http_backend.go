package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/severand/InteriorBot/internal/domain"
	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
)

var _ adapter.ImageGenerator = (*HTTPGenerator)(nil)

// HTTPGenerator talks to a self-hosted rendering endpoint: one POST with the
// source image and prompt, a JSON body with the result URL back. Used as the
// secondary backend behind FallbackGenerator.
type HTTPGenerator struct {
	endpoint string
	client   *http.Client
}

func NewHTTPGenerator(endpoint string) (*HTTPGenerator, error) {
	if endpoint == "" {
		return nil, errors.New("endpoint empty")
	}
	return &HTTPGenerator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (h *HTTPGenerator) Name() string { return "http" }

func (h *HTTPGenerator) Generate(ctx context.Context, req model.GenerationRequest) (string, error) {
	payload := map[string]any{
		"id":     req.ID,
		"image":  req.PhotoURL,
		"prompt": req.Prompt(),
	}
	b, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: backend returned %d", domain.ErrGenerationFailed, resp.StatusCode)
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("%w: empty result url", domain.ErrGenerationFailed)
	}
	return out.URL, nil
}
