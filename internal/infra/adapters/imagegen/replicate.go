package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/severand/InteriorBot/internal/config"
	"github.com/severand/InteriorBot/internal/domain"
	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
)

var _ adapter.ImageGenerator = (*ReplicateGenerator)(nil)

const replicateAPI = "https://api.replicate.com/v1/predictions"

// ReplicateGenerator renders designs through the Replicate predictions API:
// create a prediction, then poll it until it settles or the timeout hits.
type ReplicateGenerator struct {
	token        string
	modelVersion string
	pollInterval time.Duration
	timeout      time.Duration
	client       *http.Client
	log          *zerolog.Logger
}

func NewReplicateGenerator(cfg config.GenerationConfig, logger *zerolog.Logger) (*ReplicateGenerator, error) {
	if cfg.ReplicateToken == "" {
		return nil, errors.New("replicate token empty")
	}
	if cfg.ModelVersion == "" {
		return nil, errors.New("model version empty")
	}
	return &ReplicateGenerator{
		token:        cfg.ReplicateToken,
		modelVersion: cfg.ModelVersion,
		pollInterval: cfg.PollInterval,
		timeout:      cfg.Timeout,
		client:       &http.Client{Timeout: 30 * time.Second},
		log:          logger,
	}, nil
}

func (r *ReplicateGenerator) Name() string { return "replicate" }

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func (r *ReplicateGenerator) Generate(ctx context.Context, req model.GenerationRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	p, err := r.create(ctx, req)
	if err != nil {
		return "", err
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: prediction %s timed out", domain.ErrGenerationFailed, p.ID)
		case <-ticker.C:
		}

		p, err = r.get(ctx, p.URLs.Get)
		if err != nil {
			return "", err
		}
		switch p.Status {
		case "succeeded":
			url, err := firstOutputURL(p.Output)
			if err != nil {
				return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
			}
			return url, nil
		case "failed", "canceled":
			r.log.Warn().Str("prediction_id", p.ID).Str("error", p.Error).Msg("prediction failed")
			return "", fmt.Errorf("%w: %s", domain.ErrGenerationFailed, p.Error)
		}
		// starting / processing: keep polling
	}
}

func (r *ReplicateGenerator) create(ctx context.Context, req model.GenerationRequest) (*prediction, error) {
	payload := map[string]any{
		"version": r.modelVersion,
		"input": map[string]any{
			"image":  req.PhotoURL,
			"prompt": req.Prompt(),
		},
	}
	b, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, replicateAPI, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Token "+r.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: replicate create returned %d", domain.ErrGenerationFailed, resp.StatusCode)
	}
	var p prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, err
	}
	if p.URLs.Get == "" {
		p.URLs.Get = replicateAPI + "/" + p.ID
	}
	return &p, nil
}

func (r *ReplicateGenerator) get(ctx context.Context, url string) (*prediction, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Token "+r.token)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: replicate get returned %d", domain.ErrGenerationFailed, resp.StatusCode)
	}
	var p prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// firstOutputURL handles both output shapes the API uses: a plain string or a
// list of URLs.
func firstOutputURL(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("empty output")
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0], nil
	}
	return "", errors.New("unrecognized output shape")
}
