package imagegen

import (
	"context"

	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
)

var _ adapter.ImageGenerator = (*NoopGenerator)(nil)

// stubResultURL is returned by the stub backend in dev runs without a
// Replicate token.
const stubResultURL = "https://i.imgur.com/K1x5d1H.png"

// NoopGenerator is the stub backend used in dev and tests.
type NoopGenerator struct {
	// URL overrides the stub result when non-empty.
	URL string
	// Err makes every call fail, for exercising failure paths.
	Err error
}

func (n *NoopGenerator) Name() string { return "noop" }

func (n *NoopGenerator) Generate(ctx context.Context, req model.GenerationRequest) (string, error) {
	if n.Err != nil {
		return "", n.Err
	}
	if n.URL != "" {
		return n.URL, nil
	}
	return stubResultURL, nil
}
