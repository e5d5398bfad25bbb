package imagegen

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
)

var _ adapter.ImageGenerator = (*FallbackGenerator)(nil)

// FallbackGenerator tries the primary backend first and falls back to the
// secondary when the primary errors. The caller sees a single generator.
type FallbackGenerator struct {
	primary   adapter.ImageGenerator
	secondary adapter.ImageGenerator
	log       *zerolog.Logger
}

func NewFallbackGenerator(primary, secondary adapter.ImageGenerator, logger *zerolog.Logger) *FallbackGenerator {
	return &FallbackGenerator{primary: primary, secondary: secondary, log: logger}
}

func (f *FallbackGenerator) Name() string { return f.primary.Name() + "+" + f.secondary.Name() }

func (f *FallbackGenerator) Generate(ctx context.Context, req model.GenerationRequest) (string, error) {
	url, err := f.primary.Generate(ctx, req)
	if err == nil {
		return url, nil
	}
	if ctx.Err() != nil {
		return "", err
	}
	f.log.Warn().Err(err).Str("primary", f.primary.Name()).Str("request_id", req.ID).
		Msg("primary backend failed, trying fallback")
	return f.secondary.Generate(ctx, req)
}
