package adapter

import (
	"context"

	"github.com/severand/InteriorBot/internal/domain/model"
)

// ImageGenerator is the port for the external design-rendering backend.
// Generate blocks until the backend produces a result image or fails; there is
// no retry at this level (a fallback chain is a separate implementation of the
// same port).
type ImageGenerator interface {
	Name() string
	Generate(ctx context.Context, req model.GenerationRequest) (imageURL string, err error)
}
