package repository

import (
	"context"

	"github.com/severand/InteriorBot/internal/domain/model"
)

// SessionRepository holds per-conversation flow state. Get returns a fresh
// idle session (not an error) when no state is stored, so callers never deal
// with a missing-session case.
type SessionRepository interface {
	Get(ctx context.Context, tgID int64) (*model.Session, error)
	Set(ctx context.Context, tgID int64, s *model.Session) error
	Clear(ctx context.Context, tgID int64) error
}
