package repository

import (
	"context"

	"github.com/severand/InteriorBot/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByProviderID(ctx context.Context, tx Tx, providerID string) (*model.Payment, error)
	// FindLastPending returns the user's most recent pending payment, or
	// domain.ErrNotFound.
	FindLastPending(ctx context.Context, tx Tx, userID int64) (*model.Payment, error)
	// SumByPeriod sums succeeded payment amounts for "week", "month" or "year".
	SumByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
	CountByStatus(ctx context.Context, tx Tx, status model.PaymentStatus) (int, error)
}
