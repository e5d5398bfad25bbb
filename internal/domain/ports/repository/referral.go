package repository

import (
	"context"

	"github.com/severand/InteriorBot/internal/domain/model"
)

type ReferralRepository interface {
	SaveEarning(ctx context.Context, tx Tx, e *model.ReferralEarning) error
	ListEarnings(ctx context.Context, tx Tx, referrerID int64) ([]*model.ReferralEarning, error)
	SumEarnings(ctx context.Context, tx Tx, referrerID int64) (int64, error)
}
