package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/repository"
)

var _ repository.ReferralRepository = (*PostgresReferralRepo)(nil)

type PostgresReferralRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresReferralRepo(pool *pgxpool.Pool) *PostgresReferralRepo {
	return &PostgresReferralRepo{pool: pool}
}

func (r *PostgresReferralRepo) SaveEarning(ctx context.Context, tx repository.Tx, e *model.ReferralEarning) error {
	const q = `
INSERT INTO referral_earnings (referrer_id, referred_id, payment_id, amount_rub, commission_percent, earned_rub, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);
`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, e.ReferrerID, e.ReferredID, e.PaymentID, e.AmountRUB, e.CommissionPercent, e.EarnedRUB, e.CreatedAt)
	return err
}

func (r *PostgresReferralRepo) ListEarnings(ctx context.Context, tx repository.Tx, referrerID int64) ([]*model.ReferralEarning, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const q = `
SELECT id, referrer_id, referred_id, payment_id, amount_rub, commission_percent, earned_rub, created_at
  FROM referral_earnings WHERE referrer_id=$1 ORDER BY created_at DESC;`
	rows, err := ex.Query(ctx, q, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ReferralEarning
	for rows.Next() {
		var e model.ReferralEarning
		if err := rows.Scan(&e.ID, &e.ReferrerID, &e.ReferredID, &e.PaymentID, &e.AmountRUB, &e.CommissionPercent, &e.EarnedRUB, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *PostgresReferralRepo) SumEarnings(ctx context.Context, tx repository.Tx, referrerID int64) (int64, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := ex.QueryRow(ctx, `SELECT COALESCE(SUM(earned_rub),0) FROM referral_earnings WHERE referrer_id=$1;`, referrerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("sum earnings: %w", err)
	}
	return n, nil
}
