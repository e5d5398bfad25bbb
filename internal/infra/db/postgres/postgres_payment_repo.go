package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/severand/InteriorBot/internal/domain"
	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*PostgresPaymentRepo)(nil)

type PostgresPaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPaymentRepo(pool *pgxpool.Pool) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{pool: pool}
}

const paymentColumns = `id, provider_id, user_id, amount_rub, credits, status, created_at, paid_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.ProviderID, &p.UserID, &p.AmountRUB, &p.Credits, &p.Status, &p.CreatedAt, &p.PaidAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (id, provider_id, user_id, amount_rub, credits, status, created_at, paid_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET status=$6, paid_at=$8;
`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, p.ID, p.ProviderID, p.UserID, p.AmountRUB, p.Credits, p.Status, p.CreatedAt, p.PaidAt)
	return err
}

func (r *PostgresPaymentRepo) FindByProviderID(ctx context.Context, tx repository.Tx, providerID string) (*model.Payment, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanPayment(ex.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE provider_id=$1;`, providerID))
}

func (r *PostgresPaymentRepo) FindLastPending(ctx context.Context, tx repository.Tx, userID int64) (*model.Payment, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments
 WHERE user_id=$1 AND status='pending' ORDER BY created_at DESC LIMIT 1;`
	return scanPayment(ex.QueryRow(ctx, q, userID))
}

func (r *PostgresPaymentRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	var interval string
	switch period {
	case "week":
		interval = "7 days"
	case "month":
		interval = "30 days"
	case "year":
		interval = "365 days"
	default:
		return 0, fmt.Errorf("sum by period: unknown period %q: %w", period, domain.ErrInvalidArgument)
	}
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	q := `SELECT COALESCE(SUM(amount_rub),0) FROM payments
 WHERE status='succeeded' AND paid_at > NOW() - INTERVAL '` + interval + `';`
	var n int64
	if err := ex.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	return n, nil
}

func (r *PostgresPaymentRepo) CountByStatus(ctx context.Context, tx repository.Tx, status model.PaymentStatus) (int, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE status=$1;`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return n, nil
}
