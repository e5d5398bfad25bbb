package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/severand/InteriorBot/internal/domain"
	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `telegram_id, username, balance, referral_code, referred_by, referrals_count, referral_balance, registered_at, last_active_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Balance, &u.ReferralCode, &u.ReferredBy,
		&u.ReferralsCount, &u.ReferralBalance, &u.RegisteredAt, &u.LastActiveAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (telegram_id, username, balance, referral_code, referred_by, referrals_count, referral_balance, registered_at, last_active_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (telegram_id) DO UPDATE SET
  username=$2, last_active_at=$9;
`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, u.ID, u.Username, u.Balance, u.ReferralCode, u.ReferredBy,
		u.ReferralsCount, u.ReferralBalance, u.RegisteredAt, u.LastActiveAt)
	return err
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanUser(ex.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id=$1;`, tgID))
}

func (r *PostgresUserRepo) FindByReferralCode(ctx context.Context, tx repository.Tx, code string) (*model.User, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanUser(ex.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code=$1;`, code))
}

func (r *PostgresUserRepo) GetBalance(ctx context.Context, tx repository.Tx, tgID int64) (int, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT balance FROM users WHERE telegram_id=$1;`, tgID).Scan(&n); err != nil {
		if err == pgx.ErrNoRows {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return n, nil
}

func (r *PostgresUserRepo) AddBalance(ctx context.Context, tx repository.Tx, tgID int64, delta int) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `UPDATE users SET balance = balance + $1 WHERE telegram_id=$2;`, delta, tgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) DecrementBalance(ctx context.Context, tx repository.Tx, tgID int64) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	// Guarded so a concurrent spend cannot take the balance negative.
	tag, err := ex.Exec(ctx, `UPDATE users SET balance = balance - 1 WHERE telegram_id=$1 AND balance > 0;`, tgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoBalance
	}
	return nil
}

func (r *PostgresUserRepo) SetBalance(ctx context.Context, tx repository.Tx, tgID int64, balance int) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `UPDATE users SET balance = $1 WHERE telegram_id=$2;`, balance, tgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) AddReferralBalance(ctx context.Context, tx repository.Tx, tgID int64, amountRUB int64) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `UPDATE users SET referral_balance = referral_balance + $1 WHERE telegram_id=$2;`, amountRUB, tgID)
	return err
}

func (r *PostgresUserRepo) IncrementReferrals(ctx context.Context, tx repository.Tx, tgID int64) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `UPDATE users SET referrals_count = referrals_count + 1 WHERE telegram_id=$1;`, tgID)
	return err
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *PostgresUserRepo) CountInactiveUsers(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE last_active_at < $1;`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count inactive: %w", err)
	}
	return n, nil
}

func (r *PostgresUserRepo) SumBalances(ctx context.Context, tx repository.Tx) (int64, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := ex.QueryRow(ctx, `SELECT COALESCE(SUM(balance),0) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sum balances: %w", err)
	}
	return n, nil
}
