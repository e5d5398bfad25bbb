package repository

import (
	"context"
	"time"

	"github.com/severand/InteriorBot/internal/domain/model"
)

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, tgID int64) (*model.User, error)
	FindByReferralCode(ctx context.Context, tx Tx, code string) (*model.User, error)

	// GetBalance reads the current generation balance.
	GetBalance(ctx context.Context, tx Tx, tgID int64) (int, error)
	// AddBalance atomically adds delta (may be negative) to the balance.
	AddBalance(ctx context.Context, tx Tx, tgID int64, delta int) error
	// DecrementBalance atomically spends one generation; it must not take the
	// balance below zero.
	DecrementBalance(ctx context.Context, tx Tx, tgID int64) error
	// SetBalance overwrites the balance (admin operation).
	SetBalance(ctx context.Context, tx Tx, tgID int64, balance int) error

	// AddReferralBalance adds roubles to the referral balance.
	AddReferralBalance(ctx context.Context, tx Tx, tgID int64, amountRUB int64) error
	// IncrementReferrals bumps the invite counter.
	IncrementReferrals(ctx context.Context, tx Tx, tgID int64) error

	CountUsers(ctx context.Context, tx Tx) (int, error)
	CountInactiveUsers(ctx context.Context, tx Tx, since time.Time) (int, error)
	SumBalances(ctx context.Context, tx Tx) (int64, error)
}
