package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/severand/InteriorBot/internal/domain"
	"github.com/severand/InteriorBot/internal/domain/ports/repository"
	"github.com/severand/InteriorBot/internal/infra/logging"
)

// Compile-time check
var _ CreditUseCase = (*creditUC)(nil)

// CreditUseCase is the balance gate plus the balance mutations it guards.
// Allow is a pure read; Spend is the atomic decrement applied together with a
// credit-consuming transition.
type CreditUseCase interface {
	// Allow reports whether a credit-consuming transition may proceed.
	// Admins are always allowed and never charged.
	Allow(ctx context.Context, tgID int64, isAdmin bool) (bool, error)
	// Spend consumes exactly one generation. Returns domain.ErrNoBalance when
	// the balance hit zero between the Allow check and the spend.
	Spend(ctx context.Context, tgID int64) error
	// Refund returns one generation (refund-on-failure charge policy).
	Refund(ctx context.Context, tgID int64) error

	Balance(ctx context.Context, tgID int64) (int, error)
	Grant(ctx context.Context, tgID int64, n int) error
	Set(ctx context.Context, tgID int64, n int) error
}

type creditUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewCreditUseCase(users repository.UserRepository, logger *zerolog.Logger) *creditUC {
	return &creditUC{users: users, log: logger}
}

func (c *creditUC) Allow(ctx context.Context, tgID int64, isAdmin bool) (bool, error) {
	if isAdmin {
		return true, nil
	}
	balance, err := c.users.GetBalance(ctx, repository.NoTX, tgID)
	if err != nil {
		if err == domain.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return balance > 0, nil
}

func (c *creditUC) Spend(ctx context.Context, tgID int64) error {
	defer logging.TraceDuration(c.log, "CreditUC.Spend")()
	if err := c.users.DecrementBalance(ctx, repository.NoTX, tgID); err != nil {
		return err
	}
	c.log.Info().Int64("tg_id", tgID).Msg("balance decremented")
	return nil
}

func (c *creditUC) Refund(ctx context.Context, tgID int64) error {
	if err := c.users.AddBalance(ctx, repository.NoTX, tgID, 1); err != nil {
		return err
	}
	c.log.Info().Int64("tg_id", tgID).Msg("credit refunded")
	return nil
}

func (c *creditUC) Balance(ctx context.Context, tgID int64) (int, error) {
	return c.users.GetBalance(ctx, repository.NoTX, tgID)
}

func (c *creditUC) Grant(ctx context.Context, tgID int64, n int) error {
	if n <= 0 {
		return domain.ErrInvalidArgument
	}
	return c.users.AddBalance(ctx, repository.NoTX, tgID, n)
}

func (c *creditUC) Set(ctx context.Context, tgID int64, n int) error {
	if n < 0 {
		return domain.ErrInvalidArgument
	}
	return c.users.SetBalance(ctx, repository.NoTX, tgID, n)
}
