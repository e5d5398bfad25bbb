package usecase

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/severand/InteriorBot/internal/config"
	"github.com/severand/InteriorBot/internal/domain"
	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/repository"
	"github.com/severand/InteriorBot/internal/infra/logging"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

type UserUseCase interface {
	// RegisterOrFetch returns the user for the Telegram id, creating it with
	// the welcome bonus on first contact. referralCode is the optional /start
	// deep-link payload; it only has effect at creation time.
	RegisterOrFetch(ctx context.Context, tgID int64, username, referralCode string) (*model.User, bool, error)
	Profile(ctx context.Context, tgID int64) (*model.User, error)
}

type userUC struct {
	users     repository.UserRepository
	referrals ReferralUseCase
	txm       repository.TransactionManager
	cfg       config.ReferralConfig
	log       *zerolog.Logger
}

func NewUserUseCase(
	users repository.UserRepository,
	referrals ReferralUseCase,
	txm repository.TransactionManager,
	cfg config.ReferralConfig,
	logger *zerolog.Logger,
) *userUC {
	return &userUC{users: users, referrals: referrals, txm: txm, cfg: cfg, log: logger}
}

func (u *userUC) RegisterOrFetch(ctx context.Context, tgID int64, username, referralCode string) (*model.User, bool, error) {
	existing, err := u.users.FindByID(ctx, repository.NoTX, tgID)
	if err == nil {
		existing.Touch()
		if username != "" && existing.Username != username {
			existing.Username = username
		}
		if err := u.users.Save(ctx, repository.NoTX, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != domain.ErrNotFound {
		return nil, false, err
	}

	user, err := model.NewUser(tgID, username, u.cfg.WelcomeBonus)
	if err != nil {
		return nil, false, err
	}

	// Resolve the inviter outside the tx; a bogus code just means no referral.
	var inviter *model.User
	if referralCode != "" {
		inviter, err = u.users.FindByReferralCode(ctx, repository.NoTX, referralCode)
		if err != nil && err != domain.ErrNotFound {
			return nil, false, err
		}
		if inviter != nil && inviter.ID == tgID {
			inviter = nil // self-invite
		}
	}

	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if inviter != nil {
			user.ReferredBy = inviter.ID
			user.Balance += u.cfg.InvitedBonus
		}
		if err := u.users.Save(ctx, tx, user); err != nil {
			return err
		}
		if inviter != nil {
			return u.referrals.RewardInviter(ctx, tx, inviter.ID)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	log := logging.With(logging.WithTgID(ctx, tgID), u.log)
	log.Info().Bool("referred", user.ReferredBy != 0).Msg("user registered")
	return user, true, nil
}

func (u *userUC) Profile(ctx context.Context, tgID int64) (*model.User, error) {
	return u.users.FindByID(ctx, repository.NoTX, tgID)
}
