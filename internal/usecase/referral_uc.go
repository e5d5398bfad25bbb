package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/severand/InteriorBot/internal/config"
	"github.com/severand/InteriorBot/internal/domain"
	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/repository"
)

// Compile-time check
var _ ReferralUseCase = (*referralUC)(nil)

// ReferralStats is the profile view of the invite program.
type ReferralStats struct {
	Code            string
	Link            string
	ReferralsCount  int
	ReferralBalance int64 // roubles
	TotalEarnedRUB  int64
}

type ReferralUseCase interface {
	// RewardInviter credits the invite bonus and bumps the invite counter.
	// Called inside the registration transaction.
	RewardInviter(ctx context.Context, tx repository.Tx, inviterID int64) error
	// Commission credits the referrer's rouble balance with a percentage of a
	// succeeded payment. No-op when the payer was not invited.
	Commission(ctx context.Context, tx repository.Tx, p *model.Payment) error
	// Exchange converts the rouble referral balance into whole generation
	// credits at the configured rate. Returns the number of credits granted.
	Exchange(ctx context.Context, tgID int64) (int, error)
	Stats(ctx context.Context, tgID int64) (*ReferralStats, error)
}

type referralUC struct {
	users    repository.UserRepository
	earnings repository.ReferralRepository
	txm      repository.TransactionManager
	cfg      config.ReferralConfig
	botName  string
	log      *zerolog.Logger
}

func NewReferralUseCase(
	users repository.UserRepository,
	earnings repository.ReferralRepository,
	txm repository.TransactionManager,
	cfg config.ReferralConfig,
	botUsername string,
	logger *zerolog.Logger,
) *referralUC {
	return &referralUC{users: users, earnings: earnings, txm: txm, cfg: cfg, botName: botUsername, log: logger}
}

func (r *referralUC) RewardInviter(ctx context.Context, tx repository.Tx, inviterID int64) error {
	if err := r.users.AddBalance(ctx, tx, inviterID, r.cfg.InviterBonus); err != nil {
		return err
	}
	if err := r.users.IncrementReferrals(ctx, tx, inviterID); err != nil {
		return err
	}
	r.log.Info().Int64("inviter_id", inviterID).Int("bonus", r.cfg.InviterBonus).Msg("inviter rewarded")
	return nil
}

func (r *referralUC) Commission(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	payer, err := r.users.FindByID(ctx, tx, p.UserID)
	if err != nil {
		return err
	}
	if payer.ReferredBy == 0 {
		return nil
	}

	earned := p.AmountRUB * int64(r.cfg.CommissionPercent) / 100
	if earned <= 0 {
		return nil
	}
	if err := r.users.AddReferralBalance(ctx, tx, payer.ReferredBy, earned); err != nil {
		return err
	}
	if err := r.earnings.SaveEarning(ctx, tx, &model.ReferralEarning{
		ReferrerID:        payer.ReferredBy,
		ReferredID:        payer.ID,
		PaymentID:         p.ID,
		AmountRUB:         p.AmountRUB,
		CommissionPercent: r.cfg.CommissionPercent,
		EarnedRUB:         earned,
		CreatedAt:         time.Now(),
	}); err != nil {
		return err
	}
	r.log.Info().
		Int64("referrer_id", payer.ReferredBy).
		Str("payment_id", p.ID).
		Int64("earned_rub", earned).
		Msg("referral commission credited")
	return nil
}

func (r *referralUC) Exchange(ctx context.Context, tgID int64) (int, error) {
	var credits int
	err := r.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		user, err := r.users.FindByID(ctx, tx, tgID)
		if err != nil {
			return err
		}
		credits = int(user.ReferralBalance / r.cfg.ExchangeRateRUB)
		if credits <= 0 {
			return domain.ErrNoBalance
		}
		spent := int64(credits) * r.cfg.ExchangeRateRUB
		if err := r.users.AddReferralBalance(ctx, tx, tgID, -spent); err != nil {
			return err
		}
		return r.users.AddBalance(ctx, tx, tgID, credits)
	})
	if err != nil {
		return 0, err
	}
	r.log.Info().Int64("tg_id", tgID).Int("credits", credits).Msg("referral balance exchanged")
	return credits, nil
}

func (r *referralUC) Stats(ctx context.Context, tgID int64) (*ReferralStats, error) {
	user, err := r.users.FindByID(ctx, repository.NoTX, tgID)
	if err != nil {
		return nil, err
	}
	total, err := r.earnings.SumEarnings(ctx, repository.NoTX, tgID)
	if err != nil {
		return nil, err
	}
	return &ReferralStats{
		Code:            user.ReferralCode,
		Link:            fmt.Sprintf("https://t.me/%s?start=%s", r.botName, user.ReferralCode),
		ReferralsCount:  user.ReferralsCount,
		ReferralBalance: user.ReferralBalance,
		TotalEarnedRUB:  total,
	}, nil
}
