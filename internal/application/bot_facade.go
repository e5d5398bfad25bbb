package application

import (
	"context"

	"github.com/severand/InteriorBot/internal/config"
	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/usecase"
)

// BotFacade composes the usecases into the surface the transport adapters
// talk to. The Telegram adapter and the admin web server both depend on this
// type instead of the individual usecases.
type BotFacade struct {
	UserUC     usecase.UserUseCase
	CreationUC usecase.CreationUseCase
	CreditUC   usecase.CreditUseCase
	PaymentUC  usecase.PaymentUseCase
	ReferralUC usecase.ReferralUseCase
	StatsUC    usecase.StatsUseCase

	cfg *config.Config
}

func NewBotFacade(
	userUC usecase.UserUseCase,
	creationUC usecase.CreationUseCase,
	creditUC usecase.CreditUseCase,
	paymentUC usecase.PaymentUseCase,
	referralUC usecase.ReferralUseCase,
	statsUC usecase.StatsUseCase,
	cfg *config.Config,
) *BotFacade {
	return &BotFacade{
		UserUC:     userUC,
		CreationUC: creationUC,
		CreditUC:   creditUC,
		PaymentUC:  paymentUC,
		ReferralUC: referralUC,
		StatsUC:    statsUC,
		cfg:        cfg,
	}
}

// IsAdmin reports whether the Telegram id belongs to a configured admin.
func (b *BotFacade) IsAdmin(tgID int64) bool { return b.cfg.IsAdmin(tgID) }

// HandleStart registers or fetches the user. payload is the /start deep-link
// argument carrying an optional referral code.
func (b *BotFacade) HandleStart(ctx context.Context, tgID int64, username, payload string) (*model.User, bool, error) {
	return b.UserUC.RegisterOrFetch(ctx, tgID, username, payload)
}

// Profile returns the user row plus the referral view for the profile screen.
func (b *BotFacade) Profile(ctx context.Context, tgID int64) (*model.User, *usecase.ReferralStats, error) {
	user, err := b.UserUC.Profile(ctx, tgID)
	if err != nil {
		return nil, nil, err
	}
	stats, err := b.ReferralUC.Stats(ctx, tgID)
	if err != nil {
		return nil, nil, err
	}
	return user, stats, nil
}
