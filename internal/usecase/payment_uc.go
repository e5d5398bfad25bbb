package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/severand/InteriorBot/internal/config"
	"github.com/severand/InteriorBot/internal/domain"
	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
	"github.com/severand/InteriorBot/internal/domain/ports/repository"
	"github.com/severand/InteriorBot/internal/infra/logging"
	"github.com/severand/InteriorBot/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// Invoice is a freshly created charge awaiting payment.
type Invoice struct {
	Payment     *model.Payment
	RedirectURL string
}

type PaymentUseCase interface {
	Packages() []model.CreditPackage
	// CreateInvoice starts a purchase of the named package and returns the
	// gateway redirect link.
	CreateInvoice(ctx context.Context, tgID int64, packageKey string) (*Invoice, error)
	// CheckPending polls the gateway for the user's latest pending payment and
	// finalizes it when it settled. Finalization is idempotent: credits are
	// granted exactly once, inside one transaction with the status flip.
	CheckPending(ctx context.Context, tgID int64) (*model.Payment, error)
}

type paymentUC struct {
	payments  repository.PaymentRepository
	users     repository.UserRepository
	referrals ReferralUseCase
	gateway   adapter.PaymentGateway
	txm       repository.TransactionManager
	packages  []model.CreditPackage
	log       *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	users repository.UserRepository,
	referrals ReferralUseCase,
	gateway adapter.PaymentGateway,
	txm repository.TransactionManager,
	cfg config.PaymentConfig,
	logger *zerolog.Logger,
) *paymentUC {
	return &paymentUC{
		payments:  payments,
		users:     users,
		referrals: referrals,
		gateway:   gateway,
		txm:       txm,
		packages:  cfg.Packages,
		log:       logger,
	}
}

func (p *paymentUC) Packages() []model.CreditPackage { return p.packages }

func (p *paymentUC) findPackage(key string) (model.CreditPackage, bool) {
	for _, pkg := range p.packages {
		if pkg.Key == key {
			return pkg, true
		}
	}
	return model.CreditPackage{}, false
}

func (p *paymentUC) CreateInvoice(ctx context.Context, tgID int64, packageKey string) (*Invoice, error) {
	defer logging.TraceDuration(p.log, "PaymentUC.CreateInvoice")()

	pkg, ok := p.findPackage(packageKey)
	if !ok {
		return nil, domain.ErrInvalidArgument
	}

	charge, err := p.gateway.CreateCharge(ctx, pkg.PriceRUB, tgID, pkg.Credits, pkg.Name)
	if err != nil {
		return nil, err
	}

	payment := &model.Payment{
		ID:         uuid.NewString(),
		ProviderID: charge.ProviderID,
		UserID:     tgID,
		AmountRUB:  pkg.PriceRUB,
		Credits:    pkg.Credits,
		Status:     model.PaymentStatusPending,
		CreatedAt:  time.Now(),
	}
	if err := p.payments.Save(ctx, repository.NoTX, payment); err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentStatusPending))

	p.log.Info().
		Int64("tg_id", tgID).
		Str("payment_id", payment.ID).
		Str("package", pkg.Key).
		Int64("amount_rub", pkg.PriceRUB).
		Msg("invoice created")
	return &Invoice{Payment: payment, RedirectURL: charge.RedirectURL}, nil
}

func (p *paymentUC) CheckPending(ctx context.Context, tgID int64) (*model.Payment, error) {
	defer logging.TraceDuration(p.log, "PaymentUC.CheckPending")()

	payment, err := p.payments.FindLastPending(ctx, repository.NoTX, tgID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	status, err := p.gateway.CheckStatus(ctx, payment.ProviderID)
	if err != nil {
		return nil, err
	}

	switch status {
	case model.PaymentStatusPending:
		return payment, domain.ErrPaymentPending

	case model.PaymentStatusFailed:
		payment.Status = model.PaymentStatusFailed
		if err := p.payments.Save(ctx, repository.NoTX, payment); err != nil {
			return nil, err
		}
		metrics.IncPayment(string(model.PaymentStatusFailed))
		return payment, nil

	case model.PaymentStatusSucceeded:
		err := p.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			// Re-read under the tx so a concurrent check cannot double-credit.
			fresh, err := p.payments.FindByProviderID(ctx, tx, payment.ProviderID)
			if err != nil {
				return err
			}
			if fresh.Status != model.PaymentStatusPending {
				payment = fresh
				return nil
			}
			now := time.Now()
			fresh.Status = model.PaymentStatusSucceeded
			fresh.PaidAt = &now
			if err := p.payments.Save(ctx, tx, fresh); err != nil {
				return err
			}
			if err := p.users.AddBalance(ctx, tx, fresh.UserID, fresh.Credits); err != nil {
				return err
			}
			if err := p.referrals.Commission(ctx, tx, fresh); err != nil {
				return err
			}
			payment = fresh
			metrics.IncPayment(string(model.PaymentStatusSucceeded))
			metrics.AddRevenue(fresh.AmountRUB)
			return nil
		})
		if err != nil {
			return nil, err
		}
		p.log.Info().
			Int64("tg_id", tgID).
			Str("payment_id", payment.ID).
			Int("credits", payment.Credits).
			Msg("payment finalized")
		return payment, nil

	default:
		return nil, domain.ErrInvalidArgument
	}
}
