package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// BotStats is the aggregate snapshot served to /stats and the admin API.
type BotStats struct {
	TotalUsers         int   `json:"total_users"`
	InactiveUsers      int   `json:"inactive_users"` // no activity for 30 days
	RevenueWeekRUB     int64 `json:"revenue_week_rub"`
	RevenueMonthRUB    int64 `json:"revenue_month_rub"`
	RevenueYearRUB     int64 `json:"revenue_year_rub"`
	CreditsOutstanding int64 `json:"credits_outstanding"`
	PaymentsSucceeded  int   `json:"payments_succeeded"`
	PaymentsPending    int   `json:"payments_pending"`
}

type StatsUseCase interface {
	Collect(ctx context.Context) (*BotStats, error)
}

type statsUC struct {
	users    repository.UserRepository
	payments repository.PaymentRepository
	log      *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, payments repository.PaymentRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, payments: payments, log: logger}
}

func (s *statsUC) Collect(ctx context.Context) (*BotStats, error) {
	out := &BotStats{}
	var err error

	if out.TotalUsers, err = s.users.CountUsers(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	since := time.Now().AddDate(0, 0, -30)
	if out.InactiveUsers, err = s.users.CountInactiveUsers(ctx, repository.NoTX, since); err != nil {
		return nil, err
	}
	if out.CreditsOutstanding, err = s.users.SumBalances(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	if out.RevenueWeekRUB, err = s.payments.SumByPeriod(ctx, repository.NoTX, "week"); err != nil {
		return nil, err
	}
	if out.RevenueMonthRUB, err = s.payments.SumByPeriod(ctx, repository.NoTX, "month"); err != nil {
		return nil, err
	}
	if out.RevenueYearRUB, err = s.payments.SumByPeriod(ctx, repository.NoTX, "year"); err != nil {
		return nil, err
	}
	if out.PaymentsSucceeded, err = s.payments.CountByStatus(ctx, repository.NoTX, model.PaymentStatusSucceeded); err != nil {
		return nil, err
	}
	if out.PaymentsPending, err = s.payments.CountByStatus(ctx, repository.NoTX, model.PaymentStatusPending); err != nil {
		return nil, err
	}
	return out, nil
}
