//go:build !integration

package application_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/severand/InteriorBot/internal/application"
	"github.com/severand/InteriorBot/internal/config"
	"github.com/severand/InteriorBot/internal/domain"
	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
	"github.com/severand/InteriorBot/internal/domain/ports/repository"
	"github.com/severand/InteriorBot/internal/usecase"
)

// In-memory collaborators. The scenarios below drive the real usecases end to
// end through the facade, with only the storage and external services faked.

type memUsers struct{ m map[int64]*model.User }

var _ repository.UserRepository = (*memUsers)(nil)

func newMemUsers() *memUsers { return &memUsers{m: make(map[int64]*model.User)} }

func (r *memUsers) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	cp := *u
	r.m[u.ID] = &cp
	return nil
}

func (r *memUsers) FindByID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	u, ok := r.m[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) FindByReferralCode(ctx context.Context, tx repository.Tx, code string) (*model.User, error) {
	for _, u := range r.m {
		if u.ReferralCode == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUsers) GetBalance(ctx context.Context, tx repository.Tx, tgID int64) (int, error) {
	u, ok := r.m[tgID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return u.Balance, nil
}

func (r *memUsers) AddBalance(ctx context.Context, tx repository.Tx, tgID int64, delta int) error {
	u, ok := r.m[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Balance += delta
	return nil
}

func (r *memUsers) DecrementBalance(ctx context.Context, tx repository.Tx, tgID int64) error {
	u, ok := r.m[tgID]
	if !ok || u.Balance <= 0 {
		return domain.ErrNoBalance
	}
	u.Balance--
	return nil
}

func (r *memUsers) SetBalance(ctx context.Context, tx repository.Tx, tgID int64, balance int) error {
	u, ok := r.m[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Balance = balance
	return nil
}

func (r *memUsers) AddReferralBalance(ctx context.Context, tx repository.Tx, tgID int64, amountRUB int64) error {
	u, ok := r.m[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	u.ReferralBalance += amountRUB
	return nil
}

func (r *memUsers) IncrementReferrals(ctx context.Context, tx repository.Tx, tgID int64) error {
	u, ok := r.m[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	u.ReferralsCount++
	return nil
}

func (r *memUsers) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	return len(r.m), nil
}

func (r *memUsers) CountInactiveUsers(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	cnt := 0
	for _, u := range r.m {
		if u.LastActiveAt.Before(since) {
			cnt++
		}
	}
	return cnt, nil
}

func (r *memUsers) SumBalances(ctx context.Context, tx repository.Tx) (int64, error) {
	var sum int64
	for _, u := range r.m {
		sum += int64(u.Balance)
	}
	return sum, nil
}

type memPayments struct{ m map[string]*model.Payment }

var _ repository.PaymentRepository = (*memPayments)(nil)

func newMemPayments() *memPayments { return &memPayments{m: make(map[string]*model.Payment)} }

func (r *memPayments) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	cp := *p
	r.m[p.ID] = &cp
	return nil
}

func (r *memPayments) FindByProviderID(ctx context.Context, tx repository.Tx, providerID string) (*model.Payment, error) {
	for _, p := range r.m {
		if p.ProviderID == providerID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memPayments) FindLastPending(ctx context.Context, tx repository.Tx, userID int64) (*model.Payment, error) {
	var last *model.Payment
	for _, p := range r.m {
		if p.UserID != userID || p.Status != model.PaymentStatusPending {
			continue
		}
		if last == nil || p.CreatedAt.After(last.CreatedAt) {
			last = p
		}
	}
	if last == nil {
		return nil, domain.ErrNotFound
	}
	cp := *last
	return &cp, nil
}

func (r *memPayments) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	var sum int64
	for _, p := range r.m {
		if p.Status == model.PaymentStatusSucceeded {
			sum += p.AmountRUB
		}
	}
	return sum, nil
}

func (r *memPayments) CountByStatus(ctx context.Context, tx repository.Tx, status model.PaymentStatus) (int, error) {
	cnt := 0
	for _, p := range r.m {
		if p.Status == status {
			cnt++
		}
	}
	return cnt, nil
}

type memReferrals struct{ saved []*model.ReferralEarning }

var _ repository.ReferralRepository = (*memReferrals)(nil)

func (r *memReferrals) SaveEarning(ctx context.Context, tx repository.Tx, e *model.ReferralEarning) error {
	cp := *e
	r.saved = append(r.saved, &cp)
	return nil
}

func (r *memReferrals) ListEarnings(ctx context.Context, tx repository.Tx, referrerID int64) ([]*model.ReferralEarning, error) {
	var out []*model.ReferralEarning
	for _, e := range r.saved {
		if e.ReferrerID == referrerID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memReferrals) SumEarnings(ctx context.Context, tx repository.Tx, referrerID int64) (int64, error) {
	var sum int64
	for _, e := range r.saved {
		if e.ReferrerID == referrerID {
			sum += e.EarnedRUB
		}
	}
	return sum, nil
}

type memSessions struct{ m map[int64]*model.Session }

var _ repository.SessionRepository = (*memSessions)(nil)

func newMemSessions() *memSessions { return &memSessions{m: make(map[int64]*model.Session)} }

func (r *memSessions) Get(ctx context.Context, tgID int64) (*model.Session, error) {
	s, ok := r.m[tgID]
	if !ok {
		return model.NewSession(), nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSessions) Set(ctx context.Context, tgID int64, s *model.Session) error {
	cp := *s
	r.m[tgID] = &cp
	return nil
}

func (r *memSessions) Clear(ctx context.Context, tgID int64) error {
	delete(r.m, tgID)
	return nil
}

type memTxm struct{}

var _ repository.TransactionManager = (*memTxm)(nil)

func (memTxm) WithTx(ctx context.Context, opt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

type stubGenerator struct{ calls int }

var _ adapter.ImageGenerator = (*stubGenerator)(nil)

func (g *stubGenerator) Name() string { return "stub" }

func (g *stubGenerator) Generate(ctx context.Context, req model.GenerationRequest) (string, error) {
	g.calls++
	return "https://renders.example.com/" + req.ID + ".png", nil
}

type stubResolver struct{}

func (stubResolver) FileURL(ctx context.Context, fileID string) (string, error) {
	return "https://files.example.com/" + fileID, nil
}

type stubGateway struct {
	status model.PaymentStatus
}

var _ adapter.PaymentGateway = (*stubGateway)(nil)

func (g *stubGateway) Name() string { return "stub" }

func (g *stubGateway) CreateCharge(ctx context.Context, amountRUB int64, userID int64, credits int, description string) (adapter.Charge, error) {
	return adapter.Charge{ProviderID: "prov-1", RedirectURL: "https://pay.example.com/prov-1"}, nil
}

func (g *stubGateway) CheckStatus(ctx context.Context, providerID string) (model.PaymentStatus, error) {
	if providerID != "prov-1" {
		return "", errors.New("unknown charge")
	}
	return g.status, nil
}

type facadeFixture struct {
	facade  *application.BotFacade
	users   *memUsers
	gen     *stubGenerator
	gateway *stubGateway
}

func newFacadeFixture() *facadeFixture {
	logger := zerolog.New(io.Discard)
	cfg := &config.Config{}
	cfg.Bot.Username = "InteriorDesignBot"
	cfg.Bot.AdminIDs = []int64{999}
	cfg.Referral = config.ReferralConfig{
		WelcomeBonus: 3, InviterBonus: 2, InvitedBonus: 2,
		CommissionPercent: 20, ExchangeRateRUB: 29,
	}
	cfg.Payment.ChargePolicy = config.ChargeAttempt
	cfg.Payment.Packages = []model.CreditPackage{
		{Key: "small", Credits: 10, PriceRUB: 290, Name: "10 генераций"},
	}

	users := newMemUsers()
	payments := newMemPayments()
	earnings := &memReferrals{}
	sessions := newMemSessions()
	txm := memTxm{}
	gen := &stubGenerator{}
	gateway := &stubGateway{status: model.PaymentStatusPending}

	creditUC := usecase.NewCreditUseCase(users, &logger)
	referralUC := usecase.NewReferralUseCase(users, earnings, txm, cfg.Referral, cfg.Bot.Username, &logger)
	userUC := usecase.NewUserUseCase(users, referralUC, txm, cfg.Referral, &logger)
	creationUC := usecase.NewCreationUseCase(sessions, creditUC, gen, stubResolver{}, cfg.Payment.ChargePolicy, &logger)
	paymentUC := usecase.NewPaymentUseCase(payments, users, referralUC, gateway, txm, cfg.Payment, &logger)
	statsUC := usecase.NewStatsUseCase(users, payments, &logger)

	return &facadeFixture{
		facade:  application.NewBotFacade(userUC, creationUC, creditUC, paymentUC, referralUC, statsUC, cfg),
		users:   users,
		gen:     gen,
		gateway: gateway,
	}
}

// A fresh user goes from /start through photo, room and style to a rendered
// design, spending one of the welcome-bonus credits.
func TestFacade_FirstDesignScenario(t *testing.T) {
	ctx := context.Background()
	f := newFacadeFixture()
	const tgID int64 = 100

	user, created, err := f.facade.HandleStart(ctx, tgID, "newbie", "")
	if err != nil {
		t.Fatalf("HandleStart: %v", err)
	}
	if !created || user.Balance != 3 {
		t.Fatalf("expected fresh user with 3 credits, got created=%v balance=%d", created, user.Balance)
	}

	if _, err := f.facade.CreationUC.Start(ctx, tgID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := f.facade.CreationUC.HandlePhoto(ctx, tgID, false, "file-1", ""); err != nil {
		t.Fatalf("HandlePhoto: %v", err)
	}
	if _, err := f.facade.CreationUC.ChooseRoom(ctx, tgID, false, "bedroom"); err != nil {
		t.Fatalf("ChooseRoom: %v", err)
	}
	out, err := f.facade.CreationUC.ChooseStyle(ctx, tgID, false, "japandi")
	if err != nil {
		t.Fatalf("ChooseStyle: %v", err)
	}
	if out.Screen != usecase.ScreenResult || out.ResultURL == "" {
		t.Fatalf("expected a rendered result, got screen=%v url=%q", out.Screen, out.ResultURL)
	}

	if balance, _ := f.facade.CreditUC.Balance(ctx, tgID); balance != 2 {
		t.Errorf("expected balance 2 after the first design, got %d", balance)
	}
	if f.gen.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", f.gen.calls)
	}
}

// A user out of credits is blocked, buys a package, and the purchased credits
// unlock the flow again.
func TestFacade_PurchaseUnblocksScenario(t *testing.T) {
	ctx := context.Background()
	f := newFacadeFixture()
	const tgID int64 = 100

	if _, _, err := f.facade.HandleStart(ctx, tgID, "buyer", ""); err != nil {
		t.Fatalf("HandleStart: %v", err)
	}
	if err := f.facade.CreditUC.Set(ctx, tgID, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := f.facade.CreationUC.Start(ctx, tgID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	out, err := f.facade.CreationUC.HandlePhoto(ctx, tgID, false, "file-1", "")
	if err != nil {
		t.Fatalf("HandlePhoto: %v", err)
	}
	if out.Screen != usecase.ScreenNoBalance {
		t.Fatalf("expected the no-balance screen, got %v", out.Screen)
	}

	inv, err := f.facade.PaymentUC.CreateInvoice(ctx, tgID, "small")
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if inv.RedirectURL == "" {
		t.Fatal("expected a pay link")
	}
	f.gateway.status = model.PaymentStatusSucceeded
	if _, err := f.facade.PaymentUC.CheckPending(ctx, tgID); err != nil {
		t.Fatalf("CheckPending: %v", err)
	}
	if balance, _ := f.facade.CreditUC.Balance(ctx, tgID); balance != 10 {
		t.Fatalf("expected 10 purchased credits, got %d", balance)
	}

	if _, err := f.facade.CreationUC.Start(ctx, tgID); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if _, err := f.facade.CreationUC.HandlePhoto(ctx, tgID, false, "file-2", ""); err != nil {
		t.Fatalf("HandlePhoto after purchase: %v", err)
	}
	if _, err := f.facade.CreationUC.ChooseRoom(ctx, tgID, false, "kitchen"); err != nil {
		t.Fatalf("ChooseRoom: %v", err)
	}
	out, err = f.facade.CreationUC.ChooseStyle(ctx, tgID, false, "modern")
	if err != nil {
		t.Fatalf("ChooseStyle: %v", err)
	}
	if out.Screen != usecase.ScreenResult {
		t.Fatalf("expected a rendered result after the purchase, got %v", out.Screen)
	}
	if balance, _ := f.facade.CreditUC.Balance(ctx, tgID); balance != 9 {
		t.Errorf("expected balance 9, got %d", balance)
	}
}
