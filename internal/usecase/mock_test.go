//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/severand/InteriorBot/internal/domain"
	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
	"github.com/severand/InteriorBot/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock TransactionManager ----

// MockTxManager runs the function directly; the in-memory repos ignore tx.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, opt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, opt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, opt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu    sync.RWMutex
	store map[int64]*model.User

	SaveFunc             func(ctx context.Context, tx repository.Tx, u *model.User) error
	DecrementBalanceFunc func(ctx context.Context, tx repository.Tx, tgID int64) error
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{store: make(map[int64]*model.User)}
}

// Seed puts a user straight into the in-memory store.
func (m *MockUserRepo) Seed(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
}

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) FindByReferralCode(ctx context.Context, tx repository.Tx, code string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.ReferralCode == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) GetBalance(ctx context.Context, tx repository.Tx, tgID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[tgID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return u.Balance, nil
}

func (m *MockUserRepo) AddBalance(ctx context.Context, tx repository.Tx, tgID int64, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Balance += delta
	return nil
}

func (m *MockUserRepo) DecrementBalance(ctx context.Context, tx repository.Tx, tgID int64) error {
	if m.DecrementBalanceFunc != nil {
		return m.DecrementBalanceFunc(ctx, tx, tgID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[tgID]
	if !ok || u.Balance <= 0 {
		return domain.ErrNoBalance
	}
	u.Balance--
	return nil
}

func (m *MockUserRepo) SetBalance(ctx context.Context, tx repository.Tx, tgID int64, balance int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Balance = balance
	return nil
}

func (m *MockUserRepo) AddReferralBalance(ctx context.Context, tx repository.Tx, tgID int64, amountRUB int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	u.ReferralBalance += amountRUB
	return nil
}

func (m *MockUserRepo) IncrementReferrals(ctx context.Context, tx repository.Tx, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	u.ReferralsCount++
	return nil
}

func (m *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

func (m *MockUserRepo) CountInactiveUsers(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cnt := 0
	for _, u := range m.store {
		if u.LastActiveAt.Before(since) {
			cnt++
		}
	}
	return cnt, nil
}

func (m *MockUserRepo) SumBalances(ctx context.Context, tx repository.Tx) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, u := range m.store {
		sum += int64(u.Balance)
	}
	return sum, nil
}

// ---- Mock PaymentRepository ----

type MockPaymentRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Payment

	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Payment) error
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByProviderID(ctx context.Context, tx repository.Tx, providerID string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.ProviderID == providerID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) FindLastPending(ctx context.Context, tx repository.Tx, userID int64) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var last *model.Payment
	for _, p := range m.store {
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

func (m *MockPaymentRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	var since time.Time
	switch period {
	case "week":
		since = time.Now().AddDate(0, 0, -7)
	case "month":
		since = time.Now().AddDate(0, -1, 0)
	case "year":
		since = time.Now().AddDate(-1, 0, 0)
	default:
		return 0, domain.ErrInvalidArgument
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, p := range m.store {
		if p.Status == model.PaymentStatusSucceeded && p.PaidAt != nil && p.PaidAt.After(since) {
			sum += p.AmountRUB
		}
	}
	return sum, nil
}

func (m *MockPaymentRepo) CountByStatus(ctx context.Context, tx repository.Tx, status model.PaymentStatus) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cnt := 0
	for _, p := range m.store {
		if p.Status == status {
			cnt++
		}
	}
	return cnt, nil
}

// ---- Mock ReferralRepository ----

type MockReferralRepo struct {
	mu    sync.RWMutex
	Saved []*model.ReferralEarning
}

var _ repository.ReferralRepository = (*MockReferralRepo)(nil)

func NewMockReferralRepo() *MockReferralRepo { return &MockReferralRepo{} }

func (m *MockReferralRepo) SaveEarning(ctx context.Context, tx repository.Tx, e *model.ReferralEarning) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	cp.ID = int64(len(m.Saved) + 1)
	cp.CreatedAt = time.Now()
	m.Saved = append(m.Saved, &cp)
	return nil
}

func (m *MockReferralRepo) ListEarnings(ctx context.Context, tx repository.Tx, referrerID int64) ([]*model.ReferralEarning, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.ReferralEarning
	for _, e := range m.Saved {
		if e.ReferrerID == referrerID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockReferralRepo) SumEarnings(ctx context.Context, tx repository.Tx, referrerID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, e := range m.Saved {
		if e.ReferrerID == referrerID {
			sum += e.EarnedRUB
		}
	}
	return sum, nil
}

// ---- Mock SessionRepository ----

type MockSessionRepo struct {
	mu    sync.RWMutex
	store map[int64]*model.Session

	SetFunc func(ctx context.Context, tgID int64, s *model.Session) error
}

var _ repository.SessionRepository = (*MockSessionRepo)(nil)

func NewMockSessionRepo() *MockSessionRepo {
	return &MockSessionRepo{store: make(map[int64]*model.Session)}
}

func (m *MockSessionRepo) Get(ctx context.Context, tgID int64) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[tgID]
	if !ok {
		return model.NewSession(), nil
	}
	cp := *s
	return &cp, nil
}

func (m *MockSessionRepo) Set(ctx context.Context, tgID int64, s *model.Session) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, tgID, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[tgID] = &cp
	return nil
}

func (m *MockSessionRepo) Clear(ctx context.Context, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, tgID)
	return nil
}

// ---- Mock ImageGenerator ----

type MockGenerator struct {
	mu       sync.Mutex
	Requests []model.GenerationRequest

	GenerateFunc func(ctx context.Context, req model.GenerationRequest) (string, error)
}

var _ adapter.ImageGenerator = (*MockGenerator)(nil)

func (m *MockGenerator) Name() string { return "mock" }

func (m *MockGenerator) Generate(ctx context.Context, req model.GenerationRequest) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "https://example.com/result.png", nil
}

func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// ---- Mock PhotoResolver ----

type MockPhotoResolver struct {
	FileURLFunc func(ctx context.Context, fileID string) (string, error)
}

func (m *MockPhotoResolver) FileURL(ctx context.Context, fileID string) (string, error) {
	if m.FileURLFunc != nil {
		return m.FileURLFunc(ctx, fileID)
	}
	return "https://files.example.com/" + fileID, nil
}

// ---- Mock PaymentGateway ----

type MockGateway struct {
	mu      sync.Mutex
	Charges []adapter.Charge
	// Statuses maps provider id to the status CheckStatus reports.
	Statuses map[string]model.PaymentStatus

	CreateChargeFunc func(ctx context.Context, amountRUB int64, userID int64, credits int, description string) (adapter.Charge, error)
	CheckStatusFunc  func(ctx context.Context, providerID string) (model.PaymentStatus, error)
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func NewMockGateway() *MockGateway {
	return &MockGateway{Statuses: make(map[string]model.PaymentStatus)}
}

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) CreateCharge(ctx context.Context, amountRUB int64, userID int64, credits int, description string) (adapter.Charge, error) {
	if m.CreateChargeFunc != nil {
		return m.CreateChargeFunc(ctx, amountRUB, userID, credits, description)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := adapter.Charge{
		ProviderID:  "prov-" + description,
		RedirectURL: "https://pay.example.com/" + description,
	}
	m.Charges = append(m.Charges, ch)
	m.Statuses[ch.ProviderID] = model.PaymentStatusPending
	return ch, nil
}

func (m *MockGateway) CheckStatus(ctx context.Context, providerID string) (model.PaymentStatus, error) {
	if m.CheckStatusFunc != nil {
		return m.CheckStatusFunc(ctx, providerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.Statuses[providerID]
	if !ok {
		return "", domain.ErrPaymentNotFound
	}
	return st, nil
}
