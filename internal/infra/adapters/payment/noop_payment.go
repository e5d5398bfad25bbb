package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway is the testing-mode gateway: every charge reports succeeded on
// the first status check, so the purchase flow can be exercised end to end
// without a shop account.
type NoopGateway struct{}

func NewNoopGateway() *NoopGateway { return &NoopGateway{} }

func (n *NoopGateway) Name() string { return "noop" }

func (n *NoopGateway) CreateCharge(ctx context.Context, amountRUB int64, userID int64, credits int, description string) (adapter.Charge, error) {
	id := uuid.NewString()
	return adapter.Charge{
		ProviderID:  id,
		RedirectURL: fmt.Sprintf("https://payments.invalid/pay/%s", id),
	}, nil
}

func (n *NoopGateway) CheckStatus(ctx context.Context, providerID string) (model.PaymentStatus, error) {
	return model.PaymentStatusSucceeded, nil
}
