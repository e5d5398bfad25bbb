package adapter

import (
	"context"

	"github.com/severand/InteriorBot/internal/domain/model"
)

// Charge is the gateway-side view of a created payment.
type Charge struct {
	ProviderID  string
	RedirectURL string
}

// PaymentGateway is the hex port for payment providers.
type PaymentGateway interface {
	Name() string

	// CreateCharge registers a payment intent with the provider and returns
	// the provider id plus the URL the user completes the payment at.
	CreateCharge(ctx context.Context, amountRUB int64, userID int64, credits int, description string) (Charge, error)
	// CheckStatus reports the provider-side status of a previously created charge.
	CheckStatus(ctx context.Context, providerID string) (model.PaymentStatus, error)
}
