package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment is one purchase attempt of a credit package.
type Payment struct {
	ID         string // our id (uuid)
	ProviderID string // gateway payment id
	UserID     int64  // Telegram id
	AmountRUB  int64
	Credits    int
	Status     PaymentStatus
	CreatedAt  time.Time
	PaidAt     *time.Time
}

// CreditPackage is a purchasable bundle of generations.
type CreditPackage struct {
	Key      string `yaml:"key"`
	Credits  int    `yaml:"credits"`
	PriceRUB int64  `yaml:"price_rub"`
	Name     string `yaml:"name"`
}
