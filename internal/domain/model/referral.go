package model

import "time"

// ReferralEarning records a commission credited to a referrer when one of
// their invited users completes a payment.
type ReferralEarning struct {
	ID                int64
	ReferrerID        int64
	ReferredID        int64
	PaymentID         string
	AmountRUB         int64 // payment amount the commission was taken from
	CommissionPercent int
	EarnedRUB         int64
	CreatedAt         time.Time
}
