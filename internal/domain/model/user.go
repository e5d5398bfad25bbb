package model

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/severand/InteriorBot/internal/domain"
)

// User is a bot user identified by their Telegram id. Balance counts the
// generations the user may still run; the referral fields track the built-in
// invite program (codes, invite counters and the rouble-denominated referral
// balance earned as commission from invited users' payments).
type User struct {
	ID              int64 // Telegram id, the natural key
	Username        string
	Balance         int
	ReferralCode    string
	ReferredBy      int64 // 0 when the user was not invited
	ReferralsCount  int
	ReferralBalance int64 // roubles earned from commissions
	RegisteredAt    time.Time
	LastActiveAt    time.Time
}

// NewUser creates a user with a fresh referral code and the given welcome
// bonus already on balance.
func NewUser(tgID int64, username string, welcomeBonus int) (*User, error) {
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	u := &User{
		ID:           tgID,
		Username:     username,
		Balance:      welcomeBonus,
		ReferralCode: newReferralCode(),
		RegisteredAt: time.Now(),
		LastActiveAt: time.Now(),
	}
	return u, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == 0 }
func (u *User) Touch()       { u.LastActiveAt = time.Now() }

// newReferralCode returns an 11-char URL-safe token, short enough for a
// Telegram deep-link payload.
func newReferralCode() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
