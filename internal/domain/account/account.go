package account

import (
	"errors"
	"time"
)

const (
	TierFree = "free"

	// DefaultCredits is the balance a lazily created account starts with.
	DefaultCredits = 10
)

var (
	ErrNotFound      = errors.New("account not found")
	ErrAlreadyExists = errors.New("account already exists")
	// ErrNoCredits means a free account is at or below zero.
	ErrNoCredits = errors.New("no credits")
)

// Account is one row of the profiles table, keyed by the identity provider's user id.
type Account struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email,omitempty"`
	Tier      string    `json:"tier"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile is the public projection returned by the credits endpoints.
type Profile struct {
	Tier    string `json:"tier"`
	Credits int    `json:"credits"`
}

func New(userID, email string) Account {
	now := time.Now().UTC()
	return Account{
		UserID:    userID,
		Email:     email,
		Tier:      TierFree,
		Credits:   DefaultCredits,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (a Account) IsPaid() bool {
	return a.Tier != TierFree
}

// CanConsume reports whether one credit may be taken. Every tier pays one credit per use,
// but only free accounts are blocked once the balance reaches zero; paid balances may go negative.
func (a Account) CanConsume() bool {
	return a.IsPaid() || a.Credits > 0
}

func (a Account) Profile() Profile {
	return Profile{Tier: a.Tier, Credits: a.Credits}
}
