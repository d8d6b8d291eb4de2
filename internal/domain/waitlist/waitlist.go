package waitlist

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const SourceLanding = "landing"

var ErrAlreadyJoined = errors.New("email already on waitlist")

type Entry struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      *string   `json:"role,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

// JoinRequest accepts both JSON and form-encoded bodies.
type JoinRequest struct {
	Email string `json:"email" form:"email" binding:"omitempty,max=320"`
	Role  string `json:"role" form:"role" binding:"omitempty,max=120"`
}

// Normalize trims both fields and maps an empty role to nil.
func (r JoinRequest) Normalize() (email string, role *string) {
	email = strings.TrimSpace(r.Email)

	if v := strings.TrimSpace(r.Role); v != "" {
		role = &v
	}
	return email, role
}

func NewEntry(email string, role *string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      role,
		Source:    SourceLanding,
		CreatedAt: time.Now().UTC(),
	}
}
