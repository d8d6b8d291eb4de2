package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/geocoder89/contentgate/internal/domain/waitlist"
)

type WaitlistRepo struct {
	mu      sync.Mutex
	entries []waitlist.Entry
	byEmail map[string]struct{}
}

func NewWaitlistRepo() *WaitlistRepo {
	return &WaitlistRepo{byEmail: make(map[string]struct{})}
}

func (r *WaitlistRepo) Join(_ context.Context, e waitlist.Entry) error {
	key := strings.ToLower(e.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[key]; ok {
		return waitlist.ErrAlreadyJoined
	}
	r.byEmail[key] = struct{}{}
	r.entries = append(r.entries, e)
	return nil
}

func (r *WaitlistRepo) Entries() []waitlist.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]waitlist.Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
