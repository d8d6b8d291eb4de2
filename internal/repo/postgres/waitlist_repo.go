package postgres

import (
	"context"

	"github.com/geocoder89/contentgate/internal/domain/waitlist"
	"github.com/geocoder89/contentgate/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WaitlistRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewWaitlistRepo(pool *pgxpool.Pool, prom *observability.Prom) *WaitlistRepo {
	return &WaitlistRepo{pool: pool, prom: prom}
}

func (repo *WaitlistRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (repo *WaitlistRepo) Join(ctx context.Context, e waitlist.Entry) error {
	err := repo.observe("waitlist.insert", func() error {
		_, err := repo.pool.Exec(ctx, `
		INSERT INTO waitlist (id, email, role, source, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.Email, e.Role, e.Source, e.CreatedAt)
		return err
	})

	if IsUniqueViolation(err) {
		return waitlist.ErrAlreadyJoined
	}
	return err
}
