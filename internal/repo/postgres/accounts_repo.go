package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/contentgate/internal/domain/account"
	"github.com/geocoder89/contentgate/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `user_id, COALESCE(email, ''), tier, credits, created_at, updated_at`

type AccountsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAccountsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AccountsRepo {
	return &AccountsRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *AccountsRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanAccount(row pgx.Row, a *account.Account) error {
	return row.Scan(&a.UserID, &a.Email, &a.Tier, &a.Credits, &a.CreatedAt, &a.UpdatedAt)
}

// FindAccount is a read-one-or-none lookup; absence is account.ErrNotFound.
func (repo *AccountsRepo) FindAccount(ctx context.Context, userID string) (account.Account, error) {
	var a account.Account
	found := true

	err := repo.observe("profiles.find", func() error {
		e := scanAccount(repo.pool.QueryRow(ctx,
			`SELECT `+accountColumns+` FROM profiles WHERE user_id = $1`,
			userID,
		), &a)

		if errors.Is(e, pgx.ErrNoRows) {
			found = false
			return nil
		}
		return e
	})

	if err != nil {
		return account.Account{}, err
	}
	if !found {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

// CreateAccount inserts a new profile. The primary key on user_id settles concurrent
// first-time requests: the loser gets account.ErrAlreadyExists.
func (repo *AccountsRepo) CreateAccount(ctx context.Context, a account.Account) (account.Account, error) {
	var out account.Account

	err := repo.observe("profiles.create", func() error {
		return scanAccount(repo.pool.QueryRow(ctx, `
		INSERT INTO profiles (user_id, email, tier, credits, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)
		RETURNING `+accountColumns,
			a.UserID, a.Email, a.Tier, a.Credits, a.CreatedAt, a.UpdatedAt,
		), &out)
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return account.Account{}, account.ErrAlreadyExists
		}
		return account.Account{}, err
	}
	return out, nil
}

// ConsumeCredit decrements by one in a single conditional UPDATE. The WHERE clause mirrors
// account.Account.CanConsume so the check and the write cannot interleave with another request.
func (repo *AccountsRepo) ConsumeCredit(ctx context.Context, userID string) (account.Account, error) {
	var a account.Account
	matched := true

	err := repo.observe("profiles.consume_credit", func() error {
		e := scanAccount(repo.pool.QueryRow(ctx, `
		UPDATE profiles
		SET credits = credits - 1,
		    updated_at = NOW()
		WHERE user_id = $1
		  AND (tier <> $2 OR credits > 0)
		RETURNING `+accountColumns,
			userID, account.TierFree,
		), &a)

		if errors.Is(e, pgx.ErrNoRows) {
			matched = false
			return nil
		}
		return e
	})

	if err != nil {
		return account.Account{}, err
	}
	if matched {
		return a, nil
	}

	// Nothing updated: either the row is gone or the guard rejected it.
	var exists bool
	err = repo.observe("profiles.consume_credit.exists", func() error {
		return repo.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM profiles WHERE user_id = $1)`,
			userID,
		).Scan(&exists)
	})
	if err != nil {
		return account.Account{}, err
	}

	if !exists {
		return account.Account{}, account.ErrNotFound
	}
	return account.Account{}, account.ErrNoCredits
}
