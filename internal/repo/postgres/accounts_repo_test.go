package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/geocoder89/contentgate/internal/db"
	"github.com/geocoder89/contentgate/internal/domain/account"
	"github.com/geocoder89/contentgate/internal/domain/waitlist"
	"github.com/geocoder89/contentgate/internal/repo/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping postgres integration test")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.EnsureSchema(ctx, pool))
	return pool
}

func TestAccountsRepo_Lifecycle(t *testing.T) {
	pool := setupPool(t)
	repo := postgres.NewAccountsRepo(pool, nil)
	ctx := context.Background()
	userID := "test-" + uuid.NewString()

	_, err := repo.FindAccount(ctx, userID)
	require.ErrorIs(t, err, account.ErrNotFound)

	created, err := repo.CreateAccount(ctx, account.New(userID, ""))
	require.NoError(t, err)
	assert.Equal(t, account.TierFree, created.Tier)
	assert.Equal(t, account.DefaultCredits, created.Credits)
	assert.Empty(t, created.Email)

	_, err = repo.CreateAccount(ctx, account.New(userID, "dup@example.com"))
	require.ErrorIs(t, err, account.ErrAlreadyExists)

	updated, err := repo.ConsumeCredit(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, account.DefaultCredits-1, updated.Credits)
	assert.True(t, !updated.UpdatedAt.Before(created.UpdatedAt))

	_, err = pool.Exec(ctx, `UPDATE profiles SET credits = 0 WHERE user_id = $1`, userID)
	require.NoError(t, err)

	_, err = repo.ConsumeCredit(ctx, userID)
	require.ErrorIs(t, err, account.ErrNoCredits)

	got, err := repo.FindAccount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Credits)

	_, err = repo.ConsumeCredit(ctx, "missing-"+uuid.NewString())
	require.ErrorIs(t, err, account.ErrNotFound)
}

func TestAccountsRepo_PaidTierGoesNegative(t *testing.T) {
	pool := setupPool(t)
	repo := postgres.NewAccountsRepo(pool, nil)
	ctx := context.Background()
	userID := "test-" + uuid.NewString()

	a := account.New(userID, "pro@example.com")
	a.Tier = "pro"
	a.Credits = 0
	_, err := repo.CreateAccount(ctx, a)
	require.NoError(t, err)

	updated, err := repo.ConsumeCredit(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, -1, updated.Credits)
}

func TestAccountsRepo_ConcurrentLastCredit(t *testing.T) {
	pool := setupPool(t)
	repo := postgres.NewAccountsRepo(pool, nil)
	ctx := context.Background()
	userID := "test-" + uuid.NewString()

	a := account.New(userID, "")
	a.Credits = 1
	_, err := repo.CreateAccount(ctx, a)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ConsumeCredit(ctx, userID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, account.ErrNoCredits)
	}
	assert.Equal(t, 1, ok)
}

func TestWaitlistRepo_DuplicateEmail(t *testing.T) {
	pool := setupPool(t)
	repo := postgres.NewWaitlistRepo(pool, nil)
	ctx := context.Background()
	email := uuid.NewString() + "@example.com"

	require.NoError(t, repo.Join(ctx, waitlist.NewEntry(email, nil)))

	role := "therapist"
	err := repo.Join(ctx, waitlist.NewEntry(email, &role))
	require.ErrorIs(t, err, waitlist.ErrAlreadyJoined)
}
