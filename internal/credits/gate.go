// Package credits decides, per verified user, whether a metered request may proceed and
// takes one credit when it does.
package credits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/contentgate/internal/domain/account"
	"github.com/geocoder89/contentgate/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrNoCredits is a policy block, not a failure.
	ErrNoCredits = account.ErrNoCredits

	// ErrLedger wraps every store failure, including a row that vanished mid-request.
	ErrLedger = errors.New("ledger error")
)

// Ledger is the account store. ConsumeCredit must apply the decrement and the
// CanConsume guard as one atomic operation, returning account.ErrNoCredits when the
// guard rejects and account.ErrNotFound when the row does not exist.
type Ledger interface {
	FindAccount(ctx context.Context, userID string) (account.Account, error)
	CreateAccount(ctx context.Context, a account.Account) (account.Account, error)
	ConsumeCredit(ctx context.Context, userID string) (account.Account, error)
}

type Gate struct {
	ledger Ledger
	prom   *observability.Prom
	tracer trace.Tracer
}

func NewGate(ledger Ledger, prom *observability.Prom) *Gate {
	return &Gate{
		ledger: ledger,
		prom:   prom,
		tracer: otel.Tracer("github.com/geocoder89/contentgate/internal/credits"),
	}
}

// Consume takes one credit from userID's account, creating the account on first use.
func (g *Gate) Consume(ctx context.Context, userID, email string) (account.Profile, error) {
	ctx, span := g.tracer.Start(ctx, "credits.consume", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()

	profile, err := g.consume(ctx, userID, email)

	result := resultLabel(err)
	g.prom.ObserveConsume(result)
	span.SetAttributes(attribute.String("credits.result", result))

	switch {
	case err == nil:
		span.SetAttributes(
			attribute.String("account.tier", profile.Tier),
			attribute.Int("account.credits", profile.Credits),
		)
	case errors.Is(err, ErrNoCredits):
		slog.Default().InfoContext(ctx, "credits_blocked", "user_id", userID)
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger error")
		slog.Default().ErrorContext(ctx, "credits_consume_failed", "user_id", userID, "err", err)
	}

	return profile, err
}

func (g *Gate) consume(ctx context.Context, userID, email string) (account.Profile, error) {
	acct, err := g.ensureAccount(ctx, userID, email)
	if err != nil {
		return account.Profile{}, err
	}

	if !acct.CanConsume() {
		return account.Profile{}, ErrNoCredits
	}

	updated, err := g.ledger.ConsumeCredit(ctx, userID)
	if err != nil {
		if errors.Is(err, account.ErrNoCredits) {
			// another request took the last credit between our read and the update
			return account.Profile{}, ErrNoCredits
		}
		return account.Profile{}, fmt.Errorf("%w: consume credit: %w", ErrLedger, err)
	}

	return updated.Profile(), nil
}

// Balance returns the caller's profile without consuming, creating it on first use.
func (g *Gate) Balance(ctx context.Context, userID, email string) (account.Profile, error) {
	ctx, span := g.tracer.Start(ctx, "credits.balance")
	defer span.End()

	acct, err := g.ensureAccount(ctx, userID, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger error")
		return account.Profile{}, err
	}
	return acct.Profile(), nil
}

// ensureAccount reads the account, lazily creating it with the free defaults. Lookup and
// insert are not atomic; a uniqueness conflict means a concurrent request created the row
// first, so it is re-read.
func (g *Gate) ensureAccount(ctx context.Context, userID, email string) (account.Account, error) {
	acct, err := g.ledger.FindAccount(ctx, userID)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, account.ErrNotFound) {
		return account.Account{}, fmt.Errorf("%w: find account: %w", ErrLedger, err)
	}

	acct, err = g.ledger.CreateAccount(ctx, account.New(userID, email))
	if err == nil {
		slog.Default().InfoContext(ctx, "account_created", "user_id", userID)
		return acct, nil
	}
	if !errors.Is(err, account.ErrAlreadyExists) {
		return account.Account{}, fmt.Errorf("%w: create account: %w", ErrLedger, err)
	}

	acct, err = g.ledger.FindAccount(ctx, userID)
	if err != nil {
		return account.Account{}, fmt.Errorf("%w: re-read account: %w", ErrLedger, err)
	}
	return acct, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoCredits):
		return "no_credits"
	default:
		return "ledger_error"
	}
}
