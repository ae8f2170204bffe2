package credential

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/jwt"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/logger"
)

// SessionVerifier validates session tokens.
type SessionVerifier interface {
	Parse(token string) (jwt.SessionClaims, error)
}

// Resolver turns a raw credential into a verified Identity.
type Resolver struct {
	store        Store
	sessions     SessionVerifier
	keyPrefix    string
	touchTimeout time.Duration
	now          func() time.Time
	log          *slog.Logger
	touches      sync.WaitGroup
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSessionVerifier enables session token credentials.
func WithSessionVerifier(v SessionVerifier) ResolverOption {
	return func(r *Resolver) {
		r.sessions = v
	}
}

// WithKeyPrefix sets the prefix that identifies API keys.
func WithKeyPrefix(prefix string) ResolverOption {
	return func(r *Resolver) {
		if prefix != "" {
			r.keyPrefix = prefix
		}
	}
}

// WithTouchTimeout bounds the background last-used update.
func WithTouchTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.touchTimeout = d
		}
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger for background failures.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// NewResolver creates a resolver backed by store. It panics if store is nil.
func NewResolver(store Store, opts ...ResolverOption) *Resolver {
	if store == nil {
		panic("credential: store cannot be nil")
	}
	r := &Resolver{
		store:        store,
		keyPrefix:    DefaultKeyPrefix,
		touchTimeout: 2 * time.Second,
		now:          time.Now,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("credential"))
	return r
}

// KindOf guesses the kind of raw from its prefix.
func (r *Resolver) KindOf(raw string) Kind {
	if strings.HasPrefix(raw, r.keyPrefix) {
		return KindAPIKey
	}
	return KindSessionToken
}

// Resolve verifies raw and returns the identity of its owner.
//
// Authentication failures are ErrInvalidCredential, ErrExpiredCredential or
// ErrUnverifiedAccount. Store failures are ErrStoreUnavailable; callers must deny.
func (r *Resolver) Resolve(ctx context.Context, raw string, kind Kind) (Identity, error) {
	if raw == "" {
		return Identity{}, ErrInvalidCredential
	}

	switch kind {
	case KindAPIKey:
		return r.resolveAPIKey(ctx, raw)
	case KindSessionToken:
		return r.resolveSession(ctx, raw)
	default:
		return Identity{}, ErrInvalidCredential
	}
}

func (r *Resolver) resolveSession(ctx context.Context, raw string) (Identity, error) {
	if r.sessions == nil {
		return Identity{}, ErrInvalidCredential
	}

	claims, err := r.sessions.Parse(raw)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return Identity{}, ErrExpiredCredential
		}
		return Identity{}, ErrInvalidCredential
	}
	accountID, err := claims.AccountID()
	if err != nil {
		return Identity{}, ErrInvalidCredential
	}

	account, err := r.loadAccount(ctx, accountID)
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		AccountID:    account.ID,
		Role:         account.Role,
		CredentialID: claims.ID,
		Kind:         KindSessionToken,
	}, nil
}

func (r *Resolver) resolveAPIKey(ctx context.Context, raw string) (Identity, error) {
	if !ValidAPIKeyFormat(raw, r.keyPrefix) {
		return Identity{}, ErrInvalidCredential
	}

	key, err := r.store.GetAPIKeyByHash(ctx, HashAPIKey(raw))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Identity{}, ErrInvalidCredential
		}
		return Identity{}, errors.Join(ErrStoreUnavailable, err)
	}
	if !key.Active {
		return Identity{}, ErrInvalidCredential
	}
	if key.Expired(r.now()) {
		return Identity{}, ErrExpiredCredential
	}

	account, err := r.loadAccount(ctx, key.AccountID)
	if err != nil {
		return Identity{}, err
	}

	r.touch(ctx, key.ID)

	return Identity{
		AccountID:    account.ID,
		Role:         account.Role,
		CredentialID: key.ID.String(),
		Kind:         KindAPIKey,
	}, nil
}

func (r *Resolver) loadAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	account, err := r.store.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, ErrInvalidCredential
		}
		return Account{}, errors.Join(ErrStoreUnavailable, err)
	}
	if !account.Verified && !account.Role.Elevated() {
		return Account{}, ErrUnverifiedAccount
	}
	return account, nil
}

// touch records the last-used time without blocking the caller.
func (r *Resolver) touch(ctx context.Context, keyID uuid.UUID) {
	at := r.now()
	r.touches.Add(1)
	go func() {
		defer r.touches.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.touchTimeout)
		defer cancel()
		if err := r.store.TouchAPIKey(ctx, keyID, at); err != nil {
			r.log.WarnContext(ctx, "failed to update api key last used time",
				logger.CredentialID(keyID),
				logger.Error(err),
			)
		}
	}()
}

// Close waits for pending last-used updates or until ctx is done.
func (r *Resolver) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.touches.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
