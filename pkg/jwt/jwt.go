package jwt

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of tokens issued without WithTTL.
const DefaultTTL = 15 * time.Minute

// SessionClaims are the claims of a session token.
type SessionClaims struct {
	gojwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// AccountID parses the subject as an account id.
func (c SessionClaims) AccountID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, errors.Join(ErrInvalidSubject, err)
	}
	return id, nil
}

// Service handles session token generation and validation using HMAC-SHA256.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer sets the "iss" claim and requires it when parsing.
func WithIssuer(issuer string) Option {
	return func(s *Service) {
		s.issuer = issuer
	}
}

// WithTTL sets the lifetime of issued tokens.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a new JWT service with the provided signing key.
// The key should be at least 32 bytes for adequate security with HMAC-SHA256.
func New(signingKey []byte, opts ...Option) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}

	s := &Service{
		signingKey: signingKey,
		ttl:        DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromString is New for string-based configuration.
func NewFromString(signingKey string, opts ...Option) (*Service, error) {
	return New([]byte(signingKey), opts...)
}

// Issue creates a signed session token for accountID.
func (s *Service) Issue(accountID uuid.UUID, role string) (string, error) {
	now := s.now()
	claims := SessionClaims{
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountID.String(),
			Issuer:    s.issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.ttl)),
		},
		Role: role,
	}
	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// Parse verifies the signature and temporal claims of token.
// Expired tokens yield ErrExpiredToken; every other failure yields ErrInvalidToken.
func (s *Service) Parse(token string) (SessionClaims, error) {
	var claims SessionClaims

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}

	_, err := gojwt.ParseWithClaims(token, &claims, func(*gojwt.Token) (any, error) {
		return s.signingKey, nil
	}, opts...)
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return SessionClaims{}, errors.Join(ErrExpiredToken, err)
	case err != nil:
		return SessionClaims{}, errors.Join(ErrInvalidToken, err)
	}

	if _, err := claims.AccountID(); err != nil {
		return SessionClaims{}, errors.Join(ErrInvalidToken, err)
	}
	return claims, nil
}
