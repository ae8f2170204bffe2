package credential

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultKeyPrefix marks a raw credential as an API key.
	DefaultKeyPrefix = "pk_"

	keyRandomBytes  = 24
	displayPrefixLn = 8
)

// GeneratedKey is a freshly issued API key. Raw is shown to the user once.
type GeneratedKey struct {
	Raw    string
	Hash   string
	Prefix string
}

// GenerateAPIKey returns prefix followed by 48 upper-case hex characters,
// together with its hash and display prefix.
func GenerateAPIKey(prefix string) (GeneratedKey, error) {
	b := make([]byte, keyRandomBytes)
	if _, err := rand.Read(b); err != nil {
		return GeneratedKey{}, fmt.Errorf("failed to generate api key: %w", err)
	}
	raw := prefix + strings.ToUpper(hex.EncodeToString(b))
	return GeneratedKey{
		Raw:    raw,
		Hash:   HashAPIKey(raw),
		Prefix: raw[:min(displayPrefixLn, len(raw))],
	}, nil
}

// HashAPIKey returns the hex SHA-256 of raw. Stored keys are looked up by it.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// MaskAPIKey renders raw as its display prefix and last four characters.
func MaskAPIKey(raw string) string {
	if len(raw) <= displayPrefixLn+4 {
		return strings.Repeat("*", len(raw))
	}
	return raw[:displayPrefixLn] + "..." + raw[len(raw)-4:]
}

// ValidAPIKeyFormat reports whether raw is prefix followed by 48 upper-case hex characters.
func ValidAPIKeyFormat(raw, prefix string) bool {
	body, ok := strings.CutPrefix(raw, prefix)
	if !ok || len(body) != keyRandomBytes*2 {
		return false
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// IssueAPIKey generates a key for accountID and persists it through w.
// The returned raw key is not recoverable afterwards.
func IssueAPIKey(ctx context.Context, w KeyWriter, accountID uuid.UUID, name, prefix string, expiresAt *time.Time) (string, APIKey, error) {
	gen, err := GenerateAPIKey(prefix)
	if err != nil {
		return "", APIKey{}, err
	}
	key := APIKey{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      name,
		Hash:      gen.Hash,
		Prefix:    gen.Prefix,
		Active:    true,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	if err := w.CreateAPIKey(ctx, key); err != nil {
		return "", APIKey{}, fmt.Errorf("failed to store api key: %w", err)
	}
	return gen.Raw, key, nil
}
