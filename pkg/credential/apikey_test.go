package credential_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/credential"
)

func TestGenerateAPIKey(t *testing.T) {
	t.Parallel()

	gen, err := credential.GenerateAPIKey("pk_")
	require.NoError(t, err)

	assert.Len(t, gen.Raw, 3+48)
	assert.True(t, strings.HasPrefix(gen.Raw, "pk_"))
	assert.True(t, credential.ValidAPIKeyFormat(gen.Raw, "pk_"))
	assert.Equal(t, credential.HashAPIKey(gen.Raw), gen.Hash)
	assert.Len(t, gen.Hash, 64)
	assert.Equal(t, gen.Raw[:8], gen.Prefix)

	other, err := credential.GenerateAPIKey("pk_")
	require.NoError(t, err)
	assert.NotEqual(t, gen.Raw, other.Raw)
}

func TestValidAPIKeyFormat(t *testing.T) {
	t.Parallel()

	valid := "pk_" + strings.Repeat("A1", 24)

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"valid", valid, true},
		{"wrong prefix", "sk_" + strings.Repeat("A1", 24), false},
		{"lower case", "pk_" + strings.Repeat("a1", 24), false},
		{"too short", "pk_" + strings.Repeat("A", 47), false},
		{"too long", valid + "0", false},
		{"non hex", "pk_" + strings.Repeat("G", 48), false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, credential.ValidAPIKeyFormat(tt.raw, "pk_"))
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	t.Parallel()

	raw := "pk_ABCDE" + strings.Repeat("0", 40) + "WXYZ"
	assert.Equal(t, "pk_ABCDE...WXYZ", credential.MaskAPIKey(raw))
	assert.Equal(t, "*****", credential.MaskAPIKey("short"))
}

func TestIssueAPIKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := credential.NewMemoryStore()
	acct := uuid.New()

	raw, key, err := credential.IssueAPIKey(ctx, store, acct, "ci", "pk_", nil)
	require.NoError(t, err)
	assert.True(t, key.Active)
	assert.Equal(t, acct, key.AccountID)
	assert.Equal(t, "ci", key.Name)

	stored, err := store.GetAPIKeyByHash(ctx, credential.HashAPIKey(raw))
	require.NoError(t, err)
	assert.Equal(t, key.ID, stored.ID)
}
