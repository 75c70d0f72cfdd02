package tokenstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kuretru/quatt-gateway/internal/quatt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := New(filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	defer store.Close()

	tokens, err := store.LoadTokens(ctx, "CIC-1")
	require.NoError(t, err)
	assert.Nil(t, tokens)

	require.NoError(t, store.SaveTokens(ctx, "CIC-1", &quatt.Tokens{IDToken: "id-1", RefreshToken: "refresh-1"}))
	require.NoError(t, store.SaveTokens(ctx, "CIC-1", &quatt.Tokens{IDToken: "id-2", RefreshToken: "refresh-2", InstallationID: "inst"}))

	tokens, err = store.LoadTokens(ctx, "CIC-1")
	require.NoError(t, err)
	assert.Equal(t, &quatt.Tokens{IDToken: "id-2", RefreshToken: "refresh-2", InstallationID: "inst"}, tokens)

	other, err := store.LoadTokens(ctx, "CIC-2")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.db")

	store, err := New(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveTokens(ctx, "CIC-1", &quatt.Tokens{RefreshToken: "refresh-1"}))
	require.NoError(t, store.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()
	tokens, err := reopened.LoadTokens(ctx, "CIC-1")
	require.NoError(t, err)
	require.NotNil(t, tokens)
	assert.Equal(t, "refresh-1", tokens.RefreshToken)
}
