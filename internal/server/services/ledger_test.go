package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger(t *testing.T) {
	store := newMemStore()
	l := NewLedger(&fakeRepoManager{store: store})
	ctx := context.Background()

	ok, err := l.IsRevoked(ctx, nil, "tok")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Revoke(ctx, nil, "tok"))
	require.NoError(t, l.Revoke(ctx, nil, "tok"))

	ok, err = l.IsRevoked(ctx, nil, "tok")
	require.NoError(t, err)
	assert.True(t, ok)

	// stored by digest only
	assert.Len(t, store.revoked, 1)
	_, raw := store.revoked["tok"]
	assert.False(t, raw)
	_, digest := store.revoked[common.TokenDigest("tok")]
	assert.True(t, digest)
}

func TestLedger_EmptyToken(t *testing.T) {
	store := newMemStore()
	l := NewLedger(&fakeRepoManager{store: store})
	ctx := context.Background()

	require.NoError(t, l.Revoke(ctx, nil, ""))
	ok, err := l.IsRevoked(ctx, nil, "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, store.revoked)
}
