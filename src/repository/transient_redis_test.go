package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pondermatic/strategy11-challenge/src/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisTransientStore_SetGet(t *testing.T) {
	client, mr := testutil.SetupTestRedis(t)
	store := NewRedisTransientStore(client, "psc")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "pondermatic-strategy11/v1/challenge", []byte(`{"title":"x"}`), time.Hour))

	value, err := store.Get(ctx, "pondermatic-strategy11/v1/challenge")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"x"}`, string(value))

	// keys are namespaced with the prefix
	assert.True(t, mr.Exists("psc:pondermatic-strategy11/v1/challenge"))
	assert.Equal(t, time.Hour, mr.TTL("psc:pondermatic-strategy11/v1/challenge"))
}

func TestRedisTransientStore_Expiry(t *testing.T) {
	client, mr := testutil.SetupTestRedis(t)
	store := NewRedisTransientStore(client, "")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Hour))

	mr.FastForward(time.Hour - 5*time.Second)
	_, err := store.Get(ctx, "k")
	assert.NoError(t, err)

	mr.FastForward(6 * time.Second)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrTransientNotFound)
}

func TestRedisTransientStore_NoExpiry(t *testing.T) {
	client, mr := testutil.SetupTestRedis(t)
	store := NewRedisTransientStore(client, "")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	mr.FastForward(365 * 24 * time.Hour)

	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(value))
}

func TestRedisTransientStore_DeleteIsIdempotent(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewRedisTransientStore(client, "")
	ctx := context.Background()

	assert.NoError(t, store.Delete(ctx, "missing"))

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	assert.NoError(t, store.Delete(ctx, "k"))
	assert.NoError(t, store.Delete(ctx, "k"))

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrTransientNotFound)
}

func TestRedisTransientStore_BackendFailure(t *testing.T) {
	client, mr := testutil.SetupTestRedis(t)
	store := NewRedisTransientStore(client, "")
	mr.Close()

	_, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTransientNotFound)
}

func TestRedisTransientStore_CloseReleasesClient(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewRedisTransientStore(client, "")

	require.NoError(t, store.Close())
	err := store.Set(context.Background(), "k", []byte("v"), time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}
