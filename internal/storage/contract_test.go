package storage

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory struct {
	name string
	new  func(t *testing.T) (Store, func())
}

func newMiniredisStore(t *testing.T, cfg RedisConfig) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg.Host = mr.Host()
	cfg.Port = port
	s, err := NewRedisStore(&cfg)
	require.NoError(t, err)
	return s, mr
}

func TestStoreContract(t *testing.T) {
	factories := []storeFactory{
		{
			name: "memory",
			new: func(t *testing.T) (Store, func()) {
				s := NewMemoryStore()
				return s, func() { _ = s.Close() }
			},
		},
		{
			name: "file",
			new: func(t *testing.T) (Store, func()) {
				s, err := NewFileStore(t.TempDir())
				require.NoError(t, err)
				return s, func() { _ = s.Close() }
			},
		},
		{
			name: "redis",
			new: func(t *testing.T) (Store, func()) {
				s, _ := newMiniredisStore(t, RedisConfig{})
				return s, func() { _ = s.Close() }
			},
		},
	}

	for _, f := range factories {
		t.Run(f.name, func(t *testing.T) {
			store, cleanup := f.new(t)
			defer cleanup()

			contractRoundtrip(t, store)
			contractOverwrite(t, store)
			contractNotFound(t, store)
			contractList(t, store)
			contractInvalidKey(t, store)
		})
	}
}

func contractRoundtrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	data := []byte("# ps2emu-record V1\nT: A\nS: Init\nE: 0          R aa\n")

	require.NoError(t, s.Put(ctx, "touchpad", data))

	got, err := s.Get(ctx, "touchpad")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Mutating the returned slice must not change the stored log.
	got[0] = 'X'
	again, err := s.Get(ctx, "touchpad")
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func contractOverwrite(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "overwrite", []byte("first")))
	require.NoError(t, s.Put(ctx, "overwrite", []byte("second")))

	got, err := s.Get(ctx, "overwrite")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func contractNotFound(t *testing.T, s Store) {
	t.Helper()

	_, err := s.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "Get(missing) error = %v, want ErrNotFound", err)
}

func contractList(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "b-log", []byte("b")))
	require.NoError(t, s.Put(ctx, "a-log", []byte("a")))

	keys, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-log", "b-log", "overwrite", "touchpad"}, keys)
}

func contractInvalidKey(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	for _, key := range []string{"", "../escape", `a\b`, ".."} {
		assert.Error(t, s.Put(ctx, key, []byte("x")), "Put(%q) should fail", key)
	}
}
