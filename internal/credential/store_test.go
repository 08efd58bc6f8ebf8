package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(TokenKey)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(TokenKey, "abc"))
	got, err := s.Get(TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	require.NoError(t, s.Set(TokenKey, "def"))
	got, err = s.Get(TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "def", got)

	require.NoError(t, s.Clear(TokenKey))
	_, err = s.Get(TokenKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreClearMissingKey(t *testing.T) {
	s := NewMemoryStore()
	assert.NoError(t, s.Clear("nope"))
}

func TestOpenMemoryBackend(t *testing.T) {
	s, err := Open("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("vault", "")
	assert.Error(t, err)
}
