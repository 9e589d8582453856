package kv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSlot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "storefront.json")
	s := NewFileSlot(path)

	_, ok, err := s.Get("cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("cart", []byte(`[{"quantity":1}]`)))
	require.NoError(t, s.Set("token", []byte("abc")))

	reopened := NewFileSlot(path)
	v, ok, err := reopened.Get("cart")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"quantity":1}]`, string(v))

	require.NoError(t, reopened.Delete("token"))
	_, ok, err = reopened.Get("token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileSlot_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	s := NewFileSlot(path)

	_, _, err := s.Get("cart")
	assert.Error(t, err)

	// a write recovers the file
	require.NoError(t, s.Set("cart", []byte("[]")))
	v, ok, err := s.Get("cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(v))
}

func TestMemorySlot_CopiesValues(t *testing.T) {
	s := NewMemorySlot()
	buf := []byte("abc")
	require.NoError(t, s.Set("k", buf))
	buf[0] = 'x'

	v, ok, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", string(v))
	assert.Len(t, s.Snapshot(), 1)
}
