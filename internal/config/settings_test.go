package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := NewSettingsStore(path)

	t.Run("missing file reads as empty", func(t *testing.T) {
		_, ok, err := store.Get("timezone")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, store.Set("timezone", "Europe/Berlin"))

		v, ok, err := store.Get("timezone")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Europe/Berlin", v)
	})

	t.Run("other keys survive a write", func(t *testing.T) {
		require.NoError(t, store.Set("encryption_key", "abc123"))
		require.NoError(t, store.Set("timezone", "Europe/Vienna"))

		v, ok, err := store.Get("encryption_key")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "abc123", v)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete("encryption_key"))

		_, ok, err := store.Get("encryption_key")
		require.NoError(t, err)
		assert.False(t, ok)

		// deleting again is a no-op
		require.NoError(t, store.Delete("encryption_key"))
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		for _, e := range entries {
			assert.Equal(t, "settings.json", e.Name())
		}
	})
}

func TestSettingsStoreSetAll(t *testing.T) {
	store := NewSettingsStore(filepath.Join(t.TempDir(), "settings.json"))

	require.NoError(t, store.Set("keep", "original"))
	require.NoError(t, store.SetAll(map[string]string{
		"a": "1",
		"b": "2",
	}))

	v, ok, err := store.Get("keep")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "original", v)

	v, _, err = store.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}
