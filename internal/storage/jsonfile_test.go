package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestLoadJSON(t *testing.T) {
	t.Run("missing file is empty, not an error", func(t *testing.T) {
		var out payload
		require.NoError(t, LoadJSON(filepath.Join(t.TempDir(), "absent.json"), &out))
		assert.Empty(t, out.Name)
	})

	t.Run("empty file is empty, not an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.json")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		var out payload
		assert.NoError(t, LoadJSON(path, &out))
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o644))
		var out payload
		err := LoadJSON(path, &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
	})
}

func TestSaveJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data.json")
		in := payload{Name: "waves", Items: []string{"a", "b"}}
		require.NoError(t, SaveJSON(path, &in))

		var out payload
		require.NoError(t, LoadJSON(path, &out))
		assert.Equal(t, in, out)
	})

	t.Run("creates missing directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "deep", "data.json")
		require.NoError(t, SaveJSON(path, &payload{Name: "x"}))
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("overwrite replaces the whole file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data.json")
		require.NoError(t, SaveJSON(path, &payload{Items: []string{"a", "b", "c"}}))
		require.NoError(t, SaveJSON(path, &payload{Items: []string{"z"}}))

		var out payload
		require.NoError(t, LoadJSON(path, &out))
		assert.Equal(t, []string{"z"}, out.Items)
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, SaveJSON(filepath.Join(dir, "data.json"), &payload{}))
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
