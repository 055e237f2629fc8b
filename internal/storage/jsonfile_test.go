package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file reads as empty", func(t *testing.T) {
		file, err := NewJSONFile(filepath.Join(t.TempDir(), "nested", "data.json"))
		require.NoError(t, err)

		empty, err := file.IsEmpty()
		require.NoError(t, err)
		require.True(t, empty)

		var items []sample
		require.NoError(t, file.Read(&items))
		require.Nil(t, items)
	})

	t.Run("write uses two space indentation", func(t *testing.T) {
		file, err := NewJSONFile(filepath.Join(t.TempDir(), "data.json"))
		require.NoError(t, err)

		require.NoError(t, file.Write([]sample{{Name: "a", Count: 1}}))

		raw, err := os.ReadFile(file.Path())
		require.NoError(t, err)
		require.Equal(t, "[\n  {\n    \"name\": \"a\",\n    \"count\": 1\n  }\n]", string(raw))
	})

	t.Run("round trip", func(t *testing.T) {
		file, err := NewJSONFile(filepath.Join(t.TempDir(), "data.json"))
		require.NoError(t, err)

		written := []sample{{Name: "a", Count: 1}, {Name: "b", Count: 2}}
		require.NoError(t, file.Write(written))

		var read []sample
		require.NoError(t, file.Read(&read))
		require.Equal(t, written, read)

		empty, err := file.IsEmpty()
		require.NoError(t, err)
		require.False(t, empty)
	})

	t.Run("blank file reads as empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data.json")
		require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

		file, err := NewJSONFile(path)
		require.NoError(t, err)

		var items []sample
		require.NoError(t, file.Read(&items))
		require.Nil(t, items)
	})

	t.Run("malformed file fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		file, err := NewJSONFile(path)
		require.NoError(t, err)

		var items []sample
		require.Error(t, file.Read(&items))
	})

	t.Run("empty path is rejected", func(t *testing.T) {
		_, err := NewJSONFile("  ")
		require.Error(t, err)
	})
}
