package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePath(t *testing.T) {
	t.Run("rejects empty path", func(t *testing.T) {
		_, err := ValidatePath("")
		assert.ErrorContains(t, err, "cannot be empty")
	})

	t.Run("rejects shell characters", func(t *testing.T) {
		for _, char := range forbiddenChars {
			_, err := ValidatePath("/tmp/policy" + char + "yaml")
			assert.ErrorContains(t, err, "forbidden character", "character %q", char)
		}
	})

	t.Run("makes relative paths absolute", func(t *testing.T) {
		result, err := ValidatePath("policy.yaml")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(result))
	})

	t.Run("cleans dot segments", func(t *testing.T) {
		dir := t.TempDir()
		result, err := ValidatePath(filepath.Join(dir, "a", "..", "graph.db"))
		require.NoError(t, err)
		assert.Equal(t, "graph.db", filepath.Base(result))
		assert.NotContains(t, result, "..")
	})

	t.Run("resolves symlinks", func(t *testing.T) {
		dir := t.TempDir()
		real := filepath.Join(dir, "real.yaml")
		require.NoError(t, os.WriteFile(real, []byte("limits: {}"), 0o644))
		link := filepath.Join(dir, "link.yaml")
		require.NoError(t, os.Symlink(real, link))

		result, err := ValidatePath(link)
		require.NoError(t, err)
		expected, _ := filepath.EvalSymlinks(real)
		assert.Equal(t, expected, result)
	})
}

func TestReadFileLimited(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads small file", func(t *testing.T) {
		path := filepath.Join(dir, "small.yaml")
		require.NoError(t, os.WriteFile(path, []byte("lock_ttl: 10s"), 0o644))

		data, err := ReadFileLimited(path, 64)
		require.NoError(t, err)
		assert.Equal(t, "lock_ttl: 10s", string(data))
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		path := filepath.Join(dir, "big.yaml")
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 65)), 0o644))

		_, err := ReadFileLimited(path, 64)
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("rejects directory", func(t *testing.T) {
		_, err := ReadFileLimited(dir, 64)
		assert.ErrorContains(t, err, "not a regular file")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadFileLimited(filepath.Join(dir, "missing.yaml"), 64)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
