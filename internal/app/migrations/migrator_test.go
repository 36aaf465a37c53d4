package migrations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOf(t *testing.T) {
	assert.Equal(t, "001", VersionOf("001_init.sql"))
	assert.Equal(t, "002", VersionOf("/srv/migrations/002_analytics.sql"))
	assert.Equal(t, "003", VersionOf("003.sql"))
}

func TestSQLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.sql"), 0o755))

	files, err := SQLFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql"}, files)

	_, err = SQLFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestRepositoryMigrationsAreOrdered(t *testing.T) {
	files, err := SQLFiles(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_init.sql", files[0])

	seen := map[string]bool{}
	for _, f := range files {
		v := VersionOf(f)
		assert.False(t, seen[v], "duplicate migration version %s", v)
		seen[v] = true
	}
}
