package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add funds table", "add_funds_table"},
		{"Add-Funds-Table", "add_funds_table"},
		{"ADD_FUNDS_TABLE", "add_funds_table"},
		{"add__funds__table", "add_funds_table"},
		{"Add Aliases 123", "add_aliases_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sqlite")

	mf, err := CreateMigration(dir, "add fund index", "Speed up manager lookups")
	require.NoError(t, err)

	assert.Equal(t, uint(1), mf.Version)
	assert.Equal(t, "sqlite", mf.Dialect)
	assert.Equal(t, filepath.Join(dir, "000001_add_fund_index.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_fund_index.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add fund index (sqlite)")
	assert.Contains(t, string(up), "Speed up manager lookups")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback: add fund index")
}

func TestCreateMigration_NextVersion(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"000001_create_funds.up.sql", "000009_create_aliases.up.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0o644))
	}

	mf, err := CreateMigration(dir, "next", "")
	require.NoError(t, err)
	assert.Equal(t, uint(10), mf.Version)
	assert.Equal(t, "000010_next.up.sql", filepath.Base(mf.UpPath))
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"000010_add_index.up.sql",
		"000010_add_index.down.sql",
		"000002_create_aliases.up.sql",
		"000002_create_aliases.down.sql",
		"000001_create_funds.up.sql",
		"000001_create_funds.down.sql",
		"README.md",
	}
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.up.sql"), 0o755))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"000001_create_funds",
		"000002_create_aliases",
		"000010_add_index",
	}, migrations)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	migrations, err := ListMigrations("/nonexistent/path/to/migrations")
	require.NoError(t, err)
	assert.Empty(t, migrations)
}
