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
		{"add invoice notes", "add_invoice_notes"},
		{"Add-Invoice-Notes", "add_invoice_notes"},
		{"ADD__PAYMENT__INDEX", "add_payment_index"},
		{"Balance 2026", "balance_2026"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading_and_trailing_", "leading_and_trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add invoice notes", "Free text notes on invoices")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_invoice_notes.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_invoice_notes.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- add_invoice_notes")
	assert.Contains(t, string(up), "-- Free text notes on invoices")
	assert.Contains(t, string(up), "BEGIN;")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")

	second, err := CreateMigration(dir, "payment index", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	t.Run("empty name is rejected", func(t *testing.T) {
		_, err := CreateMigration(dir, "!!!", "")
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		list, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("pairs ordered by version", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"000010_late.up.sql",
			"000010_late.down.sql",
			"000002_early.up.sql",
			"000002_early.down.sql",
			"000003_half.up.sql",
			"README.md",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
		}
		require.NoError(t, os.Mkdir(filepath.Join(dir, "000004_dir.up.sql"), 0o755))

		list, err := ListMigrations(dir)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, uint(2), list[0].Version)
		assert.Equal(t, "early", list[0].Name)
		assert.Equal(t, uint(3), list[1].Version)
		assert.Empty(t, list[1].DownPath)
		assert.Equal(t, uint(10), list[2].Version)

		next, err := CreateMigration(dir, "next", "")
		require.NoError(t, err)
		assert.Equal(t, uint(11), next.Version)
	})
}

func TestRepositoryMigrationsArePaired(t *testing.T) {
	list, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, list)
	for i, mf := range list {
		assert.Equal(t, uint(i+1), mf.Version, "versions are contiguous")
		assert.NotEmpty(t, mf.UpPath, "version %d has an up file", mf.Version)
		assert.NotEmpty(t, mf.DownPath, "version %d has a down file", mf.Version)
	}
}
