package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePairs drops empty up/down files for each base name.
func writePairs(t *testing.T, dir string, bases ...string) {
	t.Helper()
	for _, base := range bases {
		for _, suffix := range []string{".up.sql", ".down.sql"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, base+suffix), []byte("-- test"), 0644))
		}
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add designations table", "add_designations_table"},
		{"Add-Designations-Table", "add_designations_table"},
		{"ADD_DESIGNATIONS_TABLE", "add_designations_table"},
		{"add__charge__entries", "add_charge_entries"},
		{"Index Patients 2026", "index_patients_2026"},
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
	tmpDir := t.TempDir()

	mf, err := CreateMigration(tmpDir, "add designations table", "Registry of yearly VIP designations")
	require.NoError(t, err)
	require.NotNil(t, mf)

	// Version is a sortable YYYYMMDDHHMMSS timestamp
	assert.Len(t, mf.Version, 14)

	// Up and down files share the same base name
	upBase := strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql")
	downBase := strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql")
	assert.Equal(t, upBase, downBase)
	assert.Equal(t, mf.Version+"_add_designations_table", upBase)

	upContent, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(upContent), "add designations table")
	assert.Contains(t, string(upContent), "Registry of yearly VIP designations")
	assert.Contains(t, string(upContent), "Write your UP migration SQL here")
	assert.NotContains(t, string(upContent), "Rollback")

	downContent, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(downContent), "Rollback for Registry of yearly VIP designations")
	assert.Contains(t, string(downContent), "Write your DOWN migration SQL here")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nestedPath := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nestedPath, "init", "initial schema")
	require.NoError(t, err)
	assert.DirExists(t, nestedPath)
}

func TestListMigrations(t *testing.T) {
	tmpDir := t.TempDir()
	writePairs(t, tmpDir,
		"000002_add_charge_entries",
		"000001_init_schema",
		"000003_add_designations",
	)

	migrations, err := ListMigrations(tmpDir)
	require.NoError(t, err)

	// One entry per pair, in version order
	assert.Equal(t, []string{
		"000001_init_schema",
		"000002_add_charge_entries",
		"000003_add_designations",
	}, migrations)
}

func TestListMigrations_EmptyDirectory(t *testing.T) {
	migrations, err := ListMigrations(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	migrations, err := ListMigrations("/nonexistent/path/to/migrations")
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestListMigrations_IgnoresNonMigrationFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writePairs(t, tmpDir, "000001_init")
	for _, f := range []string{"README.md", "config.yaml", ".gitkeep"} {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, f), []byte("test"), 0644))
	}
	// A directory whose name looks like a migration must be skipped too
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "subdir.up.sql"), 0755))

	migrations, err := ListMigrations(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init"}, migrations)
}
