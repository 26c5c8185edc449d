package migration

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"
)

// migrationTemplate is stamped into both halves of a new pair. golang-migrate
// only requires the .up.sql/.down.sql naming; the header is for humans.
var migrationTemplate = template.Must(template.New("migration").Parse(
	`-- Migration: {{.Name}}{{if .Rollback}} (Rollback){{end}}
-- Created: {{.Timestamp}}
-- Description: {{if .Rollback}}Rollback for {{end}}{{.Description}}

-- Write your {{if .Rollback}}DOWN{{else}}UP{{end}} migration SQL here

`))

// MigrationFile represents a migration file pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration creates a new up/down migration pair in migrationsDir.
// The version prefix is the current timestamp, so files sort in creation order.
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	if err := os.MkdirAll(migrationsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	now := time.Now()
	version := now.Format("20060102150405")

	baseName := fmt.Sprintf("%s_%s", version, sanitizeName(name))
	mf := &MigrationFile{
		Version:     version,
		Name:        name,
		Description: description,
		Timestamp:   now.Format(time.RFC3339),
		UpPath:      filepath.Join(migrationsDir, baseName+".up.sql"),
		DownPath:    filepath.Join(migrationsDir, baseName+".down.sql"),
	}

	if err := mf.render(mf.UpPath, false); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := mf.render(mf.DownPath, true); err != nil {
		// Do not leave an orphaned up file behind
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}

	return mf, nil
}

func (mf *MigrationFile) render(path string, rollback bool) error {
	var buf bytes.Buffer
	err := migrationTemplate.Execute(&buf, struct {
		*MigrationFile
		Rollback bool
	}{mf, rollback})
	if err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// sanitizeName lowercases the migration name and collapses everything that is
// not [a-z0-9] into single underscores
func sanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '_':
			s := b.String()
			if len(s) > 0 && !strings.HasSuffix(s, "_") {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// ListMigrations returns the base names of all migration pairs in a
// directory, sorted by version
func ListMigrations(migrationsDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations directory: %w", err)
	}

	migrations := make([]string, 0, len(matches))
	for _, match := range matches {
		if info, err := os.Stat(match); err != nil || info.IsDir() {
			continue
		}
		migrations = append(migrations, strings.TrimSuffix(filepath.Base(match), ".up.sql"))
	}
	sort.Strings(migrations)

	return migrations, nil
}
