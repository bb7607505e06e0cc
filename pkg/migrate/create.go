package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

// migrationVerbs are the accepted leading words of a migration name, as in
// create_orders or add_order_notes.
var migrationVerbs = []string{"create", "add", "alter", "drop", "rename", "backfill", "index"}

const versionLayout = "20060102150405"

// CreateSQLMigration writes a new marketplace migration stamped with the
// current UTC time:
//
//	<dir>/<YYYYMMDDHHMMSS>_<verb>_<subject>.sql
func CreateSQLMigration(dir string, name string) (string, error) {
	return CreateSQLMigrationAt(dir, name, time.Now())
}

// CreateSQLMigrationAt is CreateSQLMigration with a fixed clock. It refuses
// to reuse a version already present in dir.
func CreateSQLMigrationAt(dir string, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug, err := migrationSlug(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	now = now.UTC()
	version := now.Format(versionLayout)
	taken, err := filepath.Glob(filepath.Join(dir, version+"_*.sql"))
	if err != nil {
		return "", fmt.Errorf("scan %q: %w", dir, err)
	}
	if len(taken) > 0 {
		return "", fmt.Errorf("migration version %s already used by %s", version, filepath.Base(taken[0]))
	}

	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, slug))
	if err := os.WriteFile(fullpath, []byte(migrationTemplate(slug, now)), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

// migrationSlug lowercases name into snake_case and checks it starts with
// one of migrationVerbs followed by a subject.
func migrationSlug(name string) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = nameSanitizeRe.ReplaceAllString(slug, "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}

	verb, subject, _ := strings.Cut(slug, "_")
	for _, v := range migrationVerbs {
		if verb == v {
			if subject == "" {
				return "", fmt.Errorf("migration %q names no table or column after %q", slug, verb)
			}
			return slug, nil
		}
	}
	return "", fmt.Errorf("migration %q must start with one of %s", slug, strings.Join(migrationVerbs, ", "))
}

func migrationTemplate(slug string, created time.Time) string {
	return fmt.Sprintf(`-- KrishiKarobar marketplace schema
-- migration: %[1]s
-- created: %[2]s
-- Postgres only; sqlite dev schemas come from KRISHI_AUTO_MIGRATE.

-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert %[1]s
-- +goose StatementEnd
`, slug, created.Format(time.RFC3339))
}
