package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

const versionLayout = "20060102150405"

const skeleton = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- undo %[1]s
-- +goose StatementEnd
`

// CreateSQLMigration writes an empty goose migration into dir named after
// the current UTC time and a slug of name.
func CreateSQLMigration(dir, name string) (string, error) {
	return create(dir, name, time.Now().UTC())
}

func create(dir, name string, at time.Time) (string, error) {
	if dir == "" {
		return "", errors.New("dir is required")
	}
	desc := strings.ReplaceAll(slug.Make(name), "-", "_")
	if desc == "" {
		return "", fmt.Errorf("%q has no usable characters for a file name", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	existing, err := List(os.DirFS(dir))
	if err != nil {
		return "", err
	}
	version := at
	if n := len(existing); n > 0 {
		// two creates in the same second must not share a version
		last, _ := time.Parse(versionLayout, fmt.Sprint(existing[n-1].Version))
		if !version.After(last) {
			version = last.Add(time.Second)
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version.Format(versionLayout), desc))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration: %w", err)
	}
	if _, err := fmt.Fprintf(f, skeleton, desc); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}
