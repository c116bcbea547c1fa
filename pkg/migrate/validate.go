package migrate

import (
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"strings"
)

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

var fileNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Migration is a parsed migration file name.
type Migration struct {
	Version int64
	Name    string
}

// ValidateDir checks dir, or the embedded set when dir is empty.
func ValidateDir(dir string) error {
	_, err := List(open(dir))
	return err
}

// List returns the migrations in fsys in version order after checking each
// file is named correctly, has a unique version, and carries an Up section
// followed by a Down section.
func List(fsys fs.FS) ([]Migration, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	out := make([]Migration, 0, len(names))
	byVersion := make(map[int64]string, len(names))
	for _, name := range names {
		m := fileNameRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("%s: name must look like YYYYMMDDHHMMSS_description.sql", name)
		}
		version, _ := strconv.ParseInt(m[1], 10, 64)
		if other, dup := byVersion[version]; dup {
			return nil, fmt.Errorf("%s: version %d already used by %s", name, version, other)
		}
		byVersion[version] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if err := checkSections(string(body)); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, Migration{Version: version, Name: name})
	}
	// fs.Glob sorts lexically and the fixed-width prefix keeps that numeric.
	return out, nil
}

func checkSections(sql string) error {
	up := strings.Index(sql, upMarker)
	down := strings.Index(sql, downMarker)
	switch {
	case up < 0:
		return fmt.Errorf("missing %q", upMarker)
	case down < 0:
		return fmt.Errorf("missing %q", downMarker)
	case down < up:
		return fmt.Errorf("%q must come before %q", upMarker, downMarker)
	}
	return nil
}
