package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedded embed.FS

// SourceDir is where new migrations are written; binaries run the embedded copy.
const SourceDir = "pkg/migrate/migrations"

// goose keeps dialect and base filesystem in package globals.
var gooseMu sync.Mutex

var errNoDB = errors.New("db is required")

// Embedded returns the migrations compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// open resolves dir to a filesystem. An empty dir selects the embedded set.
func open(dir string) fs.FS {
	if dir == "" {
		return Embedded()
	}
	return os.DirFS(dir)
}

func withGoose(fsys fs.FS, fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	// Supabase Postgres only; SQLite databases go through GORM AutoMigrate.
	if err := goose.SetDialect(string(goose.DialectPostgres)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	return fn()
}

// Run executes a goose command (up, down, redo, status) against db.
func Run(ctx context.Context, db *sql.DB, dir, command string, args ...string) error {
	if db == nil {
		return errNoDB
	}
	return withGoose(open(dir), func() error {
		if err := goose.RunContext(ctx, command, db, ".", args...); err != nil {
			return fmt.Errorf("goose %s: %w", command, err)
		}
		return nil
	})
}

// Goto moves the schema up or down until it sits at target.
func Goto(ctx context.Context, db *sql.DB, dir string, target int64) error {
	if db == nil {
		return errNoDB
	}
	if target < 0 {
		return fmt.Errorf("invalid target version %d", target)
	}
	return withGoose(open(dir), func() error {
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		switch {
		case current < target:
			err = goose.UpToContext(ctx, db, ".", target)
		case current > target:
			err = goose.DownToContext(ctx, db, ".", target)
		}
		if err != nil {
			return fmt.Errorf("goto %d from %d: %w", target, current, err)
		}
		return nil
	})
}
