package apkg

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// Engine guards the one-time readiness probe of the SQLite engine. Concurrent
// first callers share a single in-flight probe. A successful result is cached
// for the life of the process; a failed probe is retried by the next caller.
type Engine struct {
	probe func(context.Context) (string, error)
	group singleflight.Group

	mu      sync.Mutex
	version string
}

// NewEngine returns a guard around the embedded SQLite driver.
func NewEngine() *Engine {
	return &Engine{probe: probeSQLite}
}

var defaultEngine = NewEngine()

// Ready returns the engine version, probing it on first use.
func (e *Engine) Ready(ctx context.Context) (string, error) {
	if v := e.cached(); v != "" {
		return v, nil
	}
	v, err, _ := e.group.Do("engine", func() (any, error) {
		if v := e.cached(); v != "" {
			return v, nil
		}
		version, err := e.probe(ctx)
		if err != nil {
			return "", err
		}
		e.mu.Lock()
		e.version = version
		e.mu.Unlock()
		return version, nil
	})
	if err != nil {
		return "", fmt.Errorf("initializing package engine: %w", err)
	}
	return v.(string), nil
}

func (e *Engine) cached() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

func probeSQLite(ctx context.Context) (string, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return "", fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	var version string
	if err := db.QueryRowContext(ctx, `SELECT sqlite_version()`).Scan(&version); err != nil {
		return "", fmt.Errorf("query sqlite version: %w", err)
	}
	return version, nil
}
