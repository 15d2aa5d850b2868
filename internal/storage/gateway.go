package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	_ "modernc.org/sqlite"
)

// ErrNoDSN is returned when the gateway was built without a database
// path. Configuration validation catches this at startup; the error
// exists for callers that construct gateways directly.
var ErrNoDSN = errors.New("database path not configured")

// Gateway owns the process-wide database handle. It is created once in
// main and injected into repositories; Connect is lazy, idempotent and
// safe for concurrent use. Concurrent first callers share a single
// in-flight connection attempt instead of racing to open duplicates.
type Gateway struct {
	path string

	group singleflight.Group
	mu    sync.RWMutex
	db    *sql.DB
}

func NewGateway(path string) *Gateway {
	return &Gateway{path: path}
}

// Connect returns the cached handle, establishing it on first use.
// A failed attempt is not cached: the next caller retries. Errors from
// an unreachable store propagate as-is; there is no retry built in.
func (g *Gateway) Connect(ctx context.Context) (*sql.DB, error) {
	g.mu.RLock()
	db := g.db
	g.mu.RUnlock()
	if db != nil {
		return db, nil
	}

	if g.path == "" {
		return nil, ErrNoDSN
	}

	v, err, _ := g.group.Do("connect", func() (any, error) {
		// Re-check under the flight: a previous flight may have won.
		g.mu.RLock()
		cached := g.db
		g.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}
		opened, err := g.open(ctx)
		if err != nil {
			return nil, err
		}
		g.mu.Lock()
		g.db = opened
		g.mu.Unlock()
		return opened, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.DB), nil
}

func (g *Gateway) open(ctx context.Context) (*sql.DB, error) {
	if dir := filepath.Dir(g.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", g.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(g.path); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.InfoContext(ctx, "Database connection established", "path", g.path)
	return db, nil
}

// Close releases the cached handle. Safe to call when Connect never
// succeeded.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}
