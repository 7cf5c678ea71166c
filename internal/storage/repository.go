// Package storage defines the backend-agnostic persistence surface for the
// finished table set, plus the factory registry the backends hook into.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// Config is the minimal configuration needed to create a repository.
type Config struct {
	// Kind selects a registered backend ("sqlite", "postgres", "mssql").
	Kind string
	// DSN is passed through to the backend factory; validation is
	// backend-specific.
	DSN string
}

// Repository is the persistence interface the pipeline writes through.
//
// The interface is intentionally minimal: this pass only creates tables
// if missing and appends rows. Each backend implements those semantics in
// its own idiomatic way.
type Repository interface {
	// Close releases backend resources. Treat as "call once" at process
	// shutdown.
	Close()

	// EnsureTables creates tables as needed (create-if-not-exists
	// semantics; existing tables are left untouched).
	EnsureTables(ctx context.Context, tables []TableSpec) error

	// InsertRows appends rows to a table and reports how many were
	// written. Row values are positional, aligned to columns.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind. Called from backend init()
// functions.
//
// Panics on empty kind, nil factory, or duplicate registration: backend
// selection must never be ambiguous, so misregistration fails fast at
// startup.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New constructs a Repository using the registered backend factory for
// cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("storage: unsupported kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
