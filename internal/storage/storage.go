// Package storage persists result tables through pluggable writers.
//
// Backends register themselves from init() under a kind ("csv", "xlsx",
// "sqlite", "postgres", "mssql"); import internal/storage/all to link every
// backend into a binary.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

// Config is the minimal configuration needed to create a Writer.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - Dir is where file backends write; database backends may use it for a
//     default DSN.
//   - DSN is passed through to database backends; validation is backend-specific.
type Config struct {
	Kind string
	Dir  string
	DSN  string
}

// Writer persists named tables.
type Writer interface {
	// WriteTable stores t under name and returns where it went: a file path
	// for file backends, "<kind>:<table>" for database backends. name is a
	// logical artifact name without extension.
	WriteTable(ctx context.Context, name string, t *table.Table) (string, error)

	// Close releases backend resources. Call it once.
	Close() error
}

// Factory constructs a Writer for cfg.
type Factory func(ctx context.Context, cfg Config) (Writer, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers a backend under kind.
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered.
func Register(kind string, f Factory) {
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

// New constructs a Writer using the registered backend factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Writer, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing Kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("storage: unsupported kind=%s (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds lists the registered backend kinds in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
