// Package kv provides the flat key-value area the record store persists into.
// Values are opaque byte slices; callers own their encoding.
package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Get for keys that were never set or were deleted.
var ErrNotFound = errors.New("kv: key not found")

// Backend is a flat string-keyed byte store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	DriverBadger = "badger"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Driver string
	// Path is a directory for badger and a file for the file driver.
	Path string
	// KeyPrefix namespaces keys inside a shared badger directory.
	KeyPrefix string
}

// Open returns the backend named by opts.Driver.
func Open(opts Options) (Backend, error) {
	switch opts.Driver {
	case DriverBadger, "":
		if opts.Path == "" {
			return nil, fmt.Errorf("kv: badger driver requires a path")
		}
		if err := os.MkdirAll(opts.Path, 0o755); err != nil {
			return nil, fmt.Errorf("kv: create %s: %w", opts.Path, err)
		}
		return OpenBadger(opts.Path, opts.KeyPrefix)
	case DriverFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("kv: file driver requires a path")
		}
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("kv: create %s: %w", filepath.Dir(opts.Path), err)
		}
		return NewFile(opts.Path), nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("kv: unknown driver %q (must be badger, file or memory)", opts.Driver)
	}
}
