// Package jsonfile persists collections as a single JSON array in one file.
// Every write rewrites the whole file.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const defaultTimeout = 5 * time.Second

// ErrDocument reports that the backing file could not be read, parsed or
// written.
var ErrDocument = errors.New("json document error")

// Locker guards a read-modify-write cycle across processes. The returned
// function releases the lock.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// Option configures a Document.
type Option func(*options)

type options struct {
	locker  Locker
	perm    os.FileMode
	timeout time.Duration
}

// WithLocker adds a cross-process lock taken around every Mutate call, in
// addition to the in-process mutex.
func WithLocker(l Locker) Option {
	return func(o *options) { o.locker = l }
}

// WithTimeout bounds every read and Mutate call, lock wait included.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithFileMode sets the permission bits used when the file is created or
// rewritten.
func WithFileMode(perm os.FileMode) Option {
	return func(o *options) { o.perm = perm }
}

// Document is a collection of T stored as one JSON array.
type Document[T any] struct {
	path    string
	mu      sync.Mutex
	locker  Locker
	perm    os.FileMode
	timeout time.Duration
}

// Open prepares the document at path, creating the parent directory and an
// empty array when the file does not exist yet.
func Open[T any](path string, opts ...Option) (*Document[T], error) {
	o := options{perm: 0o600, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: mkdir %s: %w", ErrDocument, dir, err)
		}
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, []byte("[]"), o.perm); err != nil {
			return nil, fmt.Errorf("%w: create %s: %w", ErrDocument, path, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrDocument, path, err)
	}

	if o.timeout <= 0 {
		o.timeout = defaultTimeout
	}
	return &Document[T]{path: path, locker: o.locker, perm: o.perm, timeout: o.timeout}, nil
}

// Path returns the location of the backing file.
func (d *Document[T]) Path() string {
	return d.path
}

// ReadAll parses the whole file. An empty file or a JSON null is an empty
// collection. When a Locker is configured the read holds it too, so a writer
// in another process is never observed mid-write.
func (d *Document[T]) ReadAll(ctx context.Context) ([]T, error) {
	var records []T
	err := d.locked(ctx, func() error {
		var err error
		records, err = d.readUnlocked()
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// WriteAll replaces the file contents with records.
func (d *Document[T]) WriteAll(ctx context.Context, records []T) error {
	return d.locked(ctx, func() error {
		return d.writeUnlocked(records)
	})
}

// Mutate runs fn over the current collection and writes back what it
// returns. Only one Mutate runs at a time per Document, and per lock key when
// a Locker is configured. If fn fails, nothing is written and its error is
// returned as is.
func (d *Document[T]) Mutate(ctx context.Context, fn func([]T) ([]T, error)) error {
	return d.locked(ctx, func() error {
		records, err := d.readUnlocked()
		if err != nil {
			return err
		}
		next, err := fn(records)
		if err != nil {
			return err
		}
		return d.writeUnlocked(next)
	})
}

// locked runs fn holding the in-process mutex and, if configured, the
// cross-process lock. The whole call, lock wait included, is bounded by the
// document timeout.
func (d *Document[T]) locked(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.locker != nil {
		unlock, err := d.locker.Lock(ctx)
		if err != nil {
			return fmt.Errorf("acquire document lock: %w", err)
		}
		defer unlock()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

func (d *Document[T]) readUnlocked() ([]T, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrDocument, d.path, err)
	}

	records := []T{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrDocument, d.path, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (d *Document[T]) writeUnlocked(records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrDocument, d.path, err)
	}
	if err := os.WriteFile(d.path, data, d.perm); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrDocument, d.path, err)
	}
	return nil
}
