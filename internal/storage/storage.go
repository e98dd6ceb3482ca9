// Package storage resolves input references to radar objects.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/radar-composite/internal/container"
	"github.com/couchcryptid/radar-composite/internal/radar"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a reference does not resolve to anything.
	ErrNotFound = errors.New("object not found")
	// ErrIO is returned when an object exists but cannot be read or decoded.
	ErrIO = errors.New("object unreadable")
)

// LoadOptions tune how an object is loaded.
type LoadOptions struct {
	// IgnoreMalfunc asks the caller to drop malfunctioning data; providers
	// pass it through unchanged.
	IgnoreMalfunc bool
	// Quantity restricts loaded parameters to a single quantity when set.
	Quantity string
}

// Provider opens radar objects by reference.
type Provider interface {
	Open(ctx context.Context, ref string, opts LoadOptions) (radar.Object, error)
}

// BlobFetcher retrieves raw container bytes by object id.
type BlobFetcher interface {
	Fetch(ctx context.Context, id uuid.UUID) ([]byte, error)
}

// FileStore opens containers from the local filesystem. Relative references
// are resolved against Root.
type FileStore struct {
	Root string
}

// Open reads and decodes the container at ref.
func (s FileStore) Open(_ context.Context, ref string, opts LoadOptions) (radar.Object, error) {
	path := ref
	if s.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.Root, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return radar.Object{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return radar.Object{}, fmt.Errorf("%w: %s: %w", ErrIO, ref, err)
	}
	return decode(ref, data, opts)
}

// Exists reports whether ref names a readable file.
func (s FileStore) Exists(ref string) bool {
	path := ref
	if s.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.Root, path)
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Resolver opens file paths first and falls back to the object store for
// references that parse as UUIDs.
type Resolver struct {
	files  FileStore
	blobs  BlobFetcher
	logger *slog.Logger
}

// NewResolver creates a resolver. blobs may be nil to disable the object store.
func NewResolver(files FileStore, blobs BlobFetcher, logger *slog.Logger) *Resolver {
	return &Resolver{files: files, blobs: blobs, logger: logger}
}

// Open resolves ref and decodes the object.
func (r *Resolver) Open(ctx context.Context, ref string, opts LoadOptions) (radar.Object, error) {
	if r.files.Exists(ref) {
		return r.files.Open(ctx, ref, opts)
	}
	id, err := uuid.Parse(ref)
	if err != nil || r.blobs == nil {
		return radar.Object{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	r.logger.Debug("fetching object from object store", "ref", ref)
	data, err := r.blobs.Fetch(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return radar.Object{}, err
		}
		return radar.Object{}, fmt.Errorf("%w: %s: %w", ErrIO, ref, err)
	}
	return decode(ref, data, opts)
}

func decode(ref string, data []byte, opts LoadOptions) (radar.Object, error) {
	c, err := container.Decode(bytes.NewReader(data))
	if err != nil {
		return radar.Object{}, fmt.Errorf("%w: %s: %w", ErrIO, ref, err)
	}
	obj := c.Object
	if obj.IsPolar() {
		if err := obj.Validate(); err != nil {
			return radar.Object{}, fmt.Errorf("%w: %s: %w", ErrIO, ref, err)
		}
	}
	if opts.Quantity != "" {
		for _, s := range obj.Scans() {
			s.KeepOnly(opts.Quantity)
		}
	}
	return obj, nil
}
