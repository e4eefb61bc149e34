// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/blockext/internal/block"
	"github.com/specialistvlad/blockext/internal/ctxlog"
	"github.com/specialistvlad/blockext/internal/extension"
	"github.com/specialistvlad/blockext/internal/handlers"
)

var (
	// ErrDuplicateExtension is returned when an id is registered twice.
	ErrDuplicateExtension = errors.New("extension already registered")
	// ErrHandlerMismatch is returned when a manifest and its handler table disagree.
	ErrHandlerMismatch = errors.New("handler table does not match manifest")
)

// Entry is the registered snapshot of one extension. It owns private copies
// of the manifest and handler table.
type Entry struct {
	manifest *block.Manifest
	handlers *handlers.Handlers
}

// Manifest returns a copy of the registered manifest.
func (e *Entry) Manifest() *block.Manifest {
	return e.manifest.Clone()
}

// Block returns the descriptor and handler bound to opcode.
func (e *Entry) Block(opcode string) (block.Descriptor, *handlers.RegisteredHandler, bool) {
	d, ok := e.manifest.Block(opcode)
	if !ok {
		return block.Descriptor{}, nil, false
	}
	h, ok := e.handlers.Lookup(opcode)
	return d, h, ok
}

// Registry holds every accepted extension for a single application instance.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	extensions map[string]*Entry
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		extensions: make(map[string]*Entry),
	}
}

// Register validates ext and makes it available for dispatch. A rejected
// extension leaves the registry unchanged.
func (r *Registry) Register(ctx context.Context, ext extension.Extension) error {
	logger := ctxlog.FromContext(ctx)

	manifest := ext.Manifest().Clone()
	if err := block.Validate(manifest); err != nil {
		logger.Error("Extension rejected: invalid manifest.", "error", err)
		return err
	}
	logger = logger.With("extension", manifest.ID)

	table := ext.Handlers().Clone()
	if err := ValidateHandlers(ctx, manifest, table); err != nil {
		logger.Error("Extension rejected: handler table mismatch.", "error", err)
		return fmt.Errorf("extension '%s': %w", manifest.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.extensions[manifest.ID]; exists {
		logger.Error("Extension rejected: id already in use.")
		return fmt.Errorf("extension '%s': %w", manifest.ID, ErrDuplicateExtension)
	}
	r.extensions[manifest.ID] = &Entry{manifest: manifest, handlers: table}

	logger.Info("Extension registered.", "name", manifest.Name, "blocks", len(manifest.Blocks))
	return nil
}

// Get returns the entry registered under id.
func (r *Registry) Get(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extensions[id]
	return e, ok
}

// Extensions returns copies of every registered manifest, ordered by id.
func (r *Registry) Extensions() []*block.Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*block.Manifest, 0, len(r.extensions))
	for _, e := range r.extensions {
		out = append(out, e.Manifest())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered extensions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.extensions)
}
