// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package extension defines what the host loads: an Extension exposes its
// manifest and its handler table, and is built by a Factory from a narrow set
// of Capabilities rather than from a reference to the host itself.
package extension

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/blockext/internal/block"
	"github.com/specialistvlad/blockext/internal/ctxlog"
	"github.com/specialistvlad/blockext/internal/definition"
	"github.com/specialistvlad/blockext/internal/handlers"
	"github.com/specialistvlad/blockext/internal/output"
)

// Extension is a loaded extension instance.
type Extension interface {
	// Manifest returns the extension's descriptor. It has no side effects and
	// every call returns an equal, independent copy.
	Manifest() *block.Manifest

	// Handlers returns the table binding each opcode to its handler.
	Handlers() *handlers.Handlers
}

// Capabilities is everything the host lends an extension.
type Capabilities struct {
	Output     output.Sink
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// WithDefaults fills unset capabilities with inert or shared defaults.
func (c Capabilities) WithDefaults() Capabilities {
	if c.Output == nil {
		c.Output = output.Discard
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	return c
}

// Factory constructs an extension instance.
type Factory func(caps Capabilities) (Extension, error)

// Static is an Extension whose manifest is fixed at construction.
type Static struct {
	manifest *block.Manifest
	handlers *handlers.Handlers
}

// NewStatic pairs a manifest with its handler table. The manifest is copied,
// so later changes by the caller are not observed.
func NewStatic(m *block.Manifest, h *handlers.Handlers) *Static {
	return &Static{manifest: m.Clone(), handlers: h}
}

// Manifest implements Extension.
func (s *Static) Manifest() *block.Manifest {
	return s.manifest.Clone()
}

// Handlers implements Extension.
func (s *Static) Handlers() *handlers.Handlers {
	return s.handlers
}

// FromDefinition builds a Static extension from an HCL definition that must
// declare exactly one extension.
func FromDefinition(caps Capabilities, src []byte, filename string, h *handlers.Handlers) (*Static, error) {
	caps = caps.WithDefaults()
	ctx := ctxlog.WithLogger(context.Background(), caps.Logger)

	manifests, err := definition.ParseHCL(ctx, src, filename)
	if err != nil {
		return nil, err
	}
	if len(manifests) != 1 {
		return nil, fmt.Errorf("%s: expected exactly one extension definition, found %d", filename, len(manifests))
	}
	return NewStatic(manifests[0], h), nil
}
