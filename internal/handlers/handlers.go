// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package handlers holds the Go side of an extension: one tagged handler per
// opcode, plus the decoding of a resolved argument record into the typed
// input a handler asks for.
package handlers

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/specialistvlad/blockext/internal/block"
)

// Kind tags the variant of a RegisteredHandler.
type Kind string

const (
	// KindCommand handlers perform a side effect and report nothing.
	KindCommand Kind = "command"
	// KindReporter handlers report one primitive value.
	KindReporter Kind = "reporter"
	// KindPredicate handlers report a bool; they serve boolean and hat blocks.
	KindPredicate Kind = "predicate"
)

// Accepts reports whether a handler of this kind may serve blocks of type t.
func (k Kind) Accepts(t block.Type) bool {
	switch k {
	case KindCommand:
		return t == block.Command
	case KindReporter:
		return t == block.Reporter
	case KindPredicate:
		return t == block.Boolean || t == block.Hat
	}
	return false
}

// Handlers holds all the registered handlers of one extension, keyed by opcode.
type Handlers struct {
	all map[string]*RegisteredHandler
}

// New creates and initializes an empty handler table.
func New() *Handlers {
	return &Handlers{
		all: make(map[string]*RegisteredHandler),
	}
}

// RegisterHandler binds a handler to an opcode. Tables are assembled in code,
// so registering an opcode twice is a programming error and panics.
func (h *Handlers) RegisterHandler(opcode string, handler *RegisteredHandler) {
	if handler == nil {
		panic(fmt.Sprintf("handler for opcode '%s' is nil", opcode))
	}
	if _, exists := h.all[opcode]; exists {
		panic(fmt.Sprintf("handler for opcode '%s' already registered", opcode))
	}
	slog.Debug("Registering block handler.", "opcode", opcode, "kind", handler.Kind)
	h.all[opcode] = handler
}

// Lookup returns the handler bound to opcode.
func (h *Handlers) Lookup(opcode string) (*RegisteredHandler, bool) {
	handler, ok := h.all[opcode]
	return handler, ok
}

// Opcodes returns the bound opcodes in sorted order.
func (h *Handlers) Opcodes() []string {
	ops := make([]string, 0, len(h.all))
	for op := range h.all {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// Clone returns a table holding the same handlers. Registering into the
// clone leaves h untouched.
func (h *Handlers) Clone() *Handlers {
	if h == nil {
		return nil
	}
	out := &Handlers{all: make(map[string]*RegisteredHandler, len(h.all))}
	for op, handler := range h.all {
		out.all[op] = handler
	}
	return out
}

// Len returns the number of bound opcodes.
func (h *Handlers) Len() int {
	return len(h.all)
}

// inputTypeOf returns the reflect.Type of a handler input, or nil when the
// handler consumes the raw Args record.
func inputTypeOf[In any]() reflect.Type {
	t := reflect.TypeOf((*In)(nil)).Elem()
	if t == reflect.TypeOf(Args(nil)) {
		return nil
	}
	return t
}
