// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package dispatch

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/blockext/internal/block"
	"github.com/specialistvlad/blockext/internal/ctxlog"
	"github.com/specialistvlad/blockext/internal/handlers"
	"github.com/specialistvlad/blockext/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Result is the outcome of a completed invocation.
type Result struct {
	InvocationID string
	Extension    string
	Opcode       string
	Type         block.Type
	// Text is the block's display text with every placeholder filled in.
	Text string

	// Value is the reported value; cty.NilVal for command blocks.
	Value    cty.Value
	Duration time.Duration
}

// Native returns the reported value as a plain Go value, or nil for commands.
func (r *Result) Native() (any, error) {
	if r.Value == cty.NilVal {
		return nil, nil
	}
	return block.ToNative(r.Value)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics records every invocation in m.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithIDGenerator replaces the invocation id generator.
func WithIDGenerator(fn func() string) Option {
	return func(d *Dispatcher) { d.newID = fn }
}

// Dispatcher routes invocations to registered handlers. It holds no
// per-invocation state and is safe for concurrent use.
type Dispatcher struct {
	registry *registry.Registry
	metrics  *Metrics
	newID    func() string
}

// New creates a dispatcher over reg.
func New(reg *registry.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Invoke runs one block. Unknown extensions and opcodes are integrity errors
// on the caller's side; everything that goes wrong after the block is found
// is returned as an *InvocationError.
func (d *Dispatcher) Invoke(ctx context.Context, extensionID, opcode string, inputs map[string]cty.Value) (*Result, error) {
	return d.invoke(ctx, extensionID, opcode, func() (map[string]cty.Value, error) {
		return inputs, nil
	})
}

// InvokeNative is Invoke for inputs given as plain Go values. A value with no
// primitive form fails the invocation like any other coercion error.
func (d *Dispatcher) InvokeNative(ctx context.Context, extensionID, opcode string, raw map[string]any) (*Result, error) {
	return d.invoke(ctx, extensionID, opcode, func() (map[string]cty.Value, error) {
		return NativeInputs(raw)
	})
}

func (d *Dispatcher) invoke(ctx context.Context, extensionID, opcode string, inputsFn func() (map[string]cty.Value, error)) (*Result, error) {
	id := d.newID()
	ctx = ctxlog.With(ctx, "invocation_id", id, "extension", extensionID, "opcode", opcode)
	logger := ctxlog.FromContext(ctx)

	entry, ok := d.registry.Get(extensionID)
	if !ok {
		logger.Error("Integrity violation: invocation for an unregistered extension.")
		d.metrics.observe(extensionID, opcode, OutcomeRejected, 0)
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownExtension, extensionID)
	}
	desc, handler, ok := entry.Block(opcode)
	if !ok {
		logger.Error("Integrity violation: invocation for an undeclared opcode.")
		d.metrics.observe(extensionID, opcode, OutcomeRejected, 0)
		return nil, fmt.Errorf("%w: '%s' in extension '%s'", ErrUnknownOpcode, opcode, extensionID)
	}

	fail := func(err error, elapsed time.Duration) (*Result, error) {
		logger.Warn("Block invocation failed.", "error", err)
		d.metrics.observe(extensionID, opcode, OutcomeFailed, elapsed)
		return nil, &InvocationError{InvocationID: id, Extension: extensionID, Opcode: opcode, Err: err}
	}

	inputs, err := inputsFn()
	if err != nil {
		return fail(err, 0)
	}
	args, err := ResolveArguments(desc, inputs)
	if err != nil {
		return fail(err, 0)
	}

	text := displayText(desc, args)
	logger.Debug("Invoking block.", "block_type", desc.Type, "text", text)
	start := time.Now()
	value, err := call(ctx, handler, args)
	elapsed := time.Since(start)
	if err != nil {
		return fail(err, elapsed)
	}
	if value, err = checkResult(desc.Type, value); err != nil {
		return fail(err, elapsed)
	}

	d.metrics.observe(extensionID, opcode, OutcomeCompleted, elapsed)
	logger.Debug("Block invocation completed.", "duration", elapsed)
	return &Result{
		InvocationID: id,
		Extension:    extensionID,
		Opcode:       opcode,
		Type:         desc.Type,
		Text:         text,
		Value:        value,
		Duration:     elapsed,
	}, nil
}

func call(ctx context.Context, h *handlers.RegisteredHandler, args handlers.Args) (value cty.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h.Call(ctx, args)
}

func checkResult(t block.Type, v cty.Value) (cty.Value, error) {
	if !t.Reports() {
		return cty.NilVal, nil
	}
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return cty.NilVal, fmt.Errorf("%w: a %s block must report a value", ErrResultType, t)
	}
	ty := v.Type()
	if t == block.Reporter {
		if ty.Equals(cty.Number) {
			if f, _ := v.AsBigFloat().Float64(); math.IsInf(f, 0) {
				return cty.NilVal, fmt.Errorf("%w: reporter returned a number outside the float64 range", ErrResultType)
			}
		}
		if ty.Equals(cty.String) || ty.Equals(cty.Number) || ty.Equals(cty.Bool) {
			return v, nil
		}
		return cty.NilVal, fmt.Errorf("%w: reporter returned %s, expected string, number or boolean", ErrResultType, ty.FriendlyName())
	}
	if !ty.Equals(cty.Bool) {
		return cty.NilVal, fmt.Errorf("%w: %s block returned %s, expected boolean", ErrResultType, t, ty.FriendlyName())
	}
	return v, nil
}

func displayText(d block.Descriptor, args handlers.Args) string {
	values := make(map[string]string, len(args))
	for name, v := range args {
		n, err := block.ToNative(v)
		if err != nil {
			continue
		}
		values[name] = fmt.Sprint(n)
	}
	return block.Render(d.Text, values)
}
