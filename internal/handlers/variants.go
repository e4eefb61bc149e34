// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package handlers

import (
	"context"
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Args is a resolved argument record: every declared argument name mapped to
// a value that already has the declared type.
type Args map[string]cty.Value

// RegisteredHandler is one tagged handler variant. Build it with Command,
// Reporter or Predicate.
type RegisteredHandler struct {
	Kind Kind

	// InputType is the struct the record is decoded into, or nil when the
	// handler takes Args directly.
	InputType reflect.Type

	fn func(ctx context.Context, args Args) (cty.Value, error)
}

// Call decodes args and runs the handler. Command handlers report cty.NilVal.
func (h *RegisteredHandler) Call(ctx context.Context, args Args) (cty.Value, error) {
	return h.fn(ctx, args)
}

// Command wraps a side-effecting handler.
func Command[In any](fn func(ctx context.Context, in In) error) *RegisteredHandler {
	return &RegisteredHandler{
		Kind:      KindCommand,
		InputType: inputTypeOf[In](),
		fn: func(ctx context.Context, args Args) (cty.Value, error) {
			in, err := Decode[In](args)
			if err != nil {
				return cty.NilVal, err
			}
			return cty.NilVal, fn(ctx, in)
		},
	}
}

// Reporter wraps a handler that reports one value. Out may be cty.Value or
// any Go type gocty can imply a cty type for.
func Reporter[In, Out any](fn func(ctx context.Context, in In) (Out, error)) *RegisteredHandler {
	return &RegisteredHandler{
		Kind:      KindReporter,
		InputType: inputTypeOf[In](),
		fn: func(ctx context.Context, args Args) (cty.Value, error) {
			in, err := Decode[In](args)
			if err != nil {
				return cty.NilVal, err
			}
			out, err := fn(ctx, in)
			if err != nil {
				return cty.NilVal, err
			}
			return ToCtyValue(out)
		},
	}
}

// Predicate wraps a handler for boolean and hat blocks.
func Predicate[In any](fn func(ctx context.Context, in In) (bool, error)) *RegisteredHandler {
	return &RegisteredHandler{
		Kind:      KindPredicate,
		InputType: inputTypeOf[In](),
		fn: func(ctx context.Context, args Args) (cty.Value, error) {
			in, err := Decode[In](args)
			if err != nil {
				return cty.NilVal, err
			}
			ok, err := fn(ctx, in)
			if err != nil {
				return cty.NilVal, err
			}
			return cty.BoolVal(ok), nil
		},
	}
}

// Decode converts a record into the handler's input. Struct inputs name their
// fields with `cty:"NAME"` tags and must cover the record exactly.
func Decode[In any](args Args) (In, error) {
	var in In
	if p, ok := any(&in).(*Args); ok {
		*p = args
		return in, nil
	}

	obj := cty.EmptyObjectVal
	if len(args) > 0 {
		obj = cty.ObjectVal(args)
	}
	if err := gocty.FromCtyValue(obj, &in); err != nil {
		return in, fmt.Errorf("cannot decode arguments into %T: %w", in, err)
	}
	return in, nil
}

// ToCtyValue converts a native Go value into its corresponding cty.Value.
func ToCtyValue(v any) (cty.Value, error) {
	switch tv := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return tv, nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}
