// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownExtension means the host asked for an extension that was never registered.
	ErrUnknownExtension = errors.New("unknown extension")
	// ErrUnknownOpcode means the host asked for a block the manifest does not declare.
	ErrUnknownOpcode = errors.New("unknown opcode")
	// ErrUnexpectedArgument is returned for input keys the block does not declare.
	ErrUnexpectedArgument = errors.New("unexpected argument")
	// ErrCoercion is returned when an input cannot be converted to the declared type.
	ErrCoercion = errors.New("argument coercion failed")
	// ErrHandlerPanic wraps a panic recovered from a handler.
	ErrHandlerPanic = errors.New("handler panicked")
	// ErrResultType is returned when a handler reports a value unfit for its block type.
	ErrResultType = errors.New("invalid handler result")
)

// InvocationError is a failure local to one block invocation.
type InvocationError struct {
	InvocationID string
	Extension    string
	Opcode       string
	Err          error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("block '%s.%s' failed (invocation %s): %v", e.Extension, e.Opcode, e.InvocationID, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
