// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package block

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidDescriptor marks structural problems: empty ids, unknown types.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
	// ErrDuplicateOpcode is reported when two blocks share an opcode.
	ErrDuplicateOpcode = errors.New("duplicate opcode")
	// ErrUnboundPlaceholder is reported for a [TOKEN] with no argument spec.
	ErrUnboundPlaceholder = errors.New("placeholder without argument")
	// ErrUnusedArgument is reported for an argument spec not used in the text.
	ErrUnusedArgument = errors.New("argument without placeholder")
	// ErrDefaultType is reported when a default does not have the declared type.
	ErrDefaultType = errors.New("default value type mismatch")
)

// ManifestError collects every problem found in a manifest.
type ManifestError struct {
	Extension string
	Problems  []error
}

func (e *ManifestError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("manifest for extension '%s' is invalid:\n- %s", e.Extension, strings.Join(msgs, "\n- "))
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *ManifestError) Unwrap() []error {
	return e.Problems
}
