// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package print

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/specialistvlad/blockext/internal/ctxlog"
	"github.com/specialistvlad/blockext/internal/extension"
	"github.com/specialistvlad/blockext/internal/handlers"
	"github.com/specialistvlad/blockext/internal/output"
)

const ID = "print"

//go:embed manifest.hcl
var manifest []byte

// TextInput is the argument record of printText.
type TextInput struct {
	Text string `cty:"TEXT"`
}

// PairInput is the argument record of printPair.
type PairInput struct {
	Key   string `cty:"KEY"`
	Value string `cty:"VALUE"`
}

// JoinedInput is the argument record of printJoined.
type JoinedInput struct {
	First  string `cty:"FIRST"`
	Second string `cty:"SECOND"`
	Sep    string `cty:"SEP"`
}

// New builds the print extension. Every block writes one line to the
// output sink.
func New(caps extension.Capabilities) (extension.Extension, error) {
	caps = caps.WithDefaults()
	emit := func(ctx context.Context, opcode, text string) error {
		ctxlog.FromContext(ctx).Debug("Printing input.", "opcode", opcode)
		return caps.Output.Emit(ctx, output.Event{Extension: ID, Opcode: opcode, Text: text})
	}

	h := handlers.New()
	h.RegisterHandler("printText", handlers.Command(func(ctx context.Context, in TextInput) error {
		return emit(ctx, "printText", in.Text)
	}))
	h.RegisterHandler("printPair", handlers.Command(func(ctx context.Context, in PairInput) error {
		return emit(ctx, "printPair", fmt.Sprintf("%s = %q", in.Key, in.Value))
	}))
	h.RegisterHandler("printJoined", handlers.Command(func(ctx context.Context, in JoinedInput) error {
		return emit(ctx, "printJoined", in.First+in.Sep+in.Second)
	}))

	return extension.FromDefinition(caps, manifest, "print/manifest.hcl", h)
}
