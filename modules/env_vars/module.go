// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package env_vars

import (
	"context"
	_ "embed"
	"os"
	"strings"

	"github.com/specialistvlad/blockext/internal/extension"
	"github.com/specialistvlad/blockext/internal/handlers"
)

const ID = "env_vars"

//go:embed manifest.hcl
var manifest []byte

// NameInput is the record of blocks that take a variable name.
type NameInput struct {
	Name string `cty:"NAME"`
}

// EqualsInput is the record of whenEnvEquals.
type EqualsInput struct {
	Name  string `cty:"NAME"`
	Value string `cty:"VALUE"`
}

// PrefixInput is the record of countEnv.
type PrefixInput struct {
	Prefix string `cty:"PREFIX"`
}

// New builds the environment extension over the process environment.
func New(caps extension.Capabilities) (extension.Extension, error) {
	return newWithLookup(caps, os.LookupEnv, os.Environ)
}

func newWithLookup(caps extension.Capabilities, lookup func(string) (string, bool), environ func() []string) (extension.Extension, error) {
	h := handlers.New()
	h.RegisterHandler("getEnv", handlers.Reporter(func(ctx context.Context, in NameInput) (string, error) {
		v, _ := lookup(in.Name)
		return v, nil
	}))
	h.RegisterHandler("hasEnv", handlers.Predicate(func(ctx context.Context, in NameInput) (bool, error) {
		_, ok := lookup(in.Name)
		return ok, nil
	}))
	h.RegisterHandler("whenEnvEquals", handlers.Predicate(func(ctx context.Context, in EqualsInput) (bool, error) {
		v, ok := lookup(in.Name)
		return ok && v == in.Value, nil
	}))
	h.RegisterHandler("countEnv", handlers.Reporter(func(ctx context.Context, in PrefixInput) (int, error) {
		n := 0
		for _, e := range environ() {
			pair := strings.SplitN(e, "=", 2)
			if len(pair) == 2 && strings.HasPrefix(pair[0], in.Prefix) {
				n++
			}
		}
		return n, nil
	}))

	return extension.FromDefinition(caps, manifest, "env_vars/manifest.hcl", h)
}
