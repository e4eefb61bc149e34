// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/blockext/internal/block"
	"github.com/specialistvlad/blockext/internal/definition"
	"github.com/specialistvlad/blockext/internal/output"
	"github.com/specialistvlad/blockext/internal/scriptext"
	"gopkg.in/yaml.v3"
)

// Describe writes the manifest of extension id, or of every registered
// extension when id is empty, in the configured output format.
func (a *App) Describe(w io.Writer, id string) error {
	if id == "" {
		return a.writeManifests(w, a.registry.Extensions())
	}
	entry, ok := a.registry.Get(id)
	if !ok {
		return fmt.Errorf("extension '%s' is not registered", id)
	}
	return a.writeValue(w, entry.Manifest())
}

// DescribeFile parses and validates a definition file without registering
// it. HCL (.hcl), directive (.ext) and script (.js) files are supported.
func (a *App) DescribeFile(w io.Writer, path string) error {
	var manifests []*block.Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		ms, err := definition.LoadFile(a.ctx, path)
		if err != nil {
			return err
		}
		manifests = ms
	case ".ext":
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read definition file %s: %w", path, err)
		}
		ms, err := definition.ParseDirectives(string(src))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		manifests = ms
	case ".js":
		caps := a.caps
		caps.Output = output.Discard
		ext, err := scriptext.LoadFile(caps, path)
		if err != nil {
			return err
		}
		manifests = []*block.Manifest{ext.Manifest()}
	default:
		return fmt.Errorf("unsupported definition file %s: expected .hcl, .ext or .js", path)
	}
	return a.writeManifests(w, manifests)
}

func (a *App) writeManifests(w io.Writer, manifests []*block.Manifest) error {
	if manifests == nil {
		manifests = []*block.Manifest{}
	}
	return a.writeValue(w, manifests)
}

func (a *App) writeValue(w io.Writer, v any) error {
	if a.config.OutputFormat == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
