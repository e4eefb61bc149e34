// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package definition

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/blockext/internal/block"
	"github.com/specialistvlad/blockext/internal/ctxlog"
	"github.com/specialistvlad/blockext/internal/hclutil"
)

// extensionRootSchema defines the top-level structure of a definition file.
type extensionRootSchema struct {
	Extensions []*hclExtension `hcl:"extension,block"`
}

type hclExtension struct {
	ID   string   `hcl:"id,label"`
	Body hcl.Body `hcl:",remain"`
}

var extensionBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "name", Required: true},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "block", LabelNames: []string{"opcode"}},
	},
}

var blockBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type", Required: true},
		{Name: "text", Required: true},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "argument", LabelNames: []string{"name"}},
	},
}

var argumentBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		// `type` is required, but we check for its existence manually
		// to provide a better error message.
		{Name: "type"},
		{Name: "default"},
	},
}

// LoadFile reads and parses an HCL definition file.
func LoadFile(ctx context.Context, path string) ([]*block.Manifest, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file %s: %w", path, err)
	}
	return ParseHCL(ctx, src, path)
}

// ParseHCL decodes every `extension` block in src. The returned manifests
// have already passed block.Validate.
func ParseHCL(ctx context.Context, src []byte, filename string) ([]*block.Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing extension definitions.", "file", filename)

	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	root := &extensionRootSchema{}
	if diags := gohcl.DecodeBody(file.Body, nil, root); diags.HasErrors() {
		return nil, diags
	}

	var allDiags hcl.Diagnostics
	manifests := make([]*block.Manifest, 0, len(root.Extensions))
	for _, ext := range root.Extensions {
		m, diags := parseExtension(ext)
		allDiags = append(allDiags, diags...)
		if diags.HasErrors() {
			continue
		}
		manifests = append(manifests, m)
	}
	if allDiags.HasErrors() {
		return nil, allDiags
	}

	for _, m := range manifests {
		if err := block.Validate(m); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}

	logger.Debug("Parsed extension definitions.", "file", filename, "count", len(manifests))
	return manifests, nil
}

func parseExtension(ext *hclExtension) (*block.Manifest, hcl.Diagnostics) {
	content, diags := ext.Body.Content(extensionBodySchema)
	if diags.HasErrors() {
		return nil, diags
	}

	m := &block.Manifest{ID: ext.ID}
	diags = append(diags, gohcl.DecodeExpression(content.Attributes["name"].Expr, nil, &m.Name)...)

	for _, blk := range content.Blocks.OfType("block") {
		d, blockDiags := parseBlock(blk)
		diags = append(diags, blockDiags...)
		if blockDiags.HasErrors() {
			continue
		}
		m.Blocks = append(m.Blocks, d)
	}
	return m, diags
}

func parseBlock(blk *hcl.Block) (block.Descriptor, hcl.Diagnostics) {
	d := block.Descriptor{
		Opcode:    blk.Labels[0],
		Arguments: make(map[string]block.ArgumentSpec),
	}

	content, diags := blk.Body.Content(blockBodySchema)
	if diags.HasErrors() {
		return d, diags
	}

	bt, typeDiags := hclutil.BlockType(content.Attributes["type"].Expr)
	diags = append(diags, typeDiags...)
	d.Type = bt
	diags = append(diags, gohcl.DecodeExpression(content.Attributes["text"].Expr, nil, &d.Text)...)

	for _, argBlock := range content.Blocks.OfType("argument") {
		name := argBlock.Labels[0]
		if _, exists := d.Arguments[name]; exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate argument definition",
				Detail:   fmt.Sprintf("An argument named '%s' has already been defined for block '%s'.", name, d.Opcode),
				Subject:  &argBlock.DefRange,
			})
			continue
		}
		spec, argDiags := parseArgument(argBlock)
		diags = append(diags, argDiags...)
		if argDiags.HasErrors() {
			continue
		}
		d.Arguments[name] = spec
	}
	return d, diags
}

func parseArgument(argBlock *hcl.Block) (block.ArgumentSpec, hcl.Diagnostics) {
	name := argBlock.Labels[0]
	spec := block.ArgumentSpec{Name: name}

	content, diags := argBlock.Body.Content(argumentBodySchema)
	if diags.HasErrors() {
		return spec, diags
	}

	typeAttr, exists := content.Attributes["type"]
	if !exists {
		missing := argBlock.Body.MissingItemRange()
		return spec, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing 'type' attribute",
			Detail:   "The 'type' attribute is required for all argument blocks.",
			Subject:  &missing,
		})
	}

	ty, typeDiags := hclutil.ArgumentType(typeAttr.Expr)
	diags = append(diags, typeDiags...)
	if typeDiags.HasErrors() {
		return spec, diags
	}
	spec.Type = ty

	defaultAttr, exists := content.Attributes["default"]
	if !exists {
		spec.Default, _ = block.FromNativeValue(nil, ty)
		return spec, diags
	}

	// A nil eval context is used because defaults must be literal values.
	val, valDiags := defaultAttr.Expr.Value(nil)
	diags = append(diags, valDiags...)
	if valDiags.HasErrors() {
		return spec, diags
	}

	if !val.Type().Equals(ty) {
		return spec, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid default value type",
			Detail:   fmt.Sprintf("The default value for '%s' is not a %s.", name, block.ArgumentTypeName(ty)),
			Subject:  defaultAttr.Expr.Range().Ptr(),
		})
	}
	spec.Default = val
	return spec, diags
}
