// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package hclutil holds small helpers shared by the HCL manifest parsers.
package hclutil

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/blockext/internal/block"
	"github.com/zclconf/go-cty/cty"
)

// Keyword reads a bare identifier such as `string` or `reporter` from an
// expression. Quoted strings and compound expressions are rejected.
func Keyword(expr hcl.Expression, attrName string) (string, hcl.Diagnostics) {
	traversal, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() || len(traversal) != 1 || traversal.RootName() == "" {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid " + attrName + " specification",
			Detail:   fmt.Sprintf("The '%s' attribute must be a bare keyword like 'string' or 'command', not a quoted string or expression.", attrName),
			Subject:  expr.Range().Ptr(),
		}}
	}
	return traversal.RootName(), nil
}

// ArgumentType converts an expression like `number` into its cty.Type.
func ArgumentType(expr hcl.Expression) (cty.Type, hcl.Diagnostics) {
	name, diags := Keyword(expr, "type")
	if diags.HasErrors() {
		return cty.NilType, diags
	}

	ty, err := block.ParseArgumentType(name)
	if err != nil {
		return cty.NilType, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported type",
			Detail:   fmt.Sprintf("The keyword '%s' is not a valid argument type. Supported types are: string, number, boolean.", name),
			Subject:  expr.Range().Ptr(),
		}}
	}
	return ty, nil
}

// BlockType converts an expression like `reporter` into a block.Type.
func BlockType(expr hcl.Expression) (block.Type, hcl.Diagnostics) {
	name, diags := Keyword(expr, "type")
	if diags.HasErrors() {
		return "", diags
	}

	bt, err := block.ParseType(name)
	if err != nil {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported block type",
			Detail:   fmt.Sprintf("The keyword '%s' is not a valid block type. Supported types are: command, reporter, boolean, hat.", name),
			Subject:  expr.Range().Ptr(),
		}}
	}
	return bt, nil
}
