// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package definition

import (
	"fmt"
	"regexp"

	"github.com/specialistvlad/blockext/internal/block"
	"github.com/zclconf/go-cty/cty"
)

var (
	extensionDirective = regexp.MustCompile(`(?s)#extension\s+([\p{L}\p{N}_]+)\s+"([^"]+)"(.*?)#endextension`)
	blockDirective     = regexp.MustCompile(`#(block|reporter|boolean|hat)\s+([\p{L}\p{N}_]+)\s+"([^"]+)"`)
)

var directiveTypes = map[string]block.Type{
	"block":    block.Command,
	"reporter": block.Reporter,
	"boolean":  block.Boolean,
	"hat":      block.Hat,
}

// ParseDirectives extracts every #extension ... #endextension section from
// src. Opcodes are namespaced as "<id>_<opcode>" and each placeholder becomes
// a string argument defaulting to "".
func ParseDirectives(src string) ([]*block.Manifest, error) {
	sections := extensionDirective.FindAllStringSubmatch(src, -1)
	if len(sections) == 0 {
		return nil, fmt.Errorf("no #extension section found")
	}

	manifests := make([]*block.Manifest, 0, len(sections))
	for _, sec := range sections {
		m := &block.Manifest{ID: sec[1], Name: sec[2]}
		for _, bm := range blockDirective.FindAllStringSubmatch(sec[3], -1) {
			d := block.Descriptor{
				Opcode:    fmt.Sprintf("%s_%s", m.ID, bm[2]),
				Type:      directiveTypes[bm[1]],
				Text:      bm[3],
				Arguments: make(map[string]block.ArgumentSpec),
			}
			for _, name := range block.Placeholders(d.Text) {
				d.Arguments[name] = block.ArgumentSpec{Name: name, Type: cty.String, Default: cty.StringVal("")}
			}
			m.Blocks = append(m.Blocks, d)
		}
		if err := block.Validate(m); err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}
