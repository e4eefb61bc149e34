// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package block

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// wireManifest is the record exchanged with the editor:
// {id, name, blocks: [{opcode, blockType, text, arguments: {NAME: {type, defaultValue}}}]}.
type wireManifest struct {
	ID     string      `json:"id" yaml:"id"`
	Name   string      `json:"name" yaml:"name"`
	Blocks []wireBlock `json:"blocks" yaml:"blocks"`
}

type wireBlock struct {
	Opcode    string                  `json:"opcode" yaml:"opcode"`
	BlockType string                  `json:"blockType" yaml:"blockType"`
	Text      string                  `json:"text" yaml:"text"`
	Arguments map[string]wireArgument `json:"arguments" yaml:"arguments"`
}

type wireArgument struct {
	Type         string `json:"type" yaml:"type"`
	DefaultValue any    `json:"defaultValue" yaml:"defaultValue"`
}

// MarshalJSON encodes the manifest in the editor's wire format.
func (m Manifest) MarshalJSON() ([]byte, error) {
	w, err := toWire(&m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the editor's wire format. Numbers keep their exact
// textual value and defaults are never converted to the declared type; a
// mismatch is left for Validate to report.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var w wireManifest
	if err := dec.Decode(&w); err != nil {
		return err
	}
	out, err := fromWire(&w)
	if err != nil {
		return err
	}
	*m = *out
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m Manifest) MarshalYAML() (any, error) {
	return toWire(&m)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Manifest) UnmarshalYAML(node *yaml.Node) error {
	var w wireManifest
	if err := node.Decode(&w); err != nil {
		return err
	}
	out, err := fromWire(&w)
	if err != nil {
		return err
	}
	*m = *out
	return nil
}

// FromNative decodes a manifest from plain Go values, as produced by
// exporting a script object (maps, slices, strings, numbers and bools).
func FromNative(v any) (*Manifest, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("manifest is not serialisable: %w", err)
	}
	m := &Manifest{}
	if err := m.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return m, nil
}

func toWire(m *Manifest) (*wireManifest, error) {
	w := &wireManifest{
		ID:     m.ID,
		Name:   m.Name,
		Blocks: make([]wireBlock, 0, len(m.Blocks)),
	}
	for _, b := range m.Blocks {
		wb := wireBlock{
			Opcode:    b.Opcode,
			BlockType: string(b.Type),
			Text:      b.Text,
			Arguments: make(map[string]wireArgument, len(b.Arguments)),
		}
		for name, spec := range b.Arguments {
			def, err := ToNative(spec.Default)
			if err != nil {
				return nil, fmt.Errorf("block '%s', argument '%s': %w", b.Opcode, name, err)
			}
			wb.Arguments[name] = wireArgument{Type: ArgumentTypeName(spec.Type), DefaultValue: def}
		}
		w.Blocks = append(w.Blocks, wb)
	}
	return w, nil
}

func fromWire(w *wireManifest) (*Manifest, error) {
	m := &Manifest{
		ID:     w.ID,
		Name:   w.Name,
		Blocks: make([]Descriptor, 0, len(w.Blocks)),
	}
	for _, wb := range w.Blocks {
		bt, err := ParseType(wb.BlockType)
		if err != nil {
			return nil, fmt.Errorf("block '%s': %w", wb.Opcode, err)
		}
		d := Descriptor{
			Opcode:    wb.Opcode,
			Type:      bt,
			Text:      wb.Text,
			Arguments: make(map[string]ArgumentSpec, len(wb.Arguments)),
		}
		for name, wa := range wb.Arguments {
			ty, err := ParseArgumentType(wa.Type)
			if err != nil {
				return nil, fmt.Errorf("block '%s', argument '%s': %w", wb.Opcode, name, err)
			}
			def, err := FromNativeValue(wa.DefaultValue, ty)
			if err != nil {
				return nil, fmt.Errorf("block '%s', argument '%s': %w", wb.Opcode, name, err)
			}
			d.Arguments[name] = ArgumentSpec{Name: name, Type: ty, Default: def}
		}
		m.Blocks = append(m.Blocks, d)
	}
	return m, nil
}

// ToNative converts a primitive cty value into a plain Go value. Integral
// numbers become int64, other numbers float64.
func ToNative(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	switch ty := v.Type(); {
	case ty.Equals(cty.String):
		return v.AsString(), nil
	case ty.Equals(cty.Bool):
		return v.True(), nil
	case ty.Equals(cty.Number):
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported value type '%s'", ty.FriendlyName())
	}
}

// FromNativeValue converts a decoded default into a cty value using the
// value's own type. A nil value yields the zero value of declared.
func FromNativeValue(v any, declared cty.Type) (cty.Value, error) {
	switch tv := v.(type) {
	case nil:
		return zeroValue(declared), nil
	case string:
		return cty.StringVal(tv), nil
	case bool:
		return cty.BoolVal(tv), nil
	case json.Number:
		return cty.ParseNumberVal(tv.String())
	case int:
		return cty.NumberIntVal(int64(tv)), nil
	case int64:
		return cty.NumberIntVal(tv), nil
	case uint64:
		return cty.NumberUIntVal(tv), nil
	case float64:
		return cty.NumberFloatVal(tv), nil
	default:
		return cty.NilVal, fmt.Errorf("%w: unsupported default value %T", ErrDefaultType, v)
	}
}

func zeroValue(t cty.Type) cty.Value {
	switch {
	case t.Equals(cty.Number):
		return cty.Zero
	case t.Equals(cty.Bool):
		return cty.False
	default:
		return cty.StringVal("")
	}
}
