package block

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

var ctyComparers = cmp.Options{
	cmp.Comparer(func(a, b cty.Type) bool { return a.Equals(b) }),
	cmp.Comparer(func(a, b cty.Value) bool { return a.RawEquals(b) }),
}

func TestManifest_MarshalJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(sampleManifest())
	require.NoError(t, err)

	want := `{
		"id": "sampleextension",
		"name": "Sample Extension",
		"blocks": [
			{"opcode": "sayHello", "blockType": "command", "text": "say hello [NAME]",
			 "arguments": {"NAME": {"type": "string", "defaultValue": "world"}}},
			{"opcode": "getDouble", "blockType": "reporter", "text": "double of [NUM]",
			 "arguments": {"NUM": {"type": "number", "defaultValue": 10}}}
		]
	}`
	require.JSONEq(t, want, string(data))
}

func TestManifest_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("Success: decodes the editor wire format", func(t *testing.T) {
		t.Parallel()
		src := `{
			"id": "sampleextension",
			"name": "Sample Extension",
			"blocks": [
				{"opcode": "sayHello", "blockType": "command", "text": "say hello [NAME]",
				 "arguments": {"NAME": {"type": "string", "defaultValue": "world"}}},
				{"opcode": "getDouble", "blockType": "reporter", "text": "double of [NUM]",
				 "arguments": {"NUM": {"type": "number", "defaultValue": 10}}}
			]
		}`
		var got Manifest
		require.NoError(t, json.Unmarshal([]byte(src), &got))

		if diff := cmp.Diff(sampleManifest(), &got, ctyComparers); diff != "" {
			t.Errorf("manifest mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Success: defaults are not coerced", func(t *testing.T) {
		t.Parallel()
		src := `{"id": "x", "name": "X", "blocks": [
			{"opcode": "d", "blockType": "reporter", "text": "[NUM]",
			 "arguments": {"NUM": {"type": "number", "defaultValue": "10"}}}]}`
		var got Manifest
		require.NoError(t, json.Unmarshal([]byte(src), &got))
		require.ErrorIs(t, Validate(&got), ErrDefaultType)
	})

	t.Run("Success: missing default becomes the zero value", func(t *testing.T) {
		t.Parallel()
		src := `{"id": "x", "name": "X", "blocks": [
			{"opcode": "flag", "blockType": "Boolean", "text": "[ON]",
			 "arguments": {"ON": {"type": "Boolean"}}}]}`
		var got Manifest
		require.NoError(t, json.Unmarshal([]byte(src), &got))
		require.NoError(t, Validate(&got))
		require.Equal(t, Boolean, got.Blocks[0].Type)
		require.True(t, got.Blocks[0].Arguments["ON"].Default.RawEquals(cty.False))
	})

	t.Run("Failure: unknown argument type", func(t *testing.T) {
		t.Parallel()
		src := `{"id": "x", "name": "X", "blocks": [
			{"opcode": "c", "blockType": "command", "text": "[C]",
			 "arguments": {"C": {"type": "color", "defaultValue": "#ff0000"}}}]}`
		var got Manifest
		err := json.Unmarshal([]byte(src), &got)
		require.Error(t, err)
		require.ErrorIs(t, err, ErrInvalidDescriptor)
		require.Contains(t, err.Error(), "unsupported argument type 'color'")
	})
}

func TestManifest_YAML(t *testing.T) {
	t.Parallel()

	data, err := yaml.Marshal(sampleManifest())
	require.NoError(t, err)
	require.Contains(t, string(data), "opcode: getDouble")
	require.Contains(t, string(data), "defaultValue: 10")

	var got Manifest
	require.NoError(t, yaml.Unmarshal(data, &got))
	if diff := cmp.Diff(sampleManifest(), &got, ctyComparers); diff != "" {
		t.Errorf("manifest mismatch after YAML round trip (-want +got):\n%s", diff)
	}
}

func TestFromNative(t *testing.T) {
	t.Parallel()

	native := map[string]any{
		"id":   "js",
		"name": "Script",
		"blocks": []any{
			map[string]any{
				"opcode":    "half",
				"blockType": "reporter",
				"text":      "half of [N]",
				"arguments": map[string]any{
					"N": map[string]any{"type": "number", "defaultValue": 2.5},
				},
			},
		},
	}

	m, err := FromNative(native)
	require.NoError(t, err)
	require.NoError(t, Validate(m))
	require.True(t, m.Blocks[0].Arguments["N"].Default.RawEquals(cty.NumberFloatVal(2.5)))
}
