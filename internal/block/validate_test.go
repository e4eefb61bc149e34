package block

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func sampleManifest() *Manifest {
	return &Manifest{
		ID:   "sampleextension",
		Name: "Sample Extension",
		Blocks: []Descriptor{
			{
				Opcode: "sayHello",
				Type:   Command,
				Text:   "say hello [NAME]",
				Arguments: map[string]ArgumentSpec{
					"NAME": {Name: "NAME", Type: cty.String, Default: cty.StringVal("world")},
				},
			},
			{
				Opcode: "getDouble",
				Type:   Reporter,
				Text:   "double of [NUM]",
				Arguments: map[string]ArgumentSpec{
					"NUM": {Name: "NUM", Type: cty.Number, Default: cty.NumberIntVal(10)},
				},
			},
		},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("Success: well-formed manifest", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, Validate(sampleManifest()))
	})

	t.Run("Success: block without arguments", func(t *testing.T) {
		t.Parallel()
		m := &Manifest{ID: "x", Name: "X", Blocks: []Descriptor{{Opcode: "ping", Type: Command, Text: "ping"}}}
		require.NoError(t, Validate(m))
	})

	t.Run("Success: argument names outside ASCII", func(t *testing.T) {
		t.Parallel()
		m := &Manifest{ID: "x", Name: "X", Blocks: []Descriptor{{
			Opcode: "value",
			Type:   Reporter,
			Text:   "[名称] 的值",
			Arguments: map[string]ArgumentSpec{
				"名称": {Name: "名称", Type: cty.String, Default: cty.StringVal("")},
			},
		}}}
		require.NoError(t, Validate(m))
	})

	cases := []struct {
		name        string
		mutate      func(m *Manifest)
		sentinel    error
		errContains string
	}{
		{
			name:        "empty extension id",
			mutate:      func(m *Manifest) { m.ID = "" },
			sentinel:    ErrInvalidDescriptor,
			errContains: "extension id must not be empty",
		},
		{
			name: "duplicate opcode",
			mutate: func(m *Manifest) {
				m.Blocks = append(m.Blocks, m.Blocks[0])
			},
			sentinel:    ErrDuplicateOpcode,
			errContains: "block 'sayHello'",
		},
		{
			name:        "placeholder without argument",
			mutate:      func(m *Manifest) { m.Blocks[0].Text = "say [GREETING] to [NAME]" },
			sentinel:    ErrUnboundPlaceholder,
			errContains: "[GREETING]",
		},
		{
			name:        "argument without placeholder",
			mutate:      func(m *Manifest) { m.Blocks[1].Text = "double" },
			sentinel:    ErrUnusedArgument,
			errContains: "'NUM'",
		},
		{
			name: "default of the wrong type",
			mutate: func(m *Manifest) {
				m.Blocks[1].Arguments["NUM"] = ArgumentSpec{Name: "NUM", Type: cty.Number, Default: cty.StringVal("10")}
			},
			sentinel:    ErrDefaultType,
			errContains: "declared 'number' but default is 'string'",
		},
		{
			name: "missing default",
			mutate: func(m *Manifest) {
				m.Blocks[1].Arguments["NUM"] = ArgumentSpec{Name: "NUM", Type: cty.Number}
			},
			sentinel:    ErrDefaultType,
			errContains: "no default value",
		},
		{
			name:        "unknown block type",
			mutate:      func(m *Manifest) { m.Blocks[0].Type = "loop" },
			sentinel:    ErrInvalidDescriptor,
			errContains: "unknown block type 'loop'",
		},
		{
			name: "unsupported argument type",
			mutate: func(m *Manifest) {
				m.Blocks[0].Arguments["NAME"] = ArgumentSpec{Name: "NAME", Type: cty.List(cty.String), Default: cty.ListValEmpty(cty.String)}
			},
			sentinel:    ErrInvalidDescriptor,
			errContains: "unsupported type",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := sampleManifest()
			tc.mutate(m)

			err := Validate(m)
			require.Error(t, err)
			require.ErrorIs(t, err, tc.sentinel)
			require.Contains(t, err.Error(), tc.errContains)

			var merr *ManifestError
			require.True(t, errors.As(err, &merr), "error should be a *ManifestError")
		})
	}

	t.Run("Failure: collects every problem", func(t *testing.T) {
		t.Parallel()
		m := sampleManifest()
		m.Blocks[0].Text = "say hello"
		m.Blocks[1].Text = "double of [NUM] and [OTHER]"

		err := Validate(m)
		var merr *ManifestError
		require.ErrorAs(t, err, &merr)
		require.Len(t, merr.Problems, 2)
		require.ErrorIs(t, err, ErrUnusedArgument)
		require.ErrorIs(t, err, ErrUnboundPlaceholder)
	})
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"A", "B"}, Placeholders("[A] plus [B] plus [A]"))
	require.Equal(t, []string{"NUM"}, Placeholders("[NUM] 的两倍"))
	require.Equal(t, []string{"参数1"}, Placeholders("执行 [参数1] 操作"))
	require.Equal(t, []string{"größe", "név"}, Placeholders("[größe] und [név]"))
	require.Empty(t, Placeholders("no arguments here"))
	require.Empty(t, Placeholders("[not valid-token]"))
}

func TestRender(t *testing.T) {
	t.Parallel()

	got := Render("say [WHAT] to [WHO]", map[string]string{"WHO": "world"})
	require.Equal(t, "say [WHAT] to world", got)
	require.Equal(t, "执行 启动 操作", Render("执行 [参数1] 操作", map[string]string{"参数1": "启动"}))
}

func TestManifest_Clone(t *testing.T) {
	t.Parallel()

	original := sampleManifest()
	clone := original.Clone()

	clone.Blocks[0].Arguments["EXTRA"] = ArgumentSpec{Name: "EXTRA", Type: cty.String, Default: cty.StringVal("")}
	clone.Blocks[1].Opcode = "changed"

	require.NotContains(t, original.Blocks[0].Arguments, "EXTRA")
	require.Equal(t, "getDouble", original.Blocks[1].Opcode)
	require.NoError(t, Validate(original))
}
