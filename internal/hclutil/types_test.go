package hclutil

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/blockext/internal/block"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func parseExpr(t *testing.T, src string) hcl.Expression {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	return expr
}

func TestArgumentType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		want cty.Type
	}{
		{"string", cty.String},
		{"number", cty.Number},
		{"bool", cty.Bool},
		{"boolean", cty.Bool},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			t.Parallel()
			got, diags := ArgumentType(parseExpr(t, tc.src))
			require.False(t, diags.HasErrors())
			require.True(t, got.Equals(tc.want))
		})
	}

	t.Run("Failure: quoted type", func(t *testing.T) {
		t.Parallel()
		_, diags := ArgumentType(parseExpr(t, `"string"`))
		require.True(t, diags.HasErrors())
		require.Contains(t, diags.Error(), "bare keyword")
	})

	t.Run("Failure: unknown keyword", func(t *testing.T) {
		t.Parallel()
		_, diags := ArgumentType(parseExpr(t, "integer"))
		require.True(t, diags.HasErrors())
		require.Contains(t, diags.Error(), "not a valid argument type")
	})
}

func TestBlockType(t *testing.T) {
	t.Parallel()

	got, diags := BlockType(parseExpr(t, "event"))
	require.False(t, diags.HasErrors())
	require.Equal(t, block.Hat, got)

	_, diags = BlockType(parseExpr(t, "loop"))
	require.True(t, diags.HasErrors())
	require.Contains(t, diags.Error(), "not a valid block type")
}
