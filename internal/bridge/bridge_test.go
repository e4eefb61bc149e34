package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/blockext/internal/dispatch"
	"github.com/specialistvlad/blockext/internal/extension"
	"github.com/specialistvlad/blockext/internal/handlers"
	"github.com/specialistvlad/blockext/internal/registry"
	"github.com/stretchr/testify/require"
)

const mathDefinition = `
extension "math" {
	name = "Math"

	block "getDouble" {
		type = reporter
		text = "double of [NUM]"
		argument "NUM" {
			type    = number
			default = 10
		}
	}
}`

func newBridge(t *testing.T) *Bridge {
	t.Helper()
	table := handlers.New()
	table.RegisterHandler("getDouble", handlers.Reporter(func(ctx context.Context, in struct {
		Num float64 `cty:"NUM"`
	}) (float64, error) {
		return in.Num * 2, nil
	}))
	ext, err := extension.FromDefinition(extension.Capabilities{}, []byte(mathDefinition), "math.hcl", table)
	require.NoError(t, err)

	reg := registry.New()
	require.NoError(t, reg.Register(context.Background(), ext))
	return New(reg, dispatch.New(reg))
}

func TestHandleInvoke(t *testing.T) {
	t.Parallel()
	b := newBridge(t)

	testCases := []struct {
		name        string
		req         InvokeRequest
		wantValue   any
		errContains string
	}{
		{
			name:      "defaults",
			req:       InvokeRequest{ID: "1", Extension: "math", Opcode: "getDouble"},
			wantValue: int64(20),
		},
		{
			name:      "json number",
			req:       InvokeRequest{ID: "2", Extension: "math", Opcode: "getDouble", Arguments: map[string]any{"NUM": 2.5}},
			wantValue: int64(5),
		},
		{
			name:        "unknown opcode",
			req:         InvokeRequest{ID: "3", Extension: "math", Opcode: "getTriple"},
			errContains: "unknown opcode",
		},
		{
			name:        "coercion failure",
			req:         InvokeRequest{ID: "4", Extension: "math", Opcode: "getDouble", Arguments: map[string]any{"NUM": "many"}},
			errContains: "argument 'NUM'",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reply := b.HandleInvoke(context.Background(), tc.req)
			require.Equal(t, tc.req.ID, reply.ID)
			if tc.errContains != "" {
				require.Contains(t, reply.Error, tc.errContains)
				require.Nil(t, reply.Value)
				return
			}
			require.Empty(t, reply.Error)
			require.NotEmpty(t, reply.InvocationID)
			require.Equal(t, tc.wantValue, reply.Value)
		})
	}
}

func TestHandleInvoke_FailedInvocationCarriesID(t *testing.T) {
	t.Parallel()
	b := newBridge(t)

	reply := b.HandleInvoke(context.Background(), InvokeRequest{
		ID: "x", Extension: "math", Opcode: "getDouble", Arguments: map[string]any{"OTHER": 1},
	})
	require.Contains(t, reply.Error, "unexpected argument")
	require.NotEmpty(t, reply.InvocationID)
}

func TestManifests(t *testing.T) {
	t.Parallel()
	b := newBridge(t)

	manifests, err := b.Manifests()
	require.NoError(t, err)
	require.Len(t, manifests, 1)

	m := manifests[0].(map[string]any)
	require.Equal(t, "math", m["id"])
	blocks := m["blocks"].([]any)
	require.Len(t, blocks, 1)
	first := blocks[0].(map[string]any)
	require.Equal(t, "reporter", first["blockType"])
	arg := first["arguments"].(map[string]any)["NUM"].(map[string]any)
	require.Equal(t, "number", arg["type"])
	require.Equal(t, 10.0, arg["defaultValue"])
}

func TestDecodeInvokeRequest(t *testing.T) {
	t.Parallel()

	req, err := DecodeInvokeRequest(map[string]any{
		"id":        "7",
		"extension": "math",
		"opcode":    "getDouble",
		"arguments": map[string]any{"NUM": 3.0},
	})
	require.NoError(t, err)
	require.Equal(t, InvokeRequest{ID: "7", Extension: "math", Opcode: "getDouble", Arguments: map[string]any{"NUM": 3.0}}, req)

	_, err = DecodeInvokeRequest(map[string]any{"id": "8", "opcode": "getDouble"})
	require.ErrorContains(t, err, "extension and opcode are required")

	_, err = DecodeInvokeRequest("not an object")
	require.Error(t, err)
}

func TestRun_InvalidURL(t *testing.T) {
	t.Parallel()
	b := newBridge(t)

	err := b.Run(context.Background(), Config{URL: "localhost-without-scheme"})
	require.ErrorContains(t, err, "must include a scheme and host")
}

func TestRun_CancelledBeforeConnect(t *testing.T) {
	t.Parallel()
	b := newBridge(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Run(ctx, Config{URL: "http://127.0.0.1:1", ConnectTimeout: time.Second})
	require.Error(t, err)
}
