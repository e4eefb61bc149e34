package scriptext

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/blockext/internal/block"
	"github.com/specialistvlad/blockext/internal/dispatch"
	"github.com/specialistvlad/blockext/internal/extension"
	"github.com/specialistvlad/blockext/internal/handlers"
	"github.com/specialistvlad/blockext/internal/output"
	"github.com/specialistvlad/blockext/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func loadSample(t *testing.T) (*Extension, *output.Recorder) {
	t.Helper()
	rec := &output.Recorder{}
	ext, err := LoadFile(extension.Capabilities{Output: rec}, "testdata/sample_extension.js")
	require.NoError(t, err)
	return ext, rec
}

func TestLoadFile_Sample(t *testing.T) {
	t.Parallel()

	// --- Act ---
	ext, _ := loadSample(t)
	m := ext.Manifest()

	// --- Assert ---
	require.Equal(t, "sampleextension", m.ID)
	require.Equal(t, "Sample Extension", m.Name)
	require.Equal(t, []string{"sayHello", "getDouble"}, m.Opcodes())

	d, ok := m.Block("getDouble")
	require.True(t, ok)
	require.Equal(t, block.Reporter, d.Type)
	require.True(t, d.Arguments["NUM"].Default.RawEquals(cty.NumberIntVal(10)))

	require.Equal(t, []string{"getDouble", "sayHello"}, ext.Handlers().Opcodes())

	// Manifest calls never share state.
	m.Blocks[0].Opcode = "mutated"
	if diff := cmp.Diff(ext.Manifest().Opcodes(), []string{"sayHello", "getDouble"}); diff != "" {
		t.Errorf("manifest changed through a returned copy (-got +want):\n%s", diff)
	}
}

func TestSample_ThroughDispatcher(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ext, rec := loadSample(t)
	reg := registry.New()
	require.NoError(t, reg.Register(context.Background(), ext))
	d := dispatch.New(reg)

	// --- Act & Assert: reporter ---
	res, err := d.Invoke(context.Background(), "sampleextension", "getDouble", map[string]cty.Value{"NUM": cty.NumberIntVal(10)})
	require.NoError(t, err)
	require.True(t, res.Value.RawEquals(cty.NumberIntVal(20)), "got %#v", res.Value)

	res, err = d.InvokeNative(context.Background(), "sampleextension", "getDouble", map[string]any{"NUM": 1.5})
	require.NoError(t, err)
	native, err := res.Native()
	require.NoError(t, err)
	require.Equal(t, int64(3), native)

	// --- Act & Assert: command ---
	_, err = d.Invoke(context.Background(), "sampleextension", "sayHello", map[string]cty.Value{"NAME": cty.StringVal("world")})
	require.NoError(t, err)
	_, err = d.Invoke(context.Background(), "sampleextension", "sayHello", nil)
	require.NoError(t, err)

	want := []output.Event{
		{Extension: "sampleextension", Opcode: "sayHello", Text: "Hello, world!"},
		{Extension: "sampleextension", Opcode: "sayHello", Text: "Hello, world!"},
	}
	if diff := cmp.Diff(want, rec.Events()); diff != "" {
		t.Errorf("output events mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_PlainObjectExport(t *testing.T) {
	t.Parallel()

	src := `
module.exports = {
	getInfo() {
		return {
			id: 'parity',
			name: 'Parity',
			blocks: [
				{ opcode: 'isOdd', blockType: 'boolean', text: '[N] is odd',
				  arguments: { N: { type: 'number', defaultValue: 1 } } },
				{ opcode: 'whenTrue', blockType: 'hat', text: 'when [FLAG]',
				  arguments: { FLAG: { type: 'boolean', defaultValue: false } } },
			],
		};
	},
	isOdd(args) { return args.N % 2 === 1; },
	whenTrue(args) { return args.FLAG; },
};`
	ext, err := Load(extension.Capabilities{}, []byte(src), "parity.js")
	require.NoError(t, err)

	isOdd, ok := ext.Handlers().Lookup("isOdd")
	require.True(t, ok)
	require.Equal(t, handlers.KindPredicate, isOdd.Kind)

	v, err := isOdd.Call(context.Background(), handlers.Args{"N": cty.NumberIntVal(3)})
	require.NoError(t, err)
	require.True(t, v.True())

	when, ok := ext.Handlers().Lookup("whenTrue")
	require.True(t, ok)
	v, err = when.Call(context.Background(), handlers.Args{"FLAG": cty.False})
	require.NoError(t, err)
	require.False(t, v.True())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	info := `getInfo() { return { id: 'x', name: 'X', blocks: [
		{ opcode: 'go', blockType: 'command', text: 'go', arguments: {} } ] }; }`

	testCases := []struct {
		name        string
		src         string
		sentinel    error
		manifestErr bool
		errContains string
	}{
		{
			name:     "syntax error",
			src:      `module.exports = {`,
			sentinel: ErrScript,
		},
		{
			name:     "nothing exported",
			src:      `var x = 1;`,
			sentinel: ErrNoExport,
		},
		{
			name:        "no getInfo",
			src:         `module.exports = { go() {} };`,
			sentinel:    ErrMissingMethod,
			errContains: "getInfo",
		},
		{
			name:        "no method for opcode",
			src:         `module.exports = { ` + info + ` };`,
			sentinel:    ErrMissingMethod,
			errContains: "opcode 'go'",
		},
		{
			name:        "getInfo throws",
			src:         `module.exports = { getInfo() { throw new Error('no info'); } };`,
			sentinel:    ErrScript,
			errContains: "no info",
		},
		{
			name:        "constructor throws",
			src:         `class E { constructor() { throw new Error('refused'); } }; module.exports = E;`,
			sentinel:    ErrScript,
			errContains: "refused",
		},
		{
			name: "placeholder without argument",
			src: `module.exports = {
				getInfo() { return { id: 'x', name: 'X', blocks: [
					{ opcode: 'go', blockType: 'command', text: 'go [FAR]', arguments: {} } ] }; },
				go() {},
			};`,
			manifestErr: true,
			errContains: "FAR",
		},
		{
			name: "default of the wrong type",
			src: `module.exports = {
				getInfo() { return { id: 'x', name: 'X', blocks: [
					{ opcode: 'go', blockType: 'command', text: 'go [N]',
					  arguments: { N: { type: 'number', defaultValue: '10' } } } ] }; },
				go() {},
			};`,
			manifestErr: true,
		},
		{
			name: "unknown block type",
			src: `module.exports = {
				getInfo() { return { id: 'x', name: 'X', blocks: [
					{ opcode: 'go', blockType: 'loop', text: 'go', arguments: {} } ] }; },
				go() {},
			};`,
			errContains: "loop",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(extension.Capabilities{}, []byte(tc.src), "bad.js")
			require.Error(t, err)
			require.Contains(t, err.Error(), "bad.js")
			if tc.sentinel != nil {
				require.ErrorIs(t, err, tc.sentinel)
			}
			if tc.manifestErr {
				var mErr *block.ManifestError
				require.True(t, errors.As(err, &mErr), "expected a ManifestError, got %v", err)
			}
			if tc.errContains != "" {
				require.Contains(t, err.Error(), tc.errContains)
			}
		})
	}
}

func TestCall_Failures(t *testing.T) {
	t.Parallel()

	src := `
module.exports = {
	getInfo() {
		return { id: 'flaky', name: 'Flaky', blocks: [
			{ opcode: 'boom', blockType: 'command', text: 'boom', arguments: {} },
			{ opcode: 'shape', blockType: 'reporter', text: 'shape', arguments: {} },
			{ opcode: 'maybe', blockType: 'boolean', text: 'maybe', arguments: {} },
			{ opcode: 'spin', blockType: 'command', text: 'spin', arguments: {} },
		] };
	},
	boom() { throw new Error('exploded'); },
	shape() { return { nested: true }; },
	maybe() { return 'yes'; },
	spin() { for (;;) {} },
};`
	ext, err := Load(extension.Capabilities{}, []byte(src), "flaky.js")
	require.NoError(t, err)

	lookup := func(op string) *handlers.RegisteredHandler {
		h, ok := ext.Handlers().Lookup(op)
		require.True(t, ok)
		return h
	}

	_, err = lookup("boom").Call(context.Background(), handlers.Args{})
	require.ErrorIs(t, err, ErrScript)
	require.Contains(t, err.Error(), "exploded")

	_, err = lookup("shape").Call(context.Background(), handlers.Args{})
	require.Error(t, err)

	_, err = lookup("maybe").Call(context.Background(), handlers.Args{})
	require.ErrorContains(t, err, "expected boolean")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = lookup("spin").Call(ctx, handlers.Args{})
	require.ErrorIs(t, err, ErrScript)

	// The VM is usable again after an interrupted call.
	_, err = lookup("boom").Call(context.Background(), handlers.Args{})
	require.ErrorContains(t, err, "exploded")
}

func TestCall_Concurrent(t *testing.T) {
	t.Parallel()

	ext, rec := loadSample(t)
	h, ok := ext.Handlers().Lookup("sayHello")
	require.True(t, ok)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Call(context.Background(), handlers.Args{"NAME": cty.StringVal("gopher")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Len(t, rec.Events(), 16)
}

func TestCall_CancellationDoesNotLeakIntoNextCall(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	src := `
module.exports = {
	getInfo() {
		return { id: 'sum', name: 'Sum', blocks: [
			{ opcode: 'total', blockType: 'reporter', text: 'total', arguments: {} },
		] };
	},
	total() {
		let n = 0;
		for (let i = 0; i < 1000; i++) { n += i; }
		return n;
	},
};`
	ext, err := Load(extension.Capabilities{}, []byte(src), "sum.js")
	require.NoError(t, err)
	h, ok := ext.Handlers().Lookup("total")
	require.True(t, ok)

	for i := 0; i < 200; i++ {
		// --- Act ---
		ctx, cancel := context.WithCancel(context.Background())
		go cancel()
		_, _ = h.Call(ctx, handlers.Args{})
		v, err := h.Call(context.Background(), handlers.Args{})

		// --- Assert ---
		require.NoError(t, err, "iteration %d", i)
		require.True(t, v.Equals(cty.NumberIntVal(499500)).True(), "iteration %d: got %#v", i, v)
		cancel()
	}
}
