package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewBuiltinRegistry()
	assert.Equal(t, []Kind{
		KindAdd, KindClampRange, KindGate, KindInvert, KindLowPass, KindMultiply, KindOffset,
	}, r.Kinds())

	_, err := r.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownFilter)

	err = r.Register(Builtins()[0])
	assert.ErrorIs(t, err, ErrDuplicateFilter)

	err = r.Register(Manifest{Kind: "broken"})
	assert.ErrorIs(t, err, ErrInvalidManifest)

	err = r.Register(Manifest{Kind: "9lives", New: func(map[string]any) (Filter, error) { return &invert{}, nil }})
	assert.ErrorIs(t, err, ErrInvalidManifest)

	isolated := NewRegistry()
	assert.Empty(t, isolated.Kinds())
	_, err = isolated.Create(KindAdd, nil)
	assert.ErrorIs(t, err, ErrUnknownFilter)
}

func TestCreate_Config(t *testing.T) {
	r := NewBuiltinRegistry()

	tests := []struct {
		name    string
		kind    Kind
		cfg     map[string]any
		wantErr bool
	}{
		{name: "add int value", kind: KindAdd, cfg: map[string]any{"value": 10}},
		{name: "add float value", kind: KindAdd, cfg: map[string]any{"value": 2.5}},
		{name: "add unknown key", kind: KindAdd, cfg: map[string]any{"amount": 1}, wantErr: true},
		{name: "add non-numeric", kind: KindAdd, cfg: map[string]any{"value": "ten"}, wantErr: true},
		{name: "clamp defaults", kind: KindClampRange},
		{name: "clamp inverted bounds", kind: KindClampRange, cfg: map[string]any{"min": 5, "max": 1}, wantErr: true},
		{name: "gate positive", kind: KindGate, cfg: map[string]any{"condition": "positive"}},
		{name: "gate bad condition", kind: KindGate, cfg: map[string]any{"condition": "odd"}, wantErr: true},
		{name: "low-pass alpha zero", kind: KindLowPass, cfg: map[string]any{"alpha": 0}, wantErr: true},
		{name: "low-pass alpha above one", kind: KindLowPass, cfg: map[string]any{"alpha": 1.5}, wantErr: true},
		{name: "invert takes no config", kind: KindInvert, cfg: map[string]any{"x": 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := r.Create(tt.kind, tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, f.Kind())
		})
	}
}

func TestForward(t *testing.T) {
	r := NewBuiltinRegistry()

	tests := []struct {
		name string
		kind Kind
		cfg  map[string]any
		in   any
		want any
	}{
		{name: "invert zero", kind: KindInvert, in: 0, want: 1.0},
		{name: "invert nonzero", kind: KindInvert, in: 3.2, want: 0.0},
		{name: "invert bool", kind: KindInvert, in: true, want: 0.0},
		{name: "add", kind: KindAdd, cfg: map[string]any{"value": 10}, in: 5, want: 15.0},
		{name: "multiply", kind: KindMultiply, cfg: map[string]any{"factor": 3}, in: int64(4), want: 12.0},
		{name: "multiply default factor", kind: KindMultiply, in: 7, want: 7.0},
		{name: "clamp below", kind: KindClampRange, cfg: map[string]any{"min": -1, "max": 1}, in: -4, want: -1.0},
		{name: "clamp above", kind: KindClampRange, cfg: map[string]any{"min": -1, "max": 1}, in: 4, want: 1.0},
		{name: "clamp inside", kind: KindClampRange, cfg: map[string]any{"min": -1, "max": 1}, in: 0.25, want: 0.25},
		{name: "offset", kind: KindOffset, cfg: map[string]any{"value": 3}, in: 10, want: 13.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := r.Create(tt.kind, tt.cfg)
			require.NoError(t, err)
			got, ok, err := f.Forward(tt.in)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForward_NonNumeric(t *testing.T) {
	f, err := newAdd(nil)
	require.NoError(t, err)
	_, _, err = f.Forward("five")
	assert.ErrorIs(t, err, ErrNonNumeric)
}

func TestAdd_Operand(t *testing.T) {
	f, err := newAdd(map[string]any{"value": 10})
	require.NoError(t, err)

	require.NoError(t, f.SetSide("operand", 1))
	got, _, err := f.Forward(5)
	require.NoError(t, err)
	assert.Equal(t, 6.0, got)

	assert.ErrorIs(t, f.SetSide("factor", 1), ErrUnknownSide)
	assert.ErrorIs(t, f.SetSide("operand", "x"), ErrNonNumeric)
}

func TestGate(t *testing.T) {
	tests := []struct {
		condition string
		side      any
		pass      bool
	}{
		{ConditionNonZero, 0, false},
		{ConditionNonZero, 2, true},
		{ConditionPositive, -1, false},
		{ConditionPositive, 0.1, true},
		{ConditionNegative, 1, false},
		{ConditionNegative, -3, true},
	}

	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			g, err := newGate(map[string]any{"condition": tt.condition})
			require.NoError(t, err)

			_, ok, err := g.Forward("payload")
			require.NoError(t, err)
			assert.False(t, ok, "closed until a condition arrives")

			require.NoError(t, g.SetSide("condition", tt.side))
			out, ok, err := g.Forward("payload")
			require.NoError(t, err)
			assert.Equal(t, tt.pass, ok)
			if ok {
				assert.Equal(t, "payload", out)
			}
		})
	}
}

func TestLowPass(t *testing.T) {
	l, err := newLowPass(map[string]any{"alpha": 0.5})
	require.NoError(t, err)

	for _, step := range []struct{ in, want float64 }{
		{in: 10, want: 10},
		{in: 20, want: 15},
		{in: 0, want: 7.5},
	} {
		got, ok, err := l.Forward(step.in)
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, step.want, got, 1e-9)
	}
}

func TestShape(t *testing.T) {
	add, err := newAdd(nil)
	require.NoError(t, err)
	s, err := add.Shape("number.integer")
	require.NoError(t, err)
	assert.Equal(t, "number.integer", s.Input.Type)
	assert.Equal(t, TypeNumber, s.Output.Type)
	require.Len(t, s.Extra, 1)
	assert.Equal(t, "operand", s.Extra[0].Name)

	g, err := newGate(nil)
	require.NoError(t, err)
	s, err = g.Shape("color")
	require.NoError(t, err)
	assert.Equal(t, "color", s.Output.Type)

	o, err := newOffset(nil)
	require.NoError(t, err)
	_, err = o.Shape("string")
	assert.ErrorIs(t, err, ErrIncompatibleUpstream)
	_, err = o.Shape("number.integer")
	assert.NoError(t, err)
	_, err = o.Shape("any")
	assert.NoError(t, err)
}
