package node

import (
	"testing"

	"github.com/flowgraph/portgraph/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "simple", id: "slider-1"},
		{name: "underscore", id: "filter_add"},
		{name: "empty", id: "", wantErr: true},
		{name: "dotted", id: "a.b", wantErr: true},
		{name: "space", id: "a b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidNodeID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, n.ID())
		})
	}
}

func TestAddPort(t *testing.T) {
	n, err := New("n1")
	require.NoError(t, err)

	in, err := n.NewPort(port.Input("in", "number"))
	require.NoError(t, err)
	out, err := n.NewPort(port.Output("out", "number"))
	require.NoError(t, err)

	assert.Equal(t, "n1.in", in.String())
	assert.Same(t, n, in.Owner())

	got, err := n.InputPort("in")
	require.NoError(t, err)
	assert.Same(t, in, got)

	got, err = n.OutputPort("out")
	require.NoError(t, err)
	assert.Same(t, out, got)

	_, err = n.OutputPort("in")
	assert.ErrorIs(t, err, ErrPortNotFound)
	_, err = n.InputPort("missing")
	assert.ErrorIs(t, err, ErrPortNotFound)

	// an input and an output may share a name
	_, err = n.NewPort(port.Output("in", "number"))
	assert.NoError(t, err)

	_, err = n.NewPort(port.Input("in", "string"))
	assert.ErrorIs(t, err, ErrDuplicatePort)

	assert.ErrorIs(t, n.AddPort(nil), ErrNilPort)
}

func TestPorts_Ordered(t *testing.T) {
	n, err := New("n1")
	require.NoError(t, err)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := n.NewPort(port.Input(name, "any"))
		require.NoError(t, err)
	}

	var names []string
	for _, p := range n.InputPorts() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
	assert.Empty(t, n.OutputPorts())
}

func TestOnReady_Idempotent(t *testing.T) {
	n, err := New("n1")
	require.NoError(t, err)

	calls := 0
	n.AddOnReadyListener(func() { calls++ })
	assert.False(t, n.IsReady())
	assert.Equal(t, 0, calls)

	n.OnReady()
	n.OnReady()
	assert.True(t, n.IsReady())
	assert.Equal(t, 1, calls)

	late := 0
	n.AddOnReadyListener(func() { late++ })
	assert.Equal(t, 1, late)
}

func TestOnDestroy(t *testing.T) {
	n, err := New("n1")
	require.NoError(t, err)
	in, err := n.NewPort(port.Input("in", "number"))
	require.NoError(t, err)
	out, err := n.NewPort(port.Output("out", "number"))
	require.NoError(t, err)
	n.OnReady()

	n.OnDestroy()

	assert.False(t, n.IsReady())
	assert.True(t, in.IsDestroyed())
	assert.True(t, out.IsDestroyed())
	assert.Empty(t, n.InputPorts())
	assert.Empty(t, n.OutputPorts())

	// ready can fire again after a destroy
	calls := 0
	n.AddOnReadyListener(func() { calls++ })
	n.OnReady()
	assert.Equal(t, 1, calls)
}
