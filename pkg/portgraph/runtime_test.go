package portgraph

import (
	"context"
	"testing"

	"github.com/flowgraph/portgraph/internal/core/graph"
	"github.com/flowgraph/portgraph/internal/infrastructure/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntime_Load(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	rt := NewRuntime(Config{Logger: logging.Discard(), Registerer: reg})

	slider, err := rt.NewNode("slider", Output("value", "number"))
	require.NoError(t, err)
	label, err := rt.NewNode("label", Input("text", "any"))
	require.NoError(t, err)

	var got []any
	text, err := label.InputPort("text")
	require.NoError(t, err)
	text.AddDataHandler(func(_ context.Context, data PortData, _ SourceType) error {
		got = append(got, data.Value)
		return nil
	})

	err = rt.Load(ctx, Definition{
		ID:          "slider-label",
		Source:      "slider.value",
		Destination: "label.text",
		Filters: []FilterSpec{
			{Type: "clampRange", Config: map[string]any{"min": 0, "max": 100}},
		},
	})
	require.NoError(t, err)
	assert.True(t, slider.IsReady())

	value, err := slider.OutputPort("value")
	require.NoError(t, err)
	require.NoError(t, value.Emit(ctx, 250))
	assert.Equal(t, []any{100.0}, got)

	assert.Equal(t, 1.0, testutil.ToFloat64(rt.metrics.Bindings))
	assert.Equal(t, 3.0, testutil.ToFloat64(rt.metrics.Nodes))

	rt.Unload()
	assert.Empty(t, rt.Graph().NodeIDs())
}

func TestRuntime_LoadStopsAtRejection(t *testing.T) {
	rt := NewRuntime(Config{Logger: logging.Discard()})
	_, err := rt.NewNode("a", Output("out", "number"), Input("in", "number"))
	require.NoError(t, err)

	err = rt.Load(context.Background(),
		Definition{Source: "a.out", Destination: "a.in"},
	)
	assert.ErrorIs(t, err, graph.ErrSelfBinding)

	_, err = rt.NewNode("a")
	assert.ErrorIs(t, err, graph.ErrDuplicateNode)
	_, err = rt.NewNode("b", Input("in", "Not A Type"))
	assert.Error(t, err)
}

func TestRuntime_NotifyDepthReachesPorts(t *testing.T) {
	rt := NewRuntime(Config{Logger: logging.Discard(), NotifyDepth: 12})
	n, err := rt.NewNode("knob", Output("value", "number"))
	require.NoError(t, err)

	value, err := n.OutputPort("value")
	require.NoError(t, err)
	assert.Equal(t, 12, value.NotifyDepth())
}
