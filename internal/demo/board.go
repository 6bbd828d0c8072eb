// Package demo assembles a small board used by the binaries: a slider
// driving a display through an offset, and a noisy sensor smoothed, scaled
// and clamped into a gauge that only updates while a switch is on.
package demo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/flowgraph/portgraph/pkg/portgraph"
)

// Bindings loaded by Load.
var Bindings = []portgraph.Definition{
	{
		ID:          "slider-display",
		Source:      "slider.value",
		Destination: "display.value",
		Filters:     []portgraph.FilterSpec{{Type: "offset", Config: map[string]any{"value": 3}}},
	},
	{
		ID:          "sensor-gauge",
		Source:      "sensor.reading",
		Destination: "gauge.level",
		Filters: []portgraph.FilterSpec{
			{Type: "lowPass", Config: map[string]any{"alpha": 0.3}},
			{Type: "multiply", Config: map[string]any{"factor": 10}},
			{Type: "clampRange", Config: map[string]any{"min": 0, "max": 100}},
			{Type: "gate", Config: map[string]any{"condition": "nonzero"}},
		},
	},
}

// Board holds the widget nodes of the demo.
type Board struct {
	rt     *portgraph.Runtime
	logger *slog.Logger

	slider  *portgraph.Port
	sensor  *portgraph.Port
	power   *portgraph.Port
	display *portgraph.Port
	gauge   *portgraph.Port

	mu   sync.Mutex
	last map[string]any
}

// Load creates the widgets on rt, loads the bindings and wires the switch
// into the gate's condition input.
func Load(ctx context.Context, rt *portgraph.Runtime, logger *slog.Logger) (*Board, error) {
	b := &Board{rt: rt, logger: logger, last: make(map[string]any)}

	var err error
	if b.slider, err = b.widget("slider", portgraph.Output("value", "number")); err != nil {
		return nil, err
	}
	if b.sensor, err = b.widget("sensor", portgraph.Output("reading", "number.float")); err != nil {
		return nil, err
	}
	if b.power, err = b.widget("power", portgraph.Output("on", "boolean")); err != nil {
		return nil, err
	}
	if b.display, err = b.widget("display", portgraph.Input("value", "number")); err != nil {
		return nil, err
	}
	if b.gauge, err = b.widget("gauge", portgraph.Input("level", "number")); err != nil {
		return nil, err
	}

	b.display.AddDataHandler(b.record("display"))
	b.gauge.AddDataHandler(b.record("gauge"))

	if err := rt.Load(ctx, Bindings...); err != nil {
		return nil, fmt.Errorf("load demo board: %w", err)
	}

	gated, ok := rt.Graph().Binding("sensor-gauge")
	if !ok {
		return nil, fmt.Errorf("load demo board: sensor-gauge binding missing")
	}
	chain := gated.Filters()
	condition := chain[len(chain)-1].ID() + ".condition"
	if err := rt.Load(ctx, portgraph.Definition{ID: "power-gate", Source: "power.on", Destination: condition}); err != nil {
		return nil, fmt.Errorf("load demo board: %w", err)
	}
	return b, nil
}

func (b *Board) widget(id string, desc portgraph.Descriptor) (*portgraph.Port, error) {
	n, err := b.rt.NewNode(id, desc)
	if err != nil {
		return nil, err
	}
	if desc.Direction == portgraph.DirectionInput {
		return n.InputPort(desc.Name)
	}
	return n.OutputPort(desc.Name)
}

func (b *Board) record(name string) func(context.Context, portgraph.PortData, portgraph.SourceType) error {
	return func(_ context.Context, data portgraph.PortData, src portgraph.SourceType) error {
		b.mu.Lock()
		b.last[name] = data.Value
		b.mu.Unlock()
		b.logger.Info("widget updated", "widget", name, "value", data.Value, "source", src.String())
		return nil
	}
}

// Step pushes one round of input. The slider ramps with i, the sensor follows
// a sine wave and the switch toggles every fourth step.
func (b *Board) Step(ctx context.Context, i int) error {
	if err := b.power.Emit(ctx, i%8 < 4); err != nil {
		return err
	}
	if err := b.slider.Emit(ctx, i); err != nil {
		return err
	}
	return b.sensor.Emit(ctx, 5+5*math.Sin(float64(i)/3))
}

// Nudge pushes v backward from the display toward the slider.
func (b *Board) Nudge(ctx context.Context, v float64) error {
	return b.display.Emit(ctx, v)
}

// Slider returns the slider's most recent value, which moves when the display
// is nudged.
func (b *Board) Slider() (any, bool) {
	data, ok := b.slider.LastData()
	return data.Value, ok
}

// Last returns the most recent value a display widget received.
func (b *Board) Last(widget string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.last[widget]
	return v, ok
}
