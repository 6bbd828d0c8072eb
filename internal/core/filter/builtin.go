package filter

import (
	"fmt"
	"math"
	"sync"

	"github.com/flowgraph/portgraph/internal/core/port"
)

// TypeNumber is the type tag emitted by the numeric filters.
const TypeNumber = "number"

// Builtins returns the manifests of every built-in kind.
func Builtins() []Manifest {
	return []Manifest{
		{
			Kind:        KindInvert,
			Description: "emits 1 when the input is 0, otherwise 0",
			New:         func(cfg map[string]any) (Filter, error) { return newInvert(cfg) },
		},
		{
			Kind:         KindAdd,
			Description:  "adds value, or the live operand side input, to the input",
			ConfigSchema: map[string]string{"value": "number"},
			New:          func(cfg map[string]any) (Filter, error) { return newAdd(cfg) },
		},
		{
			Kind:         KindMultiply,
			Description:  "multiplies the input by factor, or the live factor side input",
			ConfigSchema: map[string]string{"factor": "number"},
			New:          func(cfg map[string]any) (Filter, error) { return newMultiply(cfg) },
		},
		{
			Kind:         KindClampRange,
			Description:  "clamps the input into [min, max]",
			ConfigSchema: map[string]string{"min": "number", "max": "number"},
			New:          func(cfg map[string]any) (Filter, error) { return newClamp(cfg) },
		},
		{
			Kind:         KindGate,
			Description:  "passes the input through while the condition side input satisfies the predicate",
			ConfigSchema: map[string]string{"condition": "nonzero|positive|negative"},
			New:          func(cfg map[string]any) (Filter, error) { return newGate(cfg) },
		},
		{
			Kind:         KindLowPass,
			Description:  "exponential moving average of the input",
			ConfigSchema: map[string]string{"alpha": "number (0, 1]"},
			New:          func(cfg map[string]any) (Filter, error) { return newLowPass(cfg) },
		},
		{
			Kind:         KindOffset,
			Description:  "adds value going forward and subtracts it going backward",
			ConfigSchema: map[string]string{"value": "number"},
			New:          func(cfg map[string]any) (Filter, error) { return newOffset(cfg) },
		},
	}
}

// numericShape accepts whatever flows in and declares a number output.
func numericShape(upstream string, extra ...port.Descriptor) Shape {
	return Shape{
		Input:  port.Input(InputPortName, upstream),
		Output: port.Output(OutputPortName, TypeNumber),
		Extra:  extra,
	}
}

// invert

type invert struct{}

func newInvert(cfg map[string]any) (*invert, error) {
	if err := decodeConfig(cfg, &struct{}{}); err != nil {
		return nil, err
	}
	return &invert{}, nil
}

func (*invert) Kind() Kind { return KindInvert }

func (*invert) Shape(upstream string) (Shape, error) { return numericShape(upstream), nil }

func (*invert) Forward(v any) (any, bool, error) {
	x, err := toFloat(v)
	if err != nil {
		return nil, false, err
	}
	if x == 0 {
		return 1.0, true, nil
	}
	return 0.0, true, nil
}

// add

type addConfig struct {
	Value float64 `msgpack:"value" json:"value"`
}

type add struct {
	mu      sync.RWMutex
	value   float64
	operand *float64
}

func newAdd(cfg map[string]any) (*add, error) {
	var c addConfig
	if err := decodeConfig(cfg, &c); err != nil {
		return nil, err
	}
	return &add{value: c.Value}, nil
}

func (*add) Kind() Kind { return KindAdd }

func (*add) Shape(upstream string) (Shape, error) {
	return numericShape(upstream, port.Input("operand", TypeNumber)), nil
}

func (a *add) Forward(v any) (any, bool, error) {
	x, err := toFloat(v)
	if err != nil {
		return nil, false, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.operand != nil {
		return x + *a.operand, true, nil
	}
	return x + a.value, true, nil
}

func (a *add) SetSide(name string, v any) error {
	if name != "operand" {
		return fmt.Errorf("%w: %s", ErrUnknownSide, name)
	}
	x, err := toFloat(v)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.operand = &x
	a.mu.Unlock()
	return nil
}

// multiply

type multiplyConfig struct {
	Factor float64 `msgpack:"factor" json:"factor"`
}

type multiply struct {
	mu     sync.RWMutex
	factor float64
}

func newMultiply(cfg map[string]any) (*multiply, error) {
	c := multiplyConfig{Factor: 1}
	if err := decodeConfig(cfg, &c); err != nil {
		return nil, err
	}
	return &multiply{factor: c.Factor}, nil
}

func (*multiply) Kind() Kind { return KindMultiply }

func (*multiply) Shape(upstream string) (Shape, error) {
	return numericShape(upstream, port.Input("factor", TypeNumber)), nil
}

func (m *multiply) Forward(v any) (any, bool, error) {
	x, err := toFloat(v)
	if err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return x * m.factor, true, nil
}

func (m *multiply) SetSide(name string, v any) error {
	if name != "factor" {
		return fmt.Errorf("%w: %s", ErrUnknownSide, name)
	}
	x, err := toFloat(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.factor = x
	m.mu.Unlock()
	return nil
}

// clampRange

type clampConfig struct {
	Min float64 `msgpack:"min" json:"min" validate:"ltefield=Max"`
	Max float64 `msgpack:"max" json:"max"`
}

type clamp struct {
	min, max float64
}

func newClamp(cfg map[string]any) (*clamp, error) {
	c := clampConfig{Min: 0, Max: 1}
	if err := decodeConfig(cfg, &c); err != nil {
		return nil, err
	}
	return &clamp{min: c.Min, max: c.Max}, nil
}

func (*clamp) Kind() Kind { return KindClampRange }

func (*clamp) Shape(upstream string) (Shape, error) { return numericShape(upstream), nil }

func (c *clamp) Forward(v any) (any, bool, error) {
	x, err := toFloat(v)
	if err != nil {
		return nil, false, err
	}
	return math.Min(math.Max(x, c.min), c.max), true, nil
}

// gate

// Gate conditions
const (
	ConditionNonZero  = "nonzero"
	ConditionPositive = "positive"
	ConditionNegative = "negative"
)

type gateConfig struct {
	Condition string `msgpack:"condition" json:"condition" validate:"required,oneof=nonzero positive negative"`
}

type gate struct {
	condition string

	mu    sync.RWMutex
	state *float64
}

func newGate(cfg map[string]any) (*gate, error) {
	c := gateConfig{Condition: ConditionNonZero}
	if err := decodeConfig(cfg, &c); err != nil {
		return nil, err
	}
	return &gate{condition: c.Condition}, nil
}

func (*gate) Kind() Kind { return KindGate }

// Shape passes the upstream type through unchanged.
func (*gate) Shape(upstream string) (Shape, error) {
	return Shape{
		Input:  port.Input(InputPortName, upstream),
		Output: port.Output(OutputPortName, upstream),
		Extra:  []port.Descriptor{port.Input("condition", port.TypeAny)},
	}, nil
}

// Forward suppresses everything until a condition value has arrived.
func (g *gate) Forward(v any) (any, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state == nil {
		return nil, false, nil
	}
	s := *g.state
	switch g.condition {
	case ConditionPositive:
		return v, s > 0, nil
	case ConditionNegative:
		return v, s < 0, nil
	default:
		return v, s != 0, nil
	}
}

func (g *gate) SetSide(name string, v any) error {
	if name != "condition" {
		return fmt.Errorf("%w: %s", ErrUnknownSide, name)
	}
	x, err := toFloat(v)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.state = &x
	g.mu.Unlock()
	return nil
}

// lowPass

type lowPassConfig struct {
	Alpha float64 `msgpack:"alpha" json:"alpha" validate:"gt=0,lte=1"`
}

type lowPass struct {
	alpha float64

	mu     sync.Mutex
	primed bool
	avg    float64
}

func newLowPass(cfg map[string]any) (*lowPass, error) {
	c := lowPassConfig{Alpha: 0.5}
	if err := decodeConfig(cfg, &c); err != nil {
		return nil, err
	}
	return &lowPass{alpha: c.Alpha}, nil
}

func (*lowPass) Kind() Kind { return KindLowPass }

func (*lowPass) Shape(upstream string) (Shape, error) { return numericShape(upstream), nil }

// Forward seeds the average with the first sample.
func (l *lowPass) Forward(v any) (any, bool, error) {
	x, err := toFloat(v)
	if err != nil {
		return nil, false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.primed {
		l.avg, l.primed = x, true
	} else {
		l.avg = l.alpha*x + (1-l.alpha)*l.avg
	}
	return l.avg, true, nil
}

// offset

type offsetConfig struct {
	Value float64 `msgpack:"value" json:"value"`
}

type offset struct {
	value float64
}

func newOffset(cfg map[string]any) (*offset, error) {
	var c offsetConfig
	if err := decodeConfig(cfg, &c); err != nil {
		return nil, err
	}
	return &offset{value: c.Value}, nil
}

func (*offset) Kind() Kind { return KindOffset }

// Shape only accepts numeric upstreams since values also travel backward
// into the upstream port.
func (*offset) Shape(upstream string) (Shape, error) {
	if !port.IsA(upstream, TypeNumber) {
		return Shape{}, fmt.Errorf("%w: offset needs a number, got %s", ErrIncompatibleUpstream, upstream)
	}
	return Shape{
		Input:  port.Input(InputPortName, upstream),
		Output: port.Output(OutputPortName, TypeNumber),
	}, nil
}

func (o *offset) Forward(v any) (any, bool, error) {
	x, err := toFloat(v)
	if err != nil {
		return nil, false, err
	}
	return x + o.value, true, nil
}

func (o *offset) Backward(v any) (any, error) {
	x, err := toFloat(v)
	if err != nil {
		return nil, err
	}
	return x - o.value, nil
}
