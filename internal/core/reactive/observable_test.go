package reactive

import (
	"testing"

	"github.com/flowgraph/portgraph/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X, Y int
	Tags []string
}

func TestObservable_GetSet(t *testing.T) {
	o := New(1)
	assert.Equal(t, 1, o.Get())

	assert.True(t, o.Set(2))
	assert.Equal(t, 2, o.Get())
	assert.False(t, o.Set(2))
}

func TestObservable_StructuralEquality(t *testing.T) {
	o := New(&point{X: 1, Y: 2, Tags: []string{"a"}})

	var got []*point
	o.OnChange(func(p *point) { got = append(got, p) })

	t.Run("equal composite with new reference does not notify", func(t *testing.T) {
		changed := o.Set(&point{X: 1, Y: 2, Tags: []string{"a"}})
		assert.False(t, changed)
		assert.Empty(t, got)
	})

	t.Run("different composite notifies with new value", func(t *testing.T) {
		next := &point{X: 1, Y: 2, Tags: []string{"a", "b"}}
		require.True(t, o.Set(next))
		require.Len(t, got, 1)
		assert.Same(t, next, got[0])
	})

	t.Run("maps compare by content", func(t *testing.T) {
		m := New(map[string]any{"k": 1.0})
		calls := 0
		m.OnChange(func(map[string]any) { calls++ })
		m.Set(map[string]any{"k": 1.0})
		assert.Equal(t, 0, calls)
		m.Set(map[string]any{"k": 2.0})
		assert.Equal(t, 1, calls)
	})
}

func TestObservable_SubscribeCallsImmediately(t *testing.T) {
	o := New("a")
	var seen []string
	unsubscribe := o.Subscribe(func(s string) { seen = append(seen, s) })
	assert.Equal(t, []string{"a"}, seen)

	o.Set("b")
	assert.Equal(t, []string{"a", "b"}, seen)

	unsubscribe()
	unsubscribe()
	o.Set("c")
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, 0, o.Len())
}

func TestObservable_OnChangeDoesNotCallImmediately(t *testing.T) {
	o := New(0)
	calls := 0
	o.OnChange(func(int) { calls++ })
	assert.Equal(t, 0, calls)
	o.Set(1)
	assert.Equal(t, 1, calls)
}

func TestObservable_NotifiesInRegistrationOrder(t *testing.T) {
	o := New(0)
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		o.OnChange(func(int) { order = append(order, i) })
	}
	o.Set(1)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestObservable_DepthCeiling(t *testing.T) {
	o := New(0, WithLogger(logging.Discard()), WithName("feedback"))

	loop := true
	calls := 0
	o.OnChange(func(v int) {
		calls++
		if loop {
			o.Set(v + 1)
		}
	})

	assert.NotPanics(t, func() { o.Set(1) })
	assert.Equal(t, DefaultMaxDepth, calls)
	assert.Equal(t, DefaultMaxDepth+1, o.Get())

	// The counter is back at zero: a plain update is delivered again.
	loop = false
	calls = 0
	o.Set(-1)
	assert.Equal(t, 1, calls)
}

func TestObservable_DepthIsPerInstance(t *testing.T) {
	a := New(0, WithLogger(logging.Discard()), WithMaxDepth(3))
	b := New(0, WithLogger(logging.Discard()), WithMaxDepth(3))

	bCalls := 0
	b.OnChange(func(int) { bCalls++ })
	a.OnChange(func(v int) {
		b.Set(v)
		if v < 10 {
			a.Set(v + 1)
		}
	})

	a.Set(1)
	// a aborts after three nested levels; b is notified once per accepted a level.
	assert.Equal(t, 3, bCalls)
	assert.Equal(t, 4, a.Get())
}

func TestObservable_Clear(t *testing.T) {
	o := New(0)
	o.OnChange(func(int) {})
	o.OnChange(func(int) {})
	require.Equal(t, 2, o.Len())
	o.Clear()
	assert.Equal(t, 0, o.Len())
}
