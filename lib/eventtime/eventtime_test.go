package eventtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"spl/spl"
)

func TestReceiver_MinimumOverConnections(t *testing.T) {
	base := time.Unix(100, 0)
	r := NewReceiver("a", "b")

	_, ok := r.Receive("a", base.Add(5*time.Second))
	assert.False(t, ok)

	wm, ok := r.Receive("b", base.Add(3*time.Second))
	assert.True(t, ok)
	assert.Equal(t, base.Add(3*time.Second), wm)

	_, ok = r.Receive("b", base.Add(2*time.Second))
	assert.False(t, ok)

	wm, ok = r.Receive("b", base.Add(9*time.Second))
	assert.True(t, ok)
	assert.Equal(t, base.Add(5*time.Second), wm)
	assert.Equal(t, base.Add(5*time.Second), r.Watermark())
}

func TestReceiver_Expect(t *testing.T) {
	base := time.Unix(100, 0)
	r := NewReceiver()
	r.Expect("a")
	r.Expect("b")
	_, ok := r.Receive("a", base)
	assert.False(t, ok)

	r = NewReceiver()
	wm, ok := r.Receive("late", base)
	assert.True(t, ok)
	assert.Equal(t, base, wm)
}

func TestReceiver_Reset(t *testing.T) {
	base := time.Unix(100, 0)
	r := NewReceiver("a", "b")
	r.Receive("a", base.Add(10*time.Second))
	r.Receive("b", base.Add(10*time.Second))
	r.Reset()
	assert.True(t, r.Watermark().IsZero())

	_, ok := r.Receive("a", base.Add(5*time.Second))
	assert.False(t, ok)
	wm, ok := r.Receive("b", base.Add(5*time.Second))
	assert.True(t, ok)
	assert.Equal(t, base.Add(5*time.Second), wm)
}

type notifier struct {
	watermarks []time.Time
}

func (n *notifier) NotifyWatermark(wm time.Time) {
	n.watermarks = append(n.watermarks, wm)
}

func TestContext_NotifyWindowsOnWatermark(t *testing.T) {
	base := time.Unix(100, 0)
	first, second := &notifier{}, &notifier{}
	c := NewContext()
	c.Register(first)
	c.Register(second)

	assert.True(t, c.NotifyWindowsOnWatermark(base))
	assert.False(t, c.NotifyWindowsOnWatermark(base))
	assert.False(t, c.NotifyWindowsOnWatermark(base.Add(-time.Second)))
	assert.True(t, c.NotifyWindowsOnWatermark(base.Add(time.Second)))

	want := []time.Time{base, base.Add(time.Second)}
	assert.Equal(t, want, first.watermarks)
	assert.Equal(t, want, second.watermarks)

	punct := c.Punctuation()
	assert.Equal(t, spl.WatermarkMarker, punct.Punct)
	assert.True(t, punct.IsPunct())
	assert.Equal(t, base.Add(time.Second), punct.Time)
}

func TestContext_Reset(t *testing.T) {
	base := time.Unix(100, 0)
	n := &notifier{}
	c := NewContext()
	c.Register(n)
	assert.True(t, c.NotifyWindowsOnWatermark(base.Add(10*time.Second)))
	c.Reset()
	assert.True(t, c.Watermark().IsZero())
	assert.True(t, c.NotifyWindowsOnWatermark(base.Add(5*time.Second)))
	assert.Equal(t, []time.Time{base.Add(10 * time.Second), base.Add(5 * time.Second)}, n.watermarks)
}

func TestGenerator(t *testing.T) {
	base := time.Unix(100, 0)
	g := NewGenerator(2 * time.Second)
	_, ok := g.Next()
	assert.False(t, ok)

	g.Observe(base.Add(5 * time.Second))
	g.Observe(base.Add(3 * time.Second))
	wm, ok := g.Next()
	assert.True(t, ok)
	assert.Equal(t, base.Add(3*time.Second), wm)

	_, ok = g.Next()
	assert.False(t, ok)

	g.Observe(base.Add(4 * time.Second))
	_, ok = g.Next()
	assert.False(t, ok)

	g.Observe(base.Add(8 * time.Second))
	wm, ok = g.Next()
	assert.True(t, ok)
	assert.Equal(t, base.Add(6*time.Second), wm)
}
