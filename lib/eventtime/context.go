package eventtime

import (
	"sync"
	"time"

	"spl/spl"
)

//Notifier is a window that moves with the watermark
type Notifier interface {
	NotifyWatermark(wm time.Time)
}

//Context forwards operator watermarks to the windows of the operator
type Context struct {
	mutex     sync.Mutex
	windows   []Notifier
	watermark time.Time
}

func NewContext() *Context {
	return &Context{}
}

func (c *Context) Register(window Notifier) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.windows = append(c.windows, window)
}

//NotifyWindowsOnWatermark advances every registered window in registration order and
//reports whether the watermark moved
func (c *Context) NotifyWindowsOnWatermark(wm time.Time) bool {
	c.mutex.Lock()
	if !wm.After(c.watermark) {
		c.mutex.Unlock()
		return false
	}
	c.watermark = wm
	windows := append([]Notifier(nil), c.windows...)
	c.mutex.Unlock()
	for _, window := range windows {
		window.NotifyWatermark(wm)
	}
	return true
}

func (c *Context) Watermark() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.watermark
}

func (c *Context) Reset() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.watermark = time.Time{}
}

//Punctuation is the watermark punctuation to forward downstream
func (c *Context) Punctuation() *spl.Event {
	return spl.NewWatermark(c.Watermark())
}
