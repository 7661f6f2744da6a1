package context

import (
	_c "context"
	"strings"

	"spl/spl"
)

type context struct {
	ctx    _c.Context
	v      spl.Properties
	cancel _c.CancelFunc
	name   string
}

func (c *context) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *context) Err() error {
	return c.ctx.Err()
}

func (c *context) Cancel() {
	c.cancel()
}

func (c *context) Ctx() _c.Context {
	return c.ctx
}

func (c *context) Name() string {
	return c.name
}

func (c *context) Named(value string) spl.Context {
	ctx, cancel := _c.WithCancel(c.ctx)
	name := value
	if c.name != "" {
		name = strings.Join([]string{c.name, value}, ".")
	}
	var sub spl.Properties
	if c.v != nil {
		sub = c.v.Sub(value)
	}
	return &context{v: sub, ctx: ctx, cancel: cancel, name: name}
}

func (c *context) Properties() spl.Properties {
	return c.v
}

func New(ctx _c.Context, properties spl.Properties) spl.Context {
	parent, cancelFunc := _c.WithCancel(ctx)
	return &context{ctx: parent, v: properties, cancel: cancelFunc}
}
