package spl

import (
	_c "context"
)

//Context is the named scope of a component, every Named child is canceled with its parent
type Context interface {
	Ctx() _c.Context
	//Name is the dotted path from the root, e.g. operator.window
	Name() string
	Named(string) Context
	//Properties are the properties under Name, nil when none are configured
	Properties() Properties

	Done() <-chan struct{}
	//Err is nil until the context is canceled
	Err() error
	Cancel()
}
