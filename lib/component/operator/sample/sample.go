package sample

import (
	"sync/atomic"

	"spl/lib/component"
	"spl/lib/properties"
	"spl/spl"
)

var (
	RateProperty = properties.NewProperty[uint64]("rate", "forward one event out of rate", 10)
)

type operator struct {
	ctx   spl.Context
	acker spl.ACKer

	rate     uint64
	ops      uint64
	emitNext spl.EmitNext
}

func (o *operator) Open(ctx spl.Context) error {
	o.ctx = ctx
	o.acker = spl.NewACKer()
	o.rate = ctx.Properties().GetUint64(RateProperty)
	if o.rate == 0 {
		o.rate = 1
	}

	return nil
}

func (o *operator) Close() error {
	o.acker.Close()
	return nil
}

func (o *operator) PropertiesDef() spl.PropertiesDef {
	return spl.PropertiesDef{RateProperty}
}

func (o *operator) Collect(emitNext spl.EmitNext) error {
	o.emitNext = emitNext
	<-o.ctx.Done()
	return nil
}

func (o *operator) GenerateEmit(_ spl.Context) spl.Emit {
	return func(event *spl.Event) {
		//punctuations are never sampled out
		if event.IsPunct() {
			o.emitNext(event, nil)
			return
		}
		if atomic.AddUint64(&o.ops, 1)%o.rate == 0 {
			o.emitNext(event, nil)
			return
		}
		o.acker.OnACK(event, true)
	}
}

func New() spl.Operator {
	return &operator{}
}

func init() {
	component.RegisterNewOperatorFunc("sample", New)
}
