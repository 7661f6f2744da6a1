package tengo

import (
	"github.com/d5/tengo/v2"

	"spl/lib/component"
	"spl/lib/log"
	"spl/lib/properties"
	"spl/spl"
)

var (
	ScriptProperty = properties.NewRequiredProperty[string]("script", "tengo script that modifies the `event` variable")
)

type scriptOperator struct {
	ctx      spl.Context
	logger   spl.Logger
	acker    spl.ACKer
	emitNext spl.EmitNext
	program  *program
}

func (o *scriptOperator) Open(ctx spl.Context) (err error) {
	o.ctx = ctx
	o.logger = log.Ctx(o.ctx)
	o.acker = spl.NewACKer()
	o.program, err = compile(o.ctx.Properties().GetString(ScriptProperty), map[string]tengo.Object{"event": emptyEventObject()})
	if err != nil {
		o.logger.Errorw("can't compile script.", "err", err)
	}
	return err
}

func (o *scriptOperator) Close() error {
	o.acker.Close()
	return nil
}

func (o *scriptOperator) PropertiesDef() spl.PropertiesDef {
	return spl.PropertiesDef{ScriptProperty}
}

//process runs the script and returns the rewritten event
func (o *scriptOperator) process(event *spl.Event) (*spl.Event, bool) {
	object, err := toEventObject(event)
	if err != nil {
		o.logger.Errorw("can't convert event to tengo type.", "event", event, "err", err)
		return nil, false
	}
	res, err := o.program.run(o.ctx.Ctx(), map[string]tengo.Object{"event": object}, "event")
	if err != nil {
		o.logger.Errorw("run script error.", "err", err)
		return nil, false
	}
	processed, ok := res.(*eventObject)
	if !ok {
		o.logger.Errorw("script replaced event with a non event value.", "type", res.TypeName())
		return nil, false
	}
	return processed.toEvent(event), true
}

func (o *scriptOperator) emit(event *spl.Event) {
	if event.IsPunct() {
		o.emitNext(event, nil)
		return
	}
	processed, ok := o.process(event)
	if !ok {
		o.acker.OnACK(event, false)
		return
	}
	o.emitNext(processed, nil)
}

func (o *scriptOperator) GenerateEmit(_ spl.Context) spl.Emit {
	return o.emit
}

func (o *scriptOperator) Collect(emitNext spl.EmitNext) error {
	o.emitNext = emitNext
	<-o.ctx.Done()
	return nil
}

func NewScript() spl.Operator {
	return &scriptOperator{}
}

func init() {
	component.RegisterNewOperatorFunc("tengo-script", NewScript)
}
