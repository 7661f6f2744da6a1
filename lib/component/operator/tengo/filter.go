package tengo

import (
	"spl/lib/component"
	"spl/lib/log"
	"spl/lib/properties"
	"spl/spl"
)

var (
	ConditionProperty = properties.NewRequiredProperty[string]("condition", "condition tengo script")
)

type filterOperator struct {
	ctx       spl.Context
	logger    spl.Logger
	acker     spl.ACKer
	emitNext  spl.EmitNext
	condition *Expression
}

func (f *filterOperator) Open(ctx spl.Context) (err error) {
	f.ctx = ctx
	f.logger = log.Ctx(f.ctx)
	f.acker = spl.NewACKer()
	if f.condition, err = CompileExpression(f.ctx.Properties().GetString(ConditionProperty)); err != nil {
		f.logger.Errorw("can't compile condition.", "err", err)
		return err
	}
	return nil
}

func (f *filterOperator) Close() error {
	f.acker.Close()
	return nil
}

func (f *filterOperator) PropertiesDef() spl.PropertiesDef {
	return spl.PropertiesDef{ConditionProperty}
}

func (f *filterOperator) Emit(event *spl.Event) {
	//punctuations are forwarded untouched
	if event.IsPunct() {
		f.emitNext(event, nil)
		return
	}
	res, err := f.condition.Eval(f.ctx.Ctx(), event)
	if err != nil {
		f.logger.Errorw("run condition error, discarding event.", "event", event, "err", err)
		f.acker.OnACK(event, false)
		return
	}
	switch tengoBool := res.(type) {
	case bool:
		if tengoBool {
			f.emitNext(event, nil)
		} else {
			f.logger.Debugf("filter event: %+v", event)
			f.acker.OnACK(event, false)
		}
	default:
		f.logger.Error("condition return type not is bool.")
		f.acker.OnACK(event, false)
	}
}

func (f *filterOperator) GenerateEmit(_ spl.Context) spl.Emit {
	return f.Emit
}

func (f *filterOperator) Collect(emitNext spl.EmitNext) error {
	f.emitNext = emitNext
	<-f.ctx.Done()
	return nil
}

func NewFilter() spl.Operator {
	return &filterOperator{}
}

func init() {
	component.RegisterNewOperatorFunc("tengo-filter", NewFilter)
}
