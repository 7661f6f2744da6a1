package task

import (
	"go.uber.org/multierr"

	"spl/lib/runtime/checkpoint"
	"spl/spl"
)

type OperatorTask struct {
	spl.Operator
	Ctx      spl.Context
	EmitNext spl.EmitNext
	//Coordinator is set in snapshot mode
	Coordinator *checkpoint.Coordinator
}

//Open opens the operator and restores its last snapshot
func (o *OperatorTask) Open() error {
	if err := o.Operator.Open(o.Ctx); err != nil {
		return err
	}
	if o.Coordinator != nil {
		if err := o.Coordinator.Restore(o.Ctx.Name(), o.Operator); err != nil {
			return multierr.Append(err, o.Close())
		}
	}
	return nil
}

//Run blocks until the operator is done, then takes a final snapshot and closes it
func (o *OperatorTask) Run() error {
	if err := o.Collect(o.EmitNext); err != nil {
		return multierr.Append(err, o.Close())
	}
	var err error
	if o.Coordinator != nil {
		err = o.Coordinator.Unregister(o.Ctx.Name())
	}
	return multierr.Append(err, o.Close())
}
