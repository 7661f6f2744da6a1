package task

import (
	"go.uber.org/multierr"

	"spl/lib/runtime/checkpoint"
	"spl/spl"
)

type SourceTask struct {
	spl.Source
	Ctx      spl.Context
	EmitNext spl.EmitNext
	//Coordinator is set in snapshot mode
	Coordinator *checkpoint.Coordinator
}

func (s *SourceTask) Open() error {
	if err := s.Source.Open(s.Ctx); err != nil {
		return err
	}
	if s.Coordinator != nil {
		if err := s.Coordinator.Restore(s.Ctx.Name(), s.Source); err != nil {
			return multierr.Append(err, s.Close())
		}
	}
	return nil
}

func (s *SourceTask) Run() error {
	if err := s.Collect(s.EmitNext); err != nil {
		return multierr.Append(err, s.Close())
	}
	var err error
	if s.Coordinator != nil {
		err = s.Coordinator.Unregister(s.Ctx.Name())
	}
	return multierr.Append(err, s.Close())
}
