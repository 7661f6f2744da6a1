package task

import (
	"spl/spl"
)

type SinkTask struct {
	spl.Sink
	Ctx spl.Context
}

func (s *SinkTask) Open() error {
	return s.Sink.Open(s.Ctx)
}

//Run waits for the context, a sink does not block
func (s *SinkTask) Run() error {
	<-s.Ctx.Done()
	return s.Close()
}
