package echo

import (
	"sync"

	"github.com/eapache/queue"

	"spl/lib/component"
	"spl/lib/log"
	"spl/lib/properties"
	"spl/spl"
)

var (
	BatchSizeProperty = properties.NewProperty[int]("batch", "echo sink echo batch size", 100)
	TypeProperty      = properties.NewProperty[string]("echo", "echo type, like info debug", "info")
)

type sink struct {
	ctx       spl.Context
	logger    spl.Logger
	acker     spl.ACKer
	batch     int
	buffer    *queue.Queue
	bufferMux sync.Mutex
	echoFunc  func(format string, args ...interface{})
}

func (s *sink) GenerateEmit(_ spl.Context) spl.Emit {
	return func(event *spl.Event) {
		s.bufferMux.Lock()
		defer s.bufferMux.Unlock()
		if event.IsPunct() {
			//a final marker flushes the partial batch
			if event.Punct == spl.FinalMarker {
				s.flush(s.buffer.Length())
			}
			return
		}
		s.buffer.Add(event)
		if s.buffer.Length() >= s.batch {
			s.flush(s.batch)
		}
	}
}

func (s *sink) flush(n int) {
	for i := 0; i < n; i++ {
		_event := s.buffer.Remove().(*spl.Event)
		s.echoFunc("%+v", _event)
		s.acker.OnACK(_event, true)
	}
}

func (s *sink) Open(ctx spl.Context) error {
	s.ctx = ctx
	s.logger = log.Ctx(s.ctx)
	s.acker = spl.NewACKer()
	s.batch = ctx.Properties().GetInt(BatchSizeProperty)
	echoType := ctx.Properties().GetString(TypeProperty)
	if s.buffer == nil {
		s.buffer = queue.New()
	}
	switch echoType {
	case "debug":
		s.echoFunc = s.logger.Debugf
	case "warn":
		s.echoFunc = s.logger.Warnf
	case "error":
		s.echoFunc = s.logger.Errorf
	case "info":
		s.echoFunc = s.logger.Infof
	default:
		s.logger.Warnf("unknown echo type %s, use info", echoType)
		s.echoFunc = s.logger.Infof
	}
	return nil
}

func (s *sink) Close() error {
	s.bufferMux.Lock()
	defer s.bufferMux.Unlock()
	s.flush(s.buffer.Length())
	s.acker.Close()
	return nil
}

func (s *sink) PropertiesDef() spl.PropertiesDef {
	return spl.PropertiesDef{BatchSizeProperty, TypeProperty}
}

//New uses for test only
func New() spl.Sink {
	return &sink{}
}

func init() {
	component.RegisterNewSinkFunc("echo", New)
}
