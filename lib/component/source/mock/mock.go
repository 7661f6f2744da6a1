package mock

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"spl/lib/component"
	"spl/lib/eventtime"
	"spl/lib/properties"
	"spl/spl"
)

var (
	IntervalProperty       = properties.NewProperty[int]("interval", "random source generate record interval", 100)
	PartitionsProperty     = properties.NewProperty[int]("partitions", "number of distinct keys", 1)
	CountProperty          = properties.NewProperty[int]("count", "records to generate before the final marker, zero for unlimited", 0)
	LagProperty            = properties.NewProperty[time.Duration]("lag", "watermark lag behind the newest event time", time.Duration(0))
	WatermarkEveryProperty = properties.NewProperty[int]("watermark-every", "records between two watermarks, zero disables watermarks", 10)
)

type source struct {
	ctx   spl.Context
	clock clock.Clock

	interval       int
	partitions     int
	count          int
	watermarkEvery int
	generator      *eventtime.Generator
}

func (s *source) PropertiesDef() spl.PropertiesDef {
	return spl.PropertiesDef{IntervalProperty, PartitionsProperty, CountProperty, LagProperty, WatermarkEveryProperty}
}

//record generates the seq-th record, message holds a key and a numeric value
func (s *source) record(seq int) *spl.Event {
	return &spl.Event{
		Meta: map[string]any{"seq": seq},
		Message: map[string]any{
			"key":   fmt.Sprintf("key-%d", seq%s.partitions),
			"value": float64(seq),
		},
		Time: s.clock.Now(),
	}
}

func (s *source) Collect(emitNext spl.EmitNext) error {
	//open source
	ticker := s.clock.Ticker(time.Duration(s.interval) * time.Millisecond)
	defer ticker.Stop()
	for seq := 0; s.count == 0 || seq < s.count; seq++ {
		select {
		case <-s.ctx.Done():
			//source close
			return nil
		case <-ticker.C:
		}
		event := s.record(seq)
		s.generator.Observe(event.Time)
		emitNext(event, nil)
		if s.watermarkEvery > 0 && (seq+1)%s.watermarkEvery == 0 {
			if wm, ok := s.generator.Next(); ok {
				emitNext(spl.NewWatermark(wm), nil)
			}
		}
	}
	emitNext(&spl.Event{Punct: spl.FinalMarker, Time: s.clock.Now()}, nil)
	<-s.ctx.Done()
	return nil
}

func (s *source) Open(ctx spl.Context) error {
	s.ctx = ctx
	s.interval = ctx.Properties().GetInt(IntervalProperty)
	s.partitions = ctx.Properties().GetInt(PartitionsProperty)
	if s.interval <= 0 {
		s.interval = 1
	}
	if s.partitions <= 0 {
		s.partitions = 1
	}
	s.count = ctx.Properties().GetInt(CountProperty)
	s.watermarkEvery = ctx.Properties().GetInt(WatermarkEveryProperty)
	s.generator = eventtime.NewGenerator(ctx.Properties().GetDuration(LagProperty))
	if s.clock == nil {
		s.clock = clock.New()
	}
	return nil
}

func (s *source) Close() error {
	return nil
}

//New uses for test only
func New() spl.Source {
	return &source{}
}

func init() {
	component.RegisterNewSourceFunc("mock", New)
}
