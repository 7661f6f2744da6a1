package window

import (
	"bytes"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"spl/lib/checkpoint"
	"spl/lib/component"
	"spl/lib/component/operator/tengo"
	"spl/lib/eventtime"
	"spl/lib/log"
	win "spl/lib/window"
	"spl/spl"
)

const (
	MetaWindow     = "window"
	MetaPartition  = "partition"
	MetaTrigger    = "trigger"
	MetaPaneStart  = "pane-start"
	MetaPaneEnd    = "pane-end"
	MetaPaneTiming = "pane-timing"
	MetaPaneIndex  = "pane-index"
)

type operator struct {
	ctx      spl.Context
	logger   spl.Logger
	acker    spl.ACKer
	emitNext spl.EmitNext

	window    win.Window[*spl.Event, string]
	partition *tengo.Expression
	reducer   *tengo.Reducer
	receiver  *eventtime.Receiver
	eventTime *eventtime.Context

	//ready is closed once Collect knows where to emit
	ready       chan struct{}
	mutex       sync.Mutex
	upstreams   map[string]bool
	checkpoints int64
}

func (o *operator) Open(ctx spl.Context) (err error) {
	o.ctx = ctx
	o.logger = log.Ctx(o.ctx)
	o.acker = spl.NewACKer()
	p := o.ctx.Properties()

	if source := p.GetString(PartitionProperty); source != "" {
		if o.partition, err = tengo.CompileExpression(source); err != nil {
			o.logger.Errorw("can't compile partition expression.", "err", err)
			return err
		}
	}
	if source := p.GetString(ReduceProperty); source != "" {
		if o.reducer, err = tengo.CompileReducer(source); err != nil {
			o.logger.Errorw("can't compile reduce script.", "err", err)
			return err
		}
	}
	switch windowType := p.GetString(WindowTypeProperty); windowType {
	case SlidingWindow:
		o.window, err = o.sliding(p)
	case IntervalWindow:
		o.window, err = o.interval(p)
	default:
		err = errors.Errorf("unknown window type %q", windowType)
	}
	if err != nil {
		o.logger.Errorw("can't create window.", "err", err)
		return err
	}
	o.window.RegisterTriggerHandler(o.onTrigger)
	o.eventTime.Register(o.window)
	return nil
}

func (o *operator) sliding(p spl.Properties) (win.Window[*spl.Event, string], error) {
	eviction, err := o.policy(p, evictionProperties)
	if err != nil {
		return nil, err
	}
	trigger, err := o.policy(p, triggerProperties)
	if err != nil {
		return nil, err
	}
	partitionEviction, err := partitionPolicy(p)
	if err != nil {
		return nil, err
	}
	sliding, err := win.New[*spl.Event, string](win.Config[*spl.Event, string]{
		Name:              o.ctx.Name(),
		Eviction:          eviction,
		Trigger:           trigger,
		PartitionEviction: partitionEviction,
		EventTime:         eventTimeOf,
		Logger:            o.logger,
		Resolution:        p.GetDuration(ResolutionProperty),
	})
	if err != nil {
		return nil, err
	}
	sliding.RegisterPartitionEvictionHandler(func(event win.Event[*spl.Event, string]) {
		o.logger.Debugw("partition evicted.", "partition", event.Partition, "tuples", event.Data.Len())
	})
	return sliding, nil
}

func (o *operator) interval(p spl.Properties) (win.Window[*spl.Event, string], error) {
	return win.NewInterval[*spl.Event, string](win.IntervalConfig[*spl.Event, string]{
		Name:             o.ctx.Name(),
		IntervalDuration: p.GetDuration(IntervalDurationProperty),
		CreationPeriod:   p.GetDuration(IntervalPeriodProperty),
		IntervalOffset:   p.GetDuration(IntervalOffsetProperty),
		DiscardAge:       p.GetDuration(IntervalDiscardProperty),
		EventTime:        eventTimeOf,
		Logger:           o.logger,
	})
}

func eventTimeOf(event *spl.Event) time.Time {
	return event.Time
}

func (o *operator) onTrigger(event win.Event[*spl.Event, string]) {
	meta := map[string]any{
		MetaWindow:    o.ctx.Name(),
		MetaPartition: event.Partition,
		MetaTrigger:   event.Time,
	}
	if event.Pane != nil {
		meta[MetaPaneStart] = event.Pane.Start
		meta[MetaPaneEnd] = event.Pane.End
		meta[MetaPaneTiming] = event.Pane.Timing.String()
		meta[MetaPaneIndex] = event.Pane.Index
	}
	tuples := event.Data.Tuples()
	var message any
	if o.reducer != nil {
		result, err := o.reducer.Reduce(o.ctx.Ctx(), tuples)
		if err != nil {
			o.logger.Errorw("run reduce script error, drop trigger.", "partition", event.Partition, "err", err)
			return
		}
		message = result
	} else {
		messages := make([]any, len(tuples))
		for i, tuple := range tuples {
			messages[i] = tuple.Message
		}
		message = messages
	}
	o.emitNext(&spl.Event{Meta: meta, Message: message, Time: event.Time}, nil)
}

func (o *operator) partitionOf(event *spl.Event) (string, error) {
	if o.partition == nil {
		return "", nil
	}
	value, err := o.partition.Eval(o.ctx.Ctx(), event)
	if err != nil {
		return "", err
	}
	return cast.ToStringE(value)
}

func (o *operator) emit(upstream string, event *spl.Event) {
	<-o.ready
	switch event.Punct {
	case spl.NoMarker:
		partition, err := o.partitionOf(event)
		if err == nil {
			err = o.window.Insert(event, partition)
		}
		if err != nil {
			o.logger.Errorw("can't insert event, discarding event.", "event", event, "err", err)
			o.acker.OnACK(event, false)
			return
		}
		o.acker.OnACK(event, true)
	case spl.WatermarkMarker:
		if wm, ok := o.receiver.Receive(upstream, event.Time); ok && o.eventTime.NotifyWindowsOnWatermark(wm) {
			o.emitNext(o.eventTime.Punctuation(), nil)
		}
	case spl.FinalMarker:
		if o.finish(upstream) {
			if err := o.window.InsertPunctuation(spl.FinalMarker, event.Time); err != nil {
				o.logger.Errorw("can't apply final marker.", "err", err)
			}
			o.emitNext(event, nil)
		}
	default:
		o.emitNext(event, nil)
	}
}

//finish marks an upstream as done and reports whether every upstream is done
func (o *operator) finish(upstream string) bool {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.upstreams[upstream] = true
	for _, done := range o.upstreams {
		if !done {
			return false
		}
	}
	return true
}

func (o *operator) GenerateEmit(upstreamCtx spl.Context) spl.Emit {
	upstream := upstreamCtx.Name()
	o.receiver.Expect(upstream)
	o.mutex.Lock()
	o.upstreams[upstream] = false
	o.mutex.Unlock()
	return func(event *spl.Event) {
		o.emit(upstream, event)
	}
}

func (o *operator) Collect(emitNext spl.EmitNext) error {
	o.emitNext = emitNext
	close(o.ready)
	o.window.Start()
	<-o.ctx.Done()
	o.window.Shutdown()
	return o.window.Join()
}

func (o *operator) Close() error {
	o.acker.Close()
	return nil
}

func (o *operator) PropertiesDef() spl.PropertiesDef {
	return propertiesDef
}

//Snapshot runs pending time based work and checkpoints the window
func (o *operator) Snapshot() ([]byte, error) {
	select {
	case <-o.ready:
		o.window.Drain()
	default:
	}
	o.mutex.Lock()
	o.checkpoints++
	id := o.checkpoints
	o.mutex.Unlock()
	buffer := &bytes.Buffer{}
	if err := o.window.Checkpoint(checkpoint.NewWriter(buffer, id)); err != nil {
		if errors.Is(err, win.ErrUnsupported) {
			o.logger.Warnw("window state is not checkpointed.", "err", err)
			return nil, nil
		}
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (o *operator) Restore(snapshot []byte) error {
	if len(snapshot) == 0 {
		return nil
	}
	return o.window.Reset(checkpoint.NewReader(bytes.NewReader(snapshot), o.checkpoints))
}

//ResetToInitialState also forgets the watermarks and final markers seen from upstream
func (o *operator) ResetToInitialState() error {
	if err := o.window.ResetToInitialState(); err != nil {
		return err
	}
	o.receiver.Reset()
	o.eventTime.Reset()
	o.mutex.Lock()
	defer o.mutex.Unlock()
	for upstream := range o.upstreams {
		o.upstreams[upstream] = false
	}
	return nil
}

func New() spl.Operator {
	return &operator{
		receiver:  eventtime.NewReceiver(),
		eventTime: eventtime.NewContext(),
		ready:     make(chan struct{}),
		upstreams: map[string]bool{},
	}
}

var (
	_ spl.Stateful   = (*operator)(nil)
	_ spl.Resettable = (*operator)(nil)
)

func init() {
	component.RegisterNewOperatorFunc("window", New)
}
