package window

import (
	"sync"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/pkg/errors"

	"spl/lib/checkpoint"
	"spl/lib/log"
	"spl/spl"
)

//PaneTiming is PaneEarly until the watermark passes the pane end, the first trigger after that is
//PaneOnComplete and every later one PaneLate
type PaneTiming uint8

const (
	PaneEarly PaneTiming = iota
	PaneOnComplete
	PaneLate
)

func (p PaneTiming) String() string {
	switch p {
	case PaneEarly:
		return "early"
	case PaneOnComplete:
		return "on-complete"
	default:
		return "late"
	}
}

//Pane describes the event time interval [Start, End) an interval window trigger belongs to
type Pane struct {
	Start  time.Time
	End    time.Time
	Timing PaneTiming
	//Index counts the triggers of the pane
	Index uint64
}

type IntervalConfig[T any, K comparable] struct {
	Name             string
	IntervalDuration time.Duration
	//CreationPeriod is the distance between pane starts, defaults to IntervalDuration
	CreationPeriod time.Duration
	IntervalOffset time.Duration
	//DiscardAge keeps panes open for late tuples after the watermark passed their end
	DiscardAge time.Duration
	EventTime  func(tuple T) time.Time
	Logger     spl.Logger
}

type paneState uint8

const (
	paneIncomplete paneState = iota
	paneComplete
	paneClosed
)

type pane[T any, K comparable] struct {
	start   time.Time
	end     time.Time
	state   paneState
	data    *storage[T, K]
	updated map[K]bool
	fresh   bool
	timing  PaneTiming
	index   uint64
}

//Interval assigns each tuple to every event time pane containing it and fires panes as the watermark passes them
type Interval[T any, K comparable] struct {
	handlers[T, K]

	name      string
	mutex     sync.Mutex
	logger    spl.Logger
	duration  time.Duration
	period    time.Duration
	offset    time.Duration
	discard   time.Duration
	eventTime func(T) time.Time

	seq       uint64
	watermark time.Time
	panes     *treemap.Map
}

func NewInterval[T any, K comparable](config IntervalConfig[T, K]) (*Interval[T, K], error) {
	if config.IntervalDuration <= 0 {
		return nil, errors.WithMessagef(ErrInvalidPolicy, "interval duration must be positive, got %s", config.IntervalDuration)
	}
	if config.CreationPeriod == 0 {
		config.CreationPeriod = config.IntervalDuration
	}
	if config.CreationPeriod < 0 {
		return nil, errors.WithMessagef(ErrInvalidPolicy, "creation period must be positive, got %s", config.CreationPeriod)
	}
	if config.IntervalOffset < 0 || config.DiscardAge < 0 {
		return nil, errors.WithMessage(ErrInvalidPolicy, "interval offset and discard age must not be negative")
	}
	if config.EventTime == nil {
		return nil, errors.WithMessage(ErrInvalidPolicy, "interval windows need an event time extractor")
	}
	w := &Interval[T, K]{
		name:      config.Name,
		logger:    config.Logger,
		duration:  config.IntervalDuration,
		period:    config.CreationPeriod,
		offset:    config.IntervalOffset,
		discard:   config.DiscardAge,
		eventTime: config.EventTime,
		panes:     treemap.NewWith(utils.Int64Comparator),
	}
	if w.logger == nil {
		w.logger = log.Named("window." + w.name)
	}
	return w, nil
}

func (w *Interval[T, K]) Name() string {
	return w.name
}

//RegisterBeforeCloseHandler is called for each partition of a pane before the pane is discarded
func (w *Interval[T, K]) RegisterBeforeCloseHandler(fn EventHandler[T, K]) EventHandler[T, K] {
	old := w.beforeClose
	w.beforeClose = fn
	return old
}

//Insert drops tuples older than watermark minus discard age, late tuples still update open panes
func (w *Interval[T, K]) Insert(tuple T, partition K) error {
	t := w.eventTime(tuple)
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if !w.watermark.IsZero() {
		if t.Before(w.watermark.Add(-w.discard)) {
			w.logger.Debugw("dropped tuple.", "eventTime", t, "watermark", w.watermark)
			return nil
		}
		if t.Before(w.watermark) {
			w.logger.Debugw("late tuple.", "eventTime", t, "watermark", w.watermark)
		}
	}
	for _, start := range w.assign(t) {
		w.pane(start).insert(w, tuple, t, partition)
	}
	return nil
}

func (w *Interval[T, K]) InsertPunctuation(punct spl.Punctuation, at time.Time) error {
	if punct == spl.WatermarkMarker {
		w.NotifyWatermark(at)
	}
	return nil
}

//NotifyWatermark completes, triggers and closes panes, non advancing watermarks are ignored
func (w *Interval[T, K]) NotifyWatermark(wm time.Time) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if !wm.After(w.watermark) {
		return
	}
	w.watermark = wm
	var closed []interface{}
	it := w.panes.Iterator()
	for it.Next() {
		p := it.Value().(*pane[T, K])
		p.onWatermark(w, wm)
		if p.state == paneClosed {
			closed = append(closed, it.Key())
		}
	}
	for _, key := range closed {
		w.panes.Remove(key)
	}
}

func (w *Interval[T, K]) Watermark() time.Time {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.watermark
}

//Panes lists the open panes ordered by start
func (w *Interval[T, K]) Panes() []Pane {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	panes := make([]Pane, 0, w.panes.Size())
	for _, value := range w.panes.Values() {
		p := value.(*pane[T, K])
		panes = append(panes, *p.info())
	}
	return panes
}

//Drain is a no-op, interval windows only move with the watermark
func (w *Interval[T, K]) Drain() {}

func (w *Interval[T, K]) Checkpoint(*checkpoint.Checkpoint) error {
	return errors.WithMessage(ErrUnsupported, "checkpoint")
}

func (w *Interval[T, K]) Reset(*checkpoint.Checkpoint) error {
	return errors.WithMessage(ErrUnsupported, "reset")
}

func (w *Interval[T, K]) ResetToInitialState() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.panes.Clear()
	w.watermark = time.Time{}
	w.seq = 0
	if w.onResetToInitial != nil {
		return w.onResetToInitial()
	}
	return nil
}

func (w *Interval[T, K]) Start()      {}
func (w *Interval[T, K]) Shutdown()   {}
func (w *Interval[T, K]) Join() error { return nil }

//lastStart is the start of the latest pane containing t
func (w *Interval[T, K]) lastStart(t int64) int64 {
	period := int64(w.period)
	rem := (t - int64(w.offset)) % period
	if rem < 0 {
		rem += period
	}
	return t - rem
}

//assign lists the starts of all panes containing t
func (w *Interval[T, K]) assign(t time.Time) []int64 {
	nanos := t.UnixNano()
	minStart := nanos - int64(w.duration)
	var starts []int64
	for start := w.lastStart(nanos); start > minStart; start -= int64(w.period) {
		starts = append(starts, start)
	}
	return starts
}

func (w *Interval[T, K]) pane(start int64) *pane[T, K] {
	if value, ok := w.panes.Get(start); ok {
		return value.(*pane[T, K])
	}
	p := &pane[T, K]{
		start:   time.Unix(0, start).UTC(),
		end:     time.Unix(0, start+int64(w.duration)).UTC(),
		data:    newStorage[T, K](),
		updated: map[K]bool{},
	}
	w.panes.Put(start, p)
	return p
}

func (p *pane[T, K]) info() *Pane {
	return &Pane{Start: p.start, End: p.end, Timing: p.timing, Index: p.index}
}

func (p *pane[T, K]) insert(w *Interval[T, K], tuple T, t time.Time, partition K) {
	w.emitBeforeInsertion(tuple, partition)
	b, ok := p.data.get(partition)
	if !ok {
		b = p.data.create(partition, t)
	}
	w.seq++
	p.data.push(b, entry[T]{seq: w.seq, tuple: tuple, eventTime: t})
	p.updated[partition] = true
	w.emitAfterInsertion(tuple, partition)
	p.fresh = true
}

func (p *pane[T, K]) onWatermark(w *Interval[T, K], wm time.Time) {
	if !wm.Before(p.end) && p.state == paneIncomplete {
		p.state = paneComplete
		p.timing = PaneOnComplete
		p.data.each(func(partition K, b *buffer[T]) {
			w.emitInitialFull(Event[T, K]{Partition: partition, Data: b, Time: p.end, Pane: p.info()})
		})
	}
	if p.state == paneComplete && p.fresh {
		p.data.each(func(partition K, b *buffer[T]) {
			if p.updated[partition] {
				p.updated[partition] = false
				w.emitTrigger(Event[T, K]{Partition: partition, Data: b, Time: wm, Pane: p.info()})
			}
		})
		p.fresh = false
		p.timing = PaneLate
		p.index++
	}
	if !wm.Before(p.end.Add(w.discard)) && p.state == paneComplete {
		p.data.each(func(partition K, b *buffer[T]) {
			w.emitBeforeClose(Event[T, K]{Partition: partition, Data: b, Time: wm, Pane: p.info()})
		})
		p.state = paneClosed
	}
}

