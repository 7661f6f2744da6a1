package window

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"gopkg.in/tomb.v2"

	"spl/lib/log"
	"spl/spl"
)

const defaultResolution = 100 * time.Millisecond

type Config[T any, K comparable] struct {
	//Name identifies the window in logs
	Name     string
	Eviction Policy
	Trigger  Policy
	//PartitionEviction is optional
	PartitionEviction PartitionPolicy
	//EventTime extracts the event time of a tuple, required by EventTime policies
	EventTime func(tuple T) time.Time
	//Clock defaults to the system clock
	Clock  clock.Clock
	Logger spl.Logger
	//Resolution is the tick interval of background tasks, capped by the time policy durations
	Resolution time.Duration
	TupleCodec Codec[T]
	KeyCodec   Codec[K]
}

//PartitionState exposes the eviction and trigger bookkeeping of one partition
type PartitionState struct {
	Created          time.Time
	InitialFull      bool
	LastTrigger      time.Time
	TriggerReference float64
	SinceEviction    uint64
	SinceTrigger     uint64
}

//Sliding is a partitioned sliding window: eviction drops the oldest tuples of a partition,
//triggers report the current contents without removing anything
type Sliding[T any, K comparable] struct {
	handlers[T, K]

	name       string
	mutex      sync.Mutex
	clock      clock.Clock
	logger     spl.Logger
	resolution time.Duration

	eviction    evictionStrategy[T]
	trigger     triggerStrategy[T]
	evictAttr   Extractor[T]
	triggerAttr Extractor[T]
	eventTime   func(T) time.Time
	partitions  *partitionEvictor[T, K]
	tupleCodec  Codec[T]
	keyCodec    Codec[K]

	data      *storage[T, K]
	seq       uint64
	watermark time.Time

	life    *tomb.Tomb
	started bool
}

//New validates the policies and builds the window, punctuation policies are rejected
func New[T any, K comparable](config Config[T, K]) (*Sliding[T, K], error) {
	for _, p := range []Policy{config.Eviction, config.Trigger} {
		if p != nil && p.Kind() == KindPunct {
			return nil, errors.WithMessage(ErrPunctPolicy, p.String())
		}
		if err := Validate(p); err != nil {
			return nil, err
		}
	}
	eviction, evictAttr, err := newEviction[T](config.Eviction)
	if err != nil {
		return nil, errors.WithMessage(err, "eviction")
	}
	trigger, triggerAttr, err := newTrigger[T](config.Trigger)
	if err != nil {
		return nil, errors.WithMessage(err, "trigger")
	}
	if (eviction.clock() == eventClock || trigger.clock() == eventClock) && config.EventTime == nil {
		return nil, errors.WithMessage(ErrInvalidPolicy, "event time policies need an event time extractor")
	}
	w := &Sliding[T, K]{
		name:        config.Name,
		clock:       config.Clock,
		logger:      config.Logger,
		resolution:  config.Resolution,
		eviction:    eviction,
		trigger:     trigger,
		evictAttr:   evictAttr,
		triggerAttr: triggerAttr,
		eventTime:   config.EventTime,
		tupleCodec:  config.TupleCodec,
		keyCodec:    config.KeyCodec,
		data:        newStorage[T, K](),
	}
	if config.PartitionEviction != nil {
		if err = config.PartitionEviction.validate(); err != nil {
			return nil, err
		}
		w.partitions = &partitionEvictor[T, K]{policy: config.PartitionEviction}
	}
	if w.clock == nil {
		w.clock = clock.New()
	}
	if w.logger == nil {
		w.logger = log.Named("window." + w.name)
	}
	if w.tupleCodec == nil {
		w.tupleCodec = CBOR[T]{}
	}
	if w.keyCodec == nil {
		w.keyCodec = CBOR[K]{}
	}
	if w.resolution <= 0 {
		w.resolution = defaultResolution
	}
	for _, p := range []Policy{config.Eviction, config.Trigger} {
		if t, ok := p.(Time); ok && t.Duration < w.resolution {
			w.resolution = t.Duration
		}
	}
	return w, nil
}

func (w *Sliding[T, K]) Name() string {
	return w.name
}

//Insert adds a tuple to a partition, use the zero key for an unpartitioned window.
//Extraction errors leave the window untouched.
func (w *Sliding[T, K]) Insert(tuple T, partition K) error {
	e, err := w.newEntry(tuple)
	if err != nil {
		return err
	}
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.insert(e, partition)
	return nil
}

//InsertPunctuation applies a punctuation, watermarks advance event time and
//final markers run pending time based work, window markers leave the buffers unchanged
func (w *Sliding[T, K]) InsertPunctuation(punct spl.Punctuation, at time.Time) error {
	switch punct {
	case spl.WatermarkMarker:
		w.NotifyWatermark(at)
	case spl.FinalMarker:
		w.Drain()
	case spl.WindowMarker, spl.NoMarker:
	default:
		return errors.Errorf("unknown punctuation %d", punct)
	}
	return nil
}

//NotifyWatermark advances event time, values not above the current watermark are ignored
func (w *Sliding[T, K]) NotifyWatermark(wm time.Time) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if !wm.After(w.watermark) {
		return
	}
	w.watermark = wm
	at := w.instant(eventClock)
	w.tickEviction(at)
	w.tickTrigger(at)
}

func (w *Sliding[T, K]) Watermark() time.Time {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.watermark
}

//Drain runs pending wall clock eviction and trigger work synchronously
func (w *Sliding[T, K]) Drain() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	at := w.instant(wallClock)
	w.tickEviction(at)
	w.tickTrigger(at)
}

//AcquireData returns the live storage, locked while a background task exists.
//Every call must be paired with ReleaseData.
func (w *Sliding[T, K]) AcquireData() Data[T, K] {
	if w.background() {
		w.mutex.Lock()
	}
	return w.data
}

func (w *Sliding[T, K]) ReleaseData() {
	if w.background() {
		w.mutex.Unlock()
	}
}

//WithData runs fn between AcquireData and ReleaseData
func (w *Sliding[T, K]) WithData(fn func(data Data[T, K])) {
	data := w.AcquireData()
	defer w.ReleaseData()
	fn(data)
}

//State returns a copy of the bookkeeping of a partition
func (w *Sliding[T, K]) State(partition K) (PartitionState, bool) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	b, ok := w.data.get(partition)
	if !ok {
		return PartitionState{}, false
	}
	return PartitionState{
		Created:          b.created,
		InitialFull:      b.initialFull,
		LastTrigger:      b.lastTrigger,
		TriggerReference: b.triggerRef,
		SinceEviction:    b.sinceEviction,
		SinceTrigger:     b.sinceTrigger,
	}, true
}

func (w *Sliding[T, K]) background() bool {
	return w.eviction.clock() == wallClock || w.trigger.clock() == wallClock
}
