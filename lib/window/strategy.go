package window

import (
	"time"
)

type clockSource uint8

const (
	noClock clockSource = iota
	wallClock
	eventClock
)

//instant is the time a strategy is evaluated at
type instant struct {
	now       time.Time
	watermark time.Time
	//source is the clock whose tick caused the evaluation, noClock on insertion
	source clockSource
}

type evictionStrategy[T any] interface {
	kind() Kind
	clock() clockSource
	//onInsert reports whether an insertion evaluates the eviction predicate
	onInsert(b *buffer[T], at instant) bool
	//onTimerTick reports whether a clock tick evaluates the eviction predicate
	onTimerTick(b *buffer[T], at instant) bool
	//predicateHolds reports whether the oldest tuple has to leave
	predicateHolds(b *buffer[T], at instant) bool
	//full reports whether the partition reached its bound, evicted is the size of the last eviction batch
	full(b *buffer[T], evicted int) bool
}

type triggerStrategy[T any] interface {
	kind() Kind
	clock() clockSource
	//onCreate initializes trigger state of a new partition from its first entry
	onCreate(b *buffer[T], first entry[T], at instant)
	onInsert(b *buffer[T], at instant) bool
	onTimerTick(b *buffer[T], at instant) bool
	predicateHolds(b *buffer[T], at instant) bool
	//fired records a trigger and returns its logical time
	fired(b *buffer[T], at instant) time.Time
}

type countEviction[T any] struct {
	size int
}

func (c countEviction[T]) kind() Kind                           { return KindCount }
func (c countEviction[T]) clock() clockSource                   { return noClock }
func (c countEviction[T]) onInsert(*buffer[T], instant) bool    { return true }
func (c countEviction[T]) onTimerTick(*buffer[T], instant) bool { return false }

func (c countEviction[T]) predicateHolds(b *buffer[T], _ instant) bool {
	return b.Len() > c.size
}

func (c countEviction[T]) full(b *buffer[T], _ int) bool {
	return b.Len() >= c.size
}

type deltaEviction[T any] struct {
	bound float64
}

func (d deltaEviction[T]) kind() Kind                           { return KindDelta }
func (d deltaEviction[T]) clock() clockSource                   { return noClock }
func (d deltaEviction[T]) onInsert(*buffer[T], instant) bool    { return true }
func (d deltaEviction[T]) onTimerTick(*buffer[T], instant) bool { return false }

func (d deltaEviction[T]) predicateHolds(b *buffer[T], _ instant) bool {
	return b.Len() > 0 && b.newest().evictAttr-b.oldest().evictAttr > d.bound
}

func (d deltaEviction[T]) full(_ *buffer[T], evicted int) bool {
	return evicted > 0
}

type timeEviction[T any] struct {
	duration time.Duration
}

func (t timeEviction[T]) kind() Kind                        { return KindTime }
func (t timeEviction[T]) clock() clockSource                { return wallClock }
func (t timeEviction[T]) onInsert(*buffer[T], instant) bool { return false }

func (t timeEviction[T]) onTimerTick(_ *buffer[T], at instant) bool {
	return at.source == wallClock
}

func (t timeEviction[T]) predicateHolds(b *buffer[T], at instant) bool {
	return b.Len() > 0 && at.now.Sub(b.oldest().inserted) > t.duration
}

func (t timeEviction[T]) full(_ *buffer[T], evicted int) bool {
	return evicted > 0
}

type eventTimeEviction[T any] struct {
	duration time.Duration
}

func (e eventTimeEviction[T]) kind() Kind                        { return KindEventTime }
func (e eventTimeEviction[T]) clock() clockSource                { return eventClock }
func (e eventTimeEviction[T]) onInsert(*buffer[T], instant) bool { return true }

func (e eventTimeEviction[T]) onTimerTick(_ *buffer[T], at instant) bool {
	return at.source == eventClock
}

func (e eventTimeEviction[T]) predicateHolds(b *buffer[T], at instant) bool {
	if b.Len() == 0 || at.watermark.IsZero() {
		return false
	}
	return at.watermark.Sub(b.oldest().eventTime) > e.duration
}

func (e eventTimeEviction[T]) full(_ *buffer[T], evicted int) bool {
	return evicted > 0
}

type countTrigger[T any] struct {
	size int
}

func (c countTrigger[T]) kind() Kind         { return KindCount }
func (c countTrigger[T]) clock() clockSource { return noClock }
func (c countTrigger[T]) onCreate(*buffer[T], entry[T], instant)     {}
func (c countTrigger[T]) onInsert(*buffer[T], instant) bool           { return true }
func (c countTrigger[T]) onTimerTick(*buffer[T], instant) bool        { return false }
func (c countTrigger[T]) fired(_ *buffer[T], at instant) time.Time    { return at.now }
func (c countTrigger[T]) predicateHolds(b *buffer[T], _ instant) bool { return b.Len() >= c.size }

//deltaTrigger fires when the newest attribute moved more than bound away from the
//attribute of the tuple that fired last, the first tuple of a partition is the initial reference
type deltaTrigger[T any] struct {
	bound float64
}

func (d deltaTrigger[T]) kind() Kind                           { return KindDelta }
func (d deltaTrigger[T]) clock() clockSource                   { return noClock }
func (d deltaTrigger[T]) onInsert(*buffer[T], instant) bool    { return true }
func (d deltaTrigger[T]) onTimerTick(*buffer[T], instant) bool { return false }

func (d deltaTrigger[T]) onCreate(b *buffer[T], first entry[T], _ instant) {
	b.triggerRef = first.triggerAttr
	b.triggerRefSet = true
}

func (d deltaTrigger[T]) predicateHolds(b *buffer[T], _ instant) bool {
	return b.Len() > 0 && b.triggerRefSet && b.newest().triggerAttr-b.triggerRef > d.bound
}

func (d deltaTrigger[T]) fired(b *buffer[T], at instant) time.Time {
	b.triggerRef = b.newest().triggerAttr
	b.triggerRefSet = true
	return at.now
}

type timeTrigger[T any] struct {
	period time.Duration
}

func (t timeTrigger[T]) kind() Kind                        { return KindTime }
func (t timeTrigger[T]) clock() clockSource                { return wallClock }
func (t timeTrigger[T]) onInsert(*buffer[T], instant) bool { return false }

func (t timeTrigger[T]) onCreate(b *buffer[T], _ entry[T], at instant) {
	b.lastTrigger = at.now
}

func (t timeTrigger[T]) onTimerTick(_ *buffer[T], at instant) bool {
	return at.source == wallClock
}

func (t timeTrigger[T]) predicateHolds(b *buffer[T], at instant) bool {
	return at.now.Sub(b.lastTrigger) >= t.period
}

func (t timeTrigger[T]) fired(b *buffer[T], at instant) time.Time {
	b.lastTrigger = at.now
	return at.now
}

//eventTimeTrigger fires once per watermark advance that crosses the next multiple of period
type eventTimeTrigger[T any] struct {
	period time.Duration
}

func (e eventTimeTrigger[T]) kind() Kind                        { return KindEventTime }
func (e eventTimeTrigger[T]) clock() clockSource                { return eventClock }
func (e eventTimeTrigger[T]) onInsert(*buffer[T], instant) bool { return false }

func (e eventTimeTrigger[T]) onCreate(b *buffer[T], first entry[T], _ instant) {
	b.lastTrigger = alignDown(first.eventTime, e.period)
}

func (e eventTimeTrigger[T]) onTimerTick(_ *buffer[T], at instant) bool {
	return at.source == eventClock
}

func (e eventTimeTrigger[T]) predicateHolds(b *buffer[T], at instant) bool {
	if at.watermark.IsZero() {
		return false
	}
	return !at.watermark.Before(b.lastTrigger.Add(e.period))
}

func (e eventTimeTrigger[T]) fired(b *buffer[T], at instant) time.Time {
	b.lastTrigger = alignDown(at.watermark, e.period)
	return b.lastTrigger
}

//alignDown rounds t down to a multiple of d counted from the unix epoch
func alignDown(t time.Time, d time.Duration) time.Time {
	nanos := t.UnixNano()
	rem := nanos % int64(d)
	if rem < 0 {
		rem += int64(d)
	}
	return time.Unix(0, nanos-rem).UTC()
}

func newEviction[T any](p Policy) (evictionStrategy[T], Extractor[T], error) {
	switch policy := p.(type) {
	case Count:
		return countEviction[T]{size: policy.Size}, nil, nil
	case Delta[T]:
		return deltaEviction[T]{bound: policy.Bound}, policy.Extract, nil
	case Time:
		return timeEviction[T]{duration: policy.Duration}, nil, nil
	case EventTime:
		return eventTimeEviction[T]{duration: policy.Duration}, nil, nil
	case Punct:
		return nil, nil, ErrPunctPolicy
	default:
		return nil, nil, errUnknownPolicy(p)
	}
}

func newTrigger[T any](p Policy) (triggerStrategy[T], Extractor[T], error) {
	switch policy := p.(type) {
	case Count:
		return countTrigger[T]{size: policy.Size}, nil, nil
	case Delta[T]:
		return deltaTrigger[T]{bound: policy.Bound}, policy.Extract, nil
	case Time:
		return timeTrigger[T]{period: policy.Duration}, nil, nil
	case EventTime:
		return eventTimeTrigger[T]{period: policy.Duration}, nil, nil
	case Punct:
		return nil, nil, ErrPunctPolicy
	default:
		return nil, nil, errUnknownPolicy(p)
	}
}
