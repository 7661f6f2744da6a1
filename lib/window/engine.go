package window

import (
	"github.com/pkg/errors"
)

//newEntry runs every extractor before the window is touched
func (w *Sliding[T, K]) newEntry(tuple T) (entry[T], error) {
	e := entry[T]{tuple: tuple}
	var err error
	if w.evictAttr != nil {
		if e.evictAttr, err = w.evictAttr(tuple); err != nil {
			return e, errors.WithMessage(ErrExtractor, err.Error())
		}
	}
	if w.triggerAttr != nil {
		if e.triggerAttr, err = w.triggerAttr(tuple); err != nil {
			return e, errors.WithMessage(ErrExtractor, err.Error())
		}
	}
	if w.eventTime != nil {
		e.eventTime = w.eventTime(tuple)
	}
	return e, nil
}

func (w *Sliding[T, K]) instant(source clockSource) instant {
	return instant{now: w.clock.Now(), watermark: w.watermark, source: source}
}

//insert appends under the lock: partition eviction, insertion, eviction, trigger, partition eviction
func (w *Sliding[T, K]) insert(e entry[T], partition K) {
	at := w.instant(noClock)
	b, exists := w.data.get(partition)
	if w.partitions != nil {
		w.dropPartitions(w.partitions.before(w.data, partition, exists, at.now, w.selection), at)
		b, exists = w.data.get(partition)
	}

	w.seq++
	e.seq = w.seq
	e.inserted = at.now
	w.emitBeforeInsertion(e.tuple, partition)
	if !exists {
		b = w.data.create(partition, at.now)
		w.trigger.onCreate(b, e, at)
	} else {
		w.data.touched(partition, at.now)
	}
	w.data.push(b, e)
	b.sinceEviction++
	b.sinceTrigger++
	w.emitAfterInsertion(e.tuple, partition)

	if w.eviction.onInsert(b, at) {
		w.evict(partition, b, at)
	}
	if w.trigger.onInsert(b, at) {
		w.fire(partition, b, at)
	}

	if w.partitions != nil {
		w.dropPartitions(w.partitions.after(w.data, partition, w.selection), at)
	}
}

//evict pops the oldest tuples while the eviction predicate holds
func (w *Sliding[T, K]) evict(partition K, b *buffer[T], at instant) {
	evicted := 0
	for w.eviction.predicateHolds(b, at) {
		oldest := b.oldest()
		w.emitBeforeEviction(oldest.tuple, partition)
		w.data.pop(b)
		w.emitAfterEviction(oldest.tuple, partition)
		evicted++
	}
	if evicted > 0 {
		b.sinceEviction = 0
	}
	if !b.initialFull && w.eviction.full(b, evicted) {
		b.initialFull = true
		w.emitInitialFull(Event[T, K]{Partition: partition, Data: b, Time: at.now})
	}
}

func (w *Sliding[T, K]) fire(partition K, b *buffer[T], at instant) {
	if !w.trigger.predicateHolds(b, at) {
		return
	}
	triggered := w.trigger.fired(b, at)
	b.sinceTrigger = 0
	w.emitTrigger(Event[T, K]{Partition: partition, Data: b, Time: triggered})
}

func (w *Sliding[T, K]) tickEviction(at instant) {
	w.data.each(func(partition K, b *buffer[T]) {
		if w.eviction.onTimerTick(b, at) {
			w.evict(partition, b, at)
		}
	})
}

func (w *Sliding[T, K]) tickTrigger(at instant) {
	w.data.each(func(partition K, b *buffer[T]) {
		if w.trigger.onTimerTick(b, at) {
			w.fire(partition, b, at)
		}
	})
}

//dropPartitions notifies and removes whole partitions
func (w *Sliding[T, K]) dropPartitions(victims []K, at instant) {
	for _, partition := range victims {
		b, ok := w.data.get(partition)
		if !ok {
			continue
		}
		w.emitPartitionEviction(Event[T, K]{Partition: partition, Data: b, Time: at.now})
		w.data.remove(partition)
		w.logger.Debugw("partition evicted.", "partition", partition, "tuples", b.Len())
	}
}
