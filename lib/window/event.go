package window

import (
	"time"

	"spl/lib/checkpoint"
)

//TupleHandler observes a single tuple entering or leaving a partition
type TupleHandler[T any, K comparable] func(tuple T, partition K)

//Event is passed to partition level handlers
type Event[T any, K comparable] struct {
	Partition K
	Data      View[T]
	//Time is the logical time of the event: the clock for count, delta and time policies,
	//the crossed watermark boundary for event-time triggers
	Time time.Time
	//Pane is set by interval windows only
	Pane *Pane
}

type EventHandler[T any, K comparable] func(event Event[T, K])

//Candidate describes a partition offered to a SelectionHandler
type Candidate[K comparable] struct {
	Partition K
	LastTouch time.Time
	Count     int
}

//SelectionHandler picks partitions to evict, candidates are ordered from least to most recently touched
type SelectionHandler[K comparable] func(candidates []Candidate[K]) []K

//SerializationHandler writes or reads operator state next to the window state
type SerializationHandler func(ckpt *checkpoint.Checkpoint) error

type handlers[T any, K comparable] struct {
	beforeInsertion   TupleHandler[T, K]
	afterInsertion    TupleHandler[T, K]
	beforeEviction    TupleHandler[T, K]
	afterEviction     TupleHandler[T, K]
	trigger           EventHandler[T, K]
	initialFull       EventHandler[T, K]
	partitionEviction EventHandler[T, K]
	beforeClose       EventHandler[T, K]
	selection         SelectionHandler[K]
	onCheckpoint      SerializationHandler
	onReset           SerializationHandler
	onResetToInitial  func() error
}

// Handlers are invoked synchronously under the window lock and must not call back into the window.
// Register them before Start and before the first insertion.

func (h *handlers[T, K]) RegisterBeforeTupleInsertionHandler(fn TupleHandler[T, K]) TupleHandler[T, K] {
	old := h.beforeInsertion
	h.beforeInsertion = fn
	return old
}

func (h *handlers[T, K]) RegisterAfterTupleInsertionHandler(fn TupleHandler[T, K]) TupleHandler[T, K] {
	old := h.afterInsertion
	h.afterInsertion = fn
	return old
}

func (h *handlers[T, K]) RegisterBeforeTupleEvictionHandler(fn TupleHandler[T, K]) TupleHandler[T, K] {
	old := h.beforeEviction
	h.beforeEviction = fn
	return old
}

func (h *handlers[T, K]) RegisterAfterTupleEvictionHandler(fn TupleHandler[T, K]) TupleHandler[T, K] {
	old := h.afterEviction
	h.afterEviction = fn
	return old
}

func (h *handlers[T, K]) RegisterTriggerHandler(fn EventHandler[T, K]) EventHandler[T, K] {
	old := h.trigger
	h.trigger = fn
	return old
}

func (h *handlers[T, K]) RegisterInitialFullHandler(fn EventHandler[T, K]) EventHandler[T, K] {
	old := h.initialFull
	h.initialFull = fn
	return old
}

//RegisterPartitionEvictionHandler is called with the final contents of a partition right before it is dropped
func (h *handlers[T, K]) RegisterPartitionEvictionHandler(fn EventHandler[T, K]) EventHandler[T, K] {
	old := h.partitionEviction
	h.partitionEviction = fn
	return old
}

func (h *handlers[T, K]) RegisterPartitionSelectionHandler(fn SelectionHandler[K]) SelectionHandler[K] {
	old := h.selection
	h.selection = fn
	return old
}

func (h *handlers[T, K]) RegisterCheckpointHandler(fn SerializationHandler) SerializationHandler {
	old := h.onCheckpoint
	h.onCheckpoint = fn
	return old
}

func (h *handlers[T, K]) RegisterResetHandler(fn SerializationHandler) SerializationHandler {
	old := h.onReset
	h.onReset = fn
	return old
}

func (h *handlers[T, K]) RegisterResetToInitialStateHandler(fn func() error) func() error {
	old := h.onResetToInitial
	h.onResetToInitial = fn
	return old
}

func (h *handlers[T, K]) emitBeforeInsertion(tuple T, partition K) {
	if h.beforeInsertion != nil {
		h.beforeInsertion(tuple, partition)
	}
}

func (h *handlers[T, K]) emitAfterInsertion(tuple T, partition K) {
	if h.afterInsertion != nil {
		h.afterInsertion(tuple, partition)
	}
}

func (h *handlers[T, K]) emitBeforeEviction(tuple T, partition K) {
	if h.beforeEviction != nil {
		h.beforeEviction(tuple, partition)
	}
}

func (h *handlers[T, K]) emitAfterEviction(tuple T, partition K) {
	if h.afterEviction != nil {
		h.afterEviction(tuple, partition)
	}
}

func (h *handlers[T, K]) emitTrigger(event Event[T, K]) {
	if h.trigger != nil {
		h.trigger(event)
	}
}

func (h *handlers[T, K]) emitInitialFull(event Event[T, K]) {
	if h.initialFull != nil {
		h.initialFull(event)
	}
}

func (h *handlers[T, K]) emitPartitionEviction(event Event[T, K]) {
	if h.partitionEviction != nil {
		h.partitionEviction(event)
	}
}

func (h *handlers[T, K]) emitBeforeClose(event Event[T, K]) {
	if h.beforeClose != nil {
		h.beforeClose(event)
	}
}
