package window

import (
	"time"

	"spl/lib/checkpoint"
	"spl/spl"
)

//Window is implemented by Sliding and Interval windows
type Window[T any, K comparable] interface {
	Name() string
	Insert(tuple T, partition K) error
	InsertPunctuation(punct spl.Punctuation, at time.Time) error
	NotifyWatermark(wm time.Time)
	Watermark() time.Time
	Drain()

	Checkpoint(ckpt *checkpoint.Checkpoint) error
	Reset(ckpt *checkpoint.Checkpoint) error
	ResetToInitialState() error

	Start()
	Shutdown()
	Join() error

	RegisterBeforeTupleInsertionHandler(fn TupleHandler[T, K]) TupleHandler[T, K]
	RegisterAfterTupleInsertionHandler(fn TupleHandler[T, K]) TupleHandler[T, K]
	RegisterTriggerHandler(fn EventHandler[T, K]) EventHandler[T, K]
	RegisterInitialFullHandler(fn EventHandler[T, K]) EventHandler[T, K]
	RegisterCheckpointHandler(fn SerializationHandler) SerializationHandler
	RegisterResetHandler(fn SerializationHandler) SerializationHandler
	RegisterResetToInitialStateHandler(fn func() error) func() error
}

var (
	_ Window[int, string] = (*Sliding[int, string])(nil)
	_ Window[int, string] = (*Interval[int, string])(nil)
)
