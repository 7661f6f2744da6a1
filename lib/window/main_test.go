package window

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

//recorder collects the events of a window, handlers run under the window lock
type recorder[T any, K comparable] struct {
	inserted    []T
	evicted     []T
	triggers    [][]T
	triggerAt   []Event[T, K]
	initialFull []K
	dropped     []K
}

func record[T any, K comparable](w *Sliding[T, K]) *recorder[T, K] {
	r := &recorder[T, K]{}
	w.RegisterAfterTupleInsertionHandler(func(tuple T, _ K) {
		r.inserted = append(r.inserted, tuple)
	})
	w.RegisterAfterTupleEvictionHandler(func(tuple T, _ K) {
		r.evicted = append(r.evicted, tuple)
	})
	w.RegisterTriggerHandler(func(event Event[T, K]) {
		r.triggers = append(r.triggers, event.Data.Tuples())
		r.triggerAt = append(r.triggerAt, event)
	})
	w.RegisterInitialFullHandler(func(event Event[T, K]) {
		r.initialFull = append(r.initialFull, event.Partition)
	})
	w.RegisterPartitionEvictionHandler(func(event Event[T, K]) {
		r.dropped = append(r.dropped, event.Partition)
	})
	return r
}

func contents[T any, K comparable](w *Sliding[T, K], partition K) (tuples []T) {
	w.WithData(func(data Data[T, K]) {
		if view, ok := data.Partition(partition); ok {
			tuples = view.Tuples()
		}
	})
	return tuples
}

func identity(v int) (float64, error) {
	return float64(v), nil
}
