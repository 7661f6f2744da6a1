package window

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

//Kind classifies a window policy
type Kind uint8

const (
	KindCount Kind = iota + 1
	KindDelta
	KindTime
	KindPunct
	KindEventTime
)

func (k Kind) String() string {
	switch k {
	case KindCount:
		return "count"
	case KindDelta:
		return "delta"
	case KindTime:
		return "time"
	case KindPunct:
		return "punct"
	case KindEventTime:
		return "event-time"
	default:
		return "unknown"
	}
}

//Policy is an eviction or trigger bound, one of Count, Delta, Time, Punct or EventTime
type Policy interface {
	Kind() Kind
	String() string
	validate() error
}

//Extractor returns the numeric attribute a delta policy compares
type Extractor[T any] func(tuple T) (float64, error)

//Count bounds a partition by its number of tuples
type Count struct {
	Size int
}

func (c Count) Kind() Kind { return KindCount }

func (c Count) String() string { return fmt.Sprintf("count(%d)", c.Size) }

func (c Count) validate() error {
	if c.Size <= 0 {
		return errors.WithMessagef(ErrInvalidPolicy, "count size must be positive, got %d", c.Size)
	}
	return nil
}

//Delta bounds a partition by the spread of an attribute between its newest and oldest tuple
type Delta[T any] struct {
	Bound   float64
	Extract Extractor[T]
}

func (d Delta[T]) Kind() Kind { return KindDelta }

func (d Delta[T]) String() string { return fmt.Sprintf("delta(%g)", d.Bound) }

func (d Delta[T]) validate() error {
	if d.Extract == nil {
		return errors.WithMessage(ErrInvalidPolicy, "delta policy needs an extractor")
	}
	if d.Bound < 0 {
		return errors.WithMessagef(ErrInvalidPolicy, "delta bound must not be negative, got %g", d.Bound)
	}
	return nil
}

//Time bounds a partition by wall-clock age, or triggers periodically
type Time struct {
	Duration time.Duration
}

func (t Time) Kind() Kind { return KindTime }

func (t Time) String() string { return fmt.Sprintf("time(%s)", t.Duration) }

func (t Time) validate() error {
	if t.Duration <= 0 {
		return errors.WithMessagef(ErrInvalidPolicy, "time duration must be positive, got %s", t.Duration)
	}
	return nil
}

//Punct is the punctuation policy of tumbling windows
type Punct struct{}

func (p Punct) Kind() Kind { return KindPunct }

func (p Punct) String() string { return "punct" }

func (p Punct) validate() error { return nil }

//EventTime bounds a partition by event-time age measured against the watermark,
//or triggers on every watermark crossing of a multiple of Duration
type EventTime struct {
	Duration time.Duration
}

func (e EventTime) Kind() Kind { return KindEventTime }

func (e EventTime) String() string { return fmt.Sprintf("event-time(%s)", e.Duration) }

func (e EventTime) validate() error {
	if e.Duration <= 0 {
		return errors.WithMessagef(ErrInvalidPolicy, "event time duration must be positive, got %s", e.Duration)
	}
	return nil
}

//Validate checks the bound carried by a policy
func Validate(p Policy) error {
	if p == nil {
		return errors.WithMessage(ErrInvalidPolicy, "policy is nil")
	}
	return p.validate()
}

func errUnknownPolicy(p Policy) error {
	if p.Kind() == KindDelta {
		return errors.WithMessagef(ErrInvalidPolicy, "%s does not extract from the window tuple type", p)
	}
	return errors.WithMessagef(ErrInvalidPolicy, "unsupported policy %s", p)
}
