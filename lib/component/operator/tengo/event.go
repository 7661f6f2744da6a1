package tengo

import (
	"fmt"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/pkg/errors"

	"spl/spl"
)

//eventObject exposes an event to scripts as `meta`, `message`, `time` and the read only `punct`
type eventObject struct {
	tengo.ObjectImpl
	meta    *tengo.Map
	message tengo.Object
	time    *tengo.Time
	punct   string
}

func emptyEventObject() *eventObject {
	return &eventObject{
		meta:    &tengo.Map{Value: map[string]tengo.Object{}},
		message: tengo.UndefinedValue,
		time:    &tengo.Time{Value: time.Time{}},
		punct:   spl.NoMarker.String(),
	}
}

func (e *eventObject) TypeName() string {
	return "event"
}

func (e *eventObject) String() string {
	return fmt.Sprintf("<event %s>", e.message.String())
}

func (e *eventObject) IsFalsy() bool {
	return e.message.IsFalsy() && e.meta.IsFalsy() && e.time.IsFalsy()
}

func (e *eventObject) Copy() tengo.Object {
	return &eventObject{
		meta:    e.meta.Copy().(*tengo.Map),
		message: e.message.Copy(),
		time:    &tengo.Time{Value: e.time.Value},
		punct:   e.punct,
	}
}

func (e *eventObject) IndexGet(index tengo.Object) (tengo.Object, error) {
	key, ok := tengo.ToString(index)
	if !ok {
		return nil, tengo.ErrInvalidIndexType
	}
	switch key {
	case "meta":
		return e.meta, nil
	case "message":
		return e.message, nil
	case "time":
		return e.time, nil
	case "punct":
		return &tengo.String{Value: e.punct}, nil
	}
	return tengo.UndefinedValue, nil
}

func (e *eventObject) IndexSet(index, value tengo.Object) error {
	key, ok := tengo.ToString(index)
	if !ok {
		return tengo.ErrInvalidIndexType
	}
	switch key {
	case "meta":
		meta, ok := value.(*tengo.Map)
		if !ok {
			return errors.Errorf("event meta must be a map, got %s", value.TypeName())
		}
		e.meta = meta
	case "message":
		e.message = value
	case "time":
		t, ok := value.(*tengo.Time)
		if !ok {
			return errors.Errorf("event time must be a time, got %s", value.TypeName())
		}
		e.time = t
	default:
		return errors.Errorf("event has no settable field %s", key)
	}
	return nil
}

func toEventObject(event *spl.Event) (*eventObject, error) {
	message, err := tengo.FromInterface(event.Message)
	if err != nil {
		return nil, errors.WithMessage(err, "message can't convert to tengo type")
	}
	meta := make(map[string]tengo.Object, len(event.Meta))
	for key, value := range event.Meta {
		if meta[key], err = tengo.FromInterface(value); err != nil {
			return nil, errors.WithMessagef(err, "meta %s can't convert to tengo type", key)
		}
	}
	return &eventObject{
		meta:    &tengo.Map{Value: meta},
		message: message,
		time:    &tengo.Time{Value: event.Time},
		punct:   event.Punct.String(),
	}, nil
}

func toEventArray(events []*spl.Event) (*tengo.ImmutableArray, error) {
	values := make([]tengo.Object, len(events))
	for i, event := range events {
		object, err := toEventObject(event)
		if err != nil {
			return nil, errors.WithMessagef(err, "event %d", i)
		}
		values[i] = object
	}
	return &tengo.ImmutableArray{Value: values}, nil
}

//toEvent keeps the punctuation and private data of the source event
func (e *eventObject) toEvent(source *spl.Event) *spl.Event {
	meta := make(map[string]any, len(e.meta.Value))
	for key, value := range e.meta.Value {
		meta[key] = tengo.ToInterface(value)
	}
	return &spl.Event{
		Meta:    meta,
		Message: tengo.ToInterface(e.message),
		Time:    e.time.Value,
		Punct:   source.Punct,
		Private: source.Private,
	}
}
