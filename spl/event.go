package spl

import (
	"time"
)

//Punctuation marks an event that carries no message
type Punctuation uint8

const (
	//NoMarker is an ordinary tuple
	NoMarker Punctuation = iota
	//WindowMarker closes a logical window of tuples
	WindowMarker
	//FinalMarker is sent once when a stream ends
	FinalMarker
	//WatermarkMarker carries a watermark in Event.Time
	WatermarkMarker
)

func (p Punctuation) String() string {
	switch p {
	case NoMarker:
		return "none"
	case WindowMarker:
		return "window"
	case FinalMarker:
		return "final"
	case WatermarkMarker:
		return "watermark"
	default:
		return "unknown"
	}
}

//Event is not thread safety
type Event struct {
	Meta    map[string]any `json:"meta"`
	Message any            `json:"message"`
	//Time is the event time, or the watermark value of a watermark punctuation
	Time  time.Time   `json:"time"`
	Punct Punctuation `json:"punct,omitempty"`

	// for spl private use
	Private map[string]any `json:"-"`
}

//IsPunct reports whether the event is a punctuation rather than a tuple
func (e *Event) IsPunct() bool {
	return e.Punct != NoMarker
}

//NewWatermark builds a watermark punctuation
func NewWatermark(wm time.Time) *Event {
	return &Event{Punct: WatermarkMarker, Time: wm}
}

const (
	PrivateACKHandler = "$private_ack_handler"
)

type ACKHandler func()

type ACKer interface {
	OnACK(event *Event, ok bool)
	Close()
}

type simpleACKer struct{}

func (n *simpleACKer) OnACK(event *Event, _ bool) {
	if event.Private != nil {
		if ackHandler, ok := event.Private[PrivateACKHandler]; ok {
			if handler, ok := ackHandler.(ACKHandler); ok {
				handler()
			}
		}
	}

}

func (n *simpleACKer) Close() {}

func NewACKer() ACKer {
	return &simpleACKer{}
}
