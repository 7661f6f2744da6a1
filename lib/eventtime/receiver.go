package eventtime

import (
	"sync"
	"time"
)

//Receiver merges the watermarks of several input connections, the input watermark is
//the minimum over all connections and never moves backwards
type Receiver struct {
	mutex       sync.Mutex
	connections map[string]time.Time
	current     time.Time
}

//NewReceiver expects watermarks from every named connection before the minimum can advance,
//connections seen later are added on their first watermark
func NewReceiver(connections ...string) *Receiver {
	r := &Receiver{connections: map[string]time.Time{}}
	for _, connection := range connections {
		r.connections[connection] = time.Time{}
	}
	return r
}

//Expect adds a connection that holds the input watermark back until it reports one
func (r *Receiver) Expect(connection string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.connections[connection]; !ok {
		r.connections[connection] = time.Time{}
	}
}

//Receive records the watermark of a connection and returns the input watermark when it advanced
func (r *Receiver) Receive(connection string, wm time.Time) (time.Time, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if last, ok := r.connections[connection]; ok && !wm.After(last) {
		return r.current, false
	}
	r.connections[connection] = wm
	lowest := wm
	for _, value := range r.connections {
		if value.Before(lowest) {
			lowest = value
		}
	}
	if !lowest.After(r.current) {
		return r.current, false
	}
	r.current = lowest
	return lowest, true
}

func (r *Receiver) Watermark() time.Time {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.current
}

//Reset forgets every received watermark, the expected connections stay
func (r *Receiver) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for connection := range r.connections {
		r.connections[connection] = time.Time{}
	}
	r.current = time.Time{}
}
