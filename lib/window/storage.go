package window

import (
	"math"
	"time"

	"github.com/gammazero/deque"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

//View is a read-only view over the tuples of one partition, oldest first
type View[T any] interface {
	Len() int
	At(i int) T
	Tuples() []T
	Range(fn func(i int, tuple T) bool)
}

//Data is a read-only view over every partition of a window
type Data[T any, K comparable] interface {
	Partitions() []K
	Partition(key K) (View[T], bool)
	//Size is the number of live partitions
	Size() int
	//Count is the number of buffered tuples over all partitions
	Count() int
}

type entry[T any] struct {
	seq         uint64
	tuple       T
	evictAttr   float64
	triggerAttr float64
	inserted    time.Time
	eventTime   time.Time
}

//buffer is the FIFO of one partition plus the eviction and trigger state attached to it
type buffer[T any] struct {
	entries *deque.Deque[entry[T]]

	created       time.Time
	initialFull   bool
	triggerRef    float64
	triggerRefSet bool
	lastTrigger   time.Time
	sinceEviction uint64
	sinceTrigger  uint64
}

func newBuffer[T any](created time.Time) *buffer[T] {
	return &buffer[T]{entries: deque.New[entry[T]](), created: created}
}

func (b *buffer[T]) Len() int {
	return b.entries.Len()
}

func (b *buffer[T]) At(i int) T {
	return b.entries.At(i).tuple
}

func (b *buffer[T]) Tuples() []T {
	tuples := make([]T, b.entries.Len())
	for i := range tuples {
		tuples[i] = b.entries.At(i).tuple
	}
	return tuples
}

func (b *buffer[T]) Range(fn func(i int, tuple T) bool) {
	for i := 0; i < b.entries.Len(); i++ {
		if !fn(i, b.entries.At(i).tuple) {
			return
		}
	}
}

func (b *buffer[T]) oldest() entry[T] {
	return b.entries.Front()
}

func (b *buffer[T]) newest() entry[T] {
	return b.entries.Back()
}

//storage maps partition keys to buffer slots, freed slots are reused
type storage[T any, K comparable] struct {
	index  map[K]int
	keys   []K
	slots  []*buffer[T]
	free   []int
	touch  *simplelru.LRU[K, time.Time]
	tuples int
}

func newStorage[T any, K comparable]() *storage[T, K] {
	touch, err := simplelru.NewLRU[K, time.Time](math.MaxInt32, nil)
	if err != nil {
		panic(err)
	}
	return &storage[T, K]{index: map[K]int{}, touch: touch}
}

func (s *storage[T, K]) get(key K) (*buffer[T], bool) {
	i, ok := s.index[key]
	if !ok {
		return nil, false
	}
	return s.slots[i], true
}

func (s *storage[T, K]) create(key K, now time.Time) *buffer[T] {
	b := newBuffer[T](now)
	s.attach(key, b)
	s.touch.Add(key, now)
	return b
}

func (s *storage[T, K]) attach(key K, b *buffer[T]) {
	if n := len(s.free); n > 0 {
		i := s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[i] = b
		s.keys[i] = key
		s.index[key] = i
	} else {
		s.index[key] = len(s.slots)
		s.slots = append(s.slots, b)
		s.keys = append(s.keys, key)
	}
	s.tuples += b.Len()
}

func (s *storage[T, K]) remove(key K) {
	i, ok := s.index[key]
	if !ok {
		return
	}
	var zero K
	s.tuples -= s.slots[i].Len()
	s.slots[i] = nil
	s.keys[i] = zero
	s.free = append(s.free, i)
	delete(s.index, key)
	s.touch.Remove(key)
}

func (s *storage[T, K]) push(b *buffer[T], e entry[T]) {
	b.entries.PushBack(e)
	s.tuples++
}

func (s *storage[T, K]) pop(b *buffer[T]) entry[T] {
	s.tuples--
	return b.entries.PopFront()
}

//touched marks a partition as the most recently used one
func (s *storage[T, K]) touched(key K, now time.Time) {
	s.touch.Add(key, now)
}

//byAge lists partitions from the least to the most recently touched
func (s *storage[T, K]) byAge() []K {
	return s.touch.Keys()
}

func (s *storage[T, K]) lastTouch(key K) time.Time {
	t, _ := s.touch.Peek(key)
	return t
}

//each visits the live partitions in slot order
func (s *storage[T, K]) each(fn func(key K, b *buffer[T])) {
	for i, b := range s.slots {
		if b != nil {
			fn(s.keys[i], b)
		}
	}
}

func (s *storage[T, K]) clear() {
	s.index = map[K]int{}
	s.keys = nil
	s.slots = nil
	s.free = nil
	s.touch.Purge()
	s.tuples = 0
}

func (s *storage[T, K]) Partitions() []K {
	keys := make([]K, 0, len(s.index))
	for i, b := range s.slots {
		if b != nil {
			keys = append(keys, s.keys[i])
		}
	}
	return keys
}

func (s *storage[T, K]) Partition(key K) (View[T], bool) {
	b, ok := s.get(key)
	if !ok {
		return nil, false
	}
	return b, true
}

func (s *storage[T, K]) Size() int {
	return len(s.index)
}

func (s *storage[T, K]) Count() int {
	return s.tuples
}
