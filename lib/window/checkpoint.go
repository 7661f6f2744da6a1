package window

import (
	"time"

	"github.com/pkg/errors"

	"spl/lib/checkpoint"
)

const slidingMarker = "SlidingWindow"

type entrySnapshot struct {
	Seq         uint64
	Tuple       []byte
	EvictAttr   float64
	TriggerAttr float64
	Inserted    time.Time
	EventTime   time.Time
}

type partitionSnapshot struct {
	Key           []byte
	Created       time.Time
	LastTouch     time.Time
	InitialFull   bool
	TriggerRef    float64
	TriggerRefSet bool
	LastTrigger   time.Time
	SinceEviction uint64
	SinceTrigger  uint64
	Entries       []entrySnapshot
}

type slidingSnapshot struct {
	Policies  string
	Seq       uint64
	Watermark time.Time
	//Partitions are ordered from the least to the most recently touched
	Partitions []partitionSnapshot
}

//Checkpoint writes every partition with its bookkeeping, then lets the checkpoint handler append operator state
func (w *Sliding[T, K]) Checkpoint(ckpt *checkpoint.Checkpoint) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	snapshot, err := w.snapshot()
	if err != nil {
		return err
	}
	if err = ckpt.PutMarker(slidingMarker); err != nil {
		return err
	}
	if err = ckpt.Put(snapshot); err != nil {
		return err
	}
	if w.onCheckpoint != nil {
		return w.onCheckpoint(ckpt)
	}
	return nil
}

//Reset replaces the window state with a checkpoint, the live state is kept when reading fails
func (w *Sliding[T, K]) Reset(ckpt *checkpoint.Checkpoint) error {
	if err := ckpt.ExpectMarker(slidingMarker); err != nil {
		return errors.WithMessage(ErrCheckpointMarker, err.Error())
	}
	var snapshot slidingSnapshot
	if err := ckpt.Get(&snapshot); err != nil {
		return err
	}
	if snapshot.Policies != w.policies() {
		return errors.WithMessagef(ErrCheckpointMarker, "checkpoint of %s can't reset %s", snapshot.Policies, w.policies())
	}
	data, err := w.restore(snapshot)
	if err != nil {
		return err
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.onReset != nil {
		if err = w.onReset(ckpt); err != nil {
			return err
		}
	}
	w.data = data
	w.seq = snapshot.Seq
	w.watermark = snapshot.Watermark
	return nil
}

//ResetToInitialState drops every partition and counter as if the window was just built
func (w *Sliding[T, K]) ResetToInitialState() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.data.clear()
	w.seq = 0
	w.watermark = time.Time{}
	if w.onResetToInitial != nil {
		return w.onResetToInitial()
	}
	return nil
}

func (w *Sliding[T, K]) policies() string {
	return w.eviction.kind().String() + "/" + w.trigger.kind().String()
}

func (w *Sliding[T, K]) snapshot() (slidingSnapshot, error) {
	snapshot := slidingSnapshot{
		Policies:   w.policies(),
		Seq:        w.seq,
		Watermark:  w.watermark,
		Partitions: make([]partitionSnapshot, 0, w.data.Size()),
	}
	for _, partition := range w.data.byAge() {
		b, _ := w.data.get(partition)
		key, err := w.keyCodec.Marshal(partition)
		if err != nil {
			return snapshot, errors.WithMessagef(err, "can't encode partition %v", partition)
		}
		ps := partitionSnapshot{
			Key:           key,
			Created:       b.created,
			LastTouch:     w.data.lastTouch(partition),
			InitialFull:   b.initialFull,
			TriggerRef:    b.triggerRef,
			TriggerRefSet: b.triggerRefSet,
			LastTrigger:   b.lastTrigger,
			SinceEviction: b.sinceEviction,
			SinceTrigger:  b.sinceTrigger,
			Entries:       make([]entrySnapshot, 0, b.Len()),
		}
		for i := 0; i < b.Len(); i++ {
			e := b.entries.At(i)
			tuple, err := w.tupleCodec.Marshal(e.tuple)
			if err != nil {
				return snapshot, errors.WithMessagef(err, "can't encode tuple %d of partition %v", e.seq, partition)
			}
			ps.Entries = append(ps.Entries, entrySnapshot{
				Seq:         e.seq,
				Tuple:       tuple,
				EvictAttr:   e.evictAttr,
				TriggerAttr: e.triggerAttr,
				Inserted:    e.inserted,
				EventTime:   e.eventTime,
			})
		}
		snapshot.Partitions = append(snapshot.Partitions, ps)
	}
	return snapshot, nil
}

func (w *Sliding[T, K]) restore(snapshot slidingSnapshot) (*storage[T, K], error) {
	data := newStorage[T, K]()
	for _, ps := range snapshot.Partitions {
		partition, err := w.keyCodec.Unmarshal(ps.Key)
		if err != nil {
			return nil, errors.WithMessage(err, "can't decode partition")
		}
		b := newBuffer[T](ps.Created)
		b.initialFull = ps.InitialFull
		b.triggerRef = ps.TriggerRef
		b.triggerRefSet = ps.TriggerRefSet
		b.lastTrigger = ps.LastTrigger
		b.sinceEviction = ps.SinceEviction
		b.sinceTrigger = ps.SinceTrigger
		for _, es := range ps.Entries {
			tuple, err := w.tupleCodec.Unmarshal(es.Tuple)
			if err != nil {
				return nil, errors.WithMessagef(err, "can't decode tuple %d of partition %v", es.Seq, partition)
			}
			b.entries.PushBack(entry[T]{
				seq:         es.Seq,
				tuple:       tuple,
				evictAttr:   es.EvictAttr,
				triggerAttr: es.TriggerAttr,
				inserted:    es.Inserted,
				eventTime:   es.EventTime,
			})
		}
		data.attach(partition, b)
		data.touched(partition, ps.LastTouch)
	}
	return data, nil
}
