package spooldir

import (
	"sort"
	"sync"

	"spl/lib/checkpoint"
)

//offsets holds the read position of every file that is not fully combined
type offsets struct {
	mutex     sync.Mutex
	positions map[Identify]int64
}

func newOffsets() *offsets {
	return &offsets{positions: map[Identify]int64{}}
}

func (o *offsets) load(id Identify) (int64, bool) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	offset, ok := o.positions[id]
	return offset, ok
}

func (o *offsets) store(id Identify, offset int64) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.positions[id] = offset
}

//advance moves the offset of a tracked file forward
func (o *offsets) advance(id Identify, offset int64) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if current, ok := o.positions[id]; ok && offset > current {
		o.positions[id] = offset
	}
}

func (o *offsets) remove(id Identify) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	delete(o.positions, id)
}

func (o *offsets) list() []fileOffset {
	list := make([]fileOffset, 0, len(o.positions))
	for id, offset := range o.positions {
		list = append(list, fileOffset{Identify: id, Offset: offset})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Device != list[j].Device {
			return list[i].Device < list[j].Device
		}
		return list[i].Inode < list[j].Inode
	})
	return list
}

func (o *offsets) marshal() ([]byte, error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return checkpoint.Marshal(o.list())
}

func (o *offsets) unmarshal(data []byte) error {
	var list []fileOffset
	if err := checkpoint.Unmarshal(data, &list); err != nil {
		return err
	}
	o.mutex.Lock()
	defer o.mutex.Unlock()
	for _, offset := range list {
		o.positions[offset.Identify] = offset.Offset
	}
	return nil
}

func (o *offsets) reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.positions = map[Identify]int64{}
}
