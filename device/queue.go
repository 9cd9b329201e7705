package device

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// A fixed-capacity index queue living in device memory. Producers reserve
// contiguous ranges with a single atomic add on the size counter.
type Queue struct {
	items *Buffer[uint32]
	size  atomic.Uint32
}

// Allocate a queue that can hold up to capacity indices.
func NewQueue(d *Device, name string, capacity int) (*Queue, error) {
	items := NewBuffer[uint32](d, name, gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err := items.Allocate(capacity); err != nil {
		return nil, err
	}
	return &Queue{items: items}, nil
}

// Get queue name.
func (q *Queue) Name() string {
	return q.items.Name()
}

// Get queue capacity.
func (q *Queue) Cap() int {
	return q.items.Len()
}

// Get the number of enqueued indices.
func (q *Queue) Len() int {
	return min(int(q.size.Load()), q.items.Len())
}

// Get the enqueued indices.
func (q *Queue) Items() []uint32 {
	return q.items.Data()[:q.Len()]
}

// Empty the queue. The backing storage is retained.
func (q *Queue) Reset() {
	q.size.Store(0)
}

// Reserve n contiguous slots and return the index of the first one.
// Reservations that exceed the queue capacity fail with ErrQueueOverflow.
func (q *Queue) Reserve(n int) (int, error) {
	end := int(q.size.Add(uint32(n)))
	if end > q.items.Len() {
		return 0, fmt.Errorf("queue %s: reserving %d slots needs capacity %d; have %d: %w", q.Name(), n, end, q.items.Len(), ErrQueueOverflow)
	}
	return end - n, nil
}

// Copy values into a range previously obtained via Reserve.
func (q *Queue) write(start int, values []uint32) {
	copy(q.items.Data()[start:], values)
}

// Free the queue storage.
func (q *Queue) Release() {
	q.items.Release()
}

// Workgroup-local staging buffer. Invocations append to it in parallel
// (phase 1); after the group barrier a single worker moves its contents into a
// global queue with one reservation (phase 2).
type LocalStage struct {
	items []uint32
	count atomic.Int32
}

// Create a staging buffer that holds up to capacity entries; usually the
// workgroup size.
func NewLocalStage(capacity int) *LocalStage {
	return &LocalStage{items: make([]uint32, capacity)}
}

// Append v to the stage.
func (s *LocalStage) Push(v uint32) error {
	slot := int(s.count.Add(1)) - 1
	if slot >= len(s.items) {
		return fmt.Errorf("staging %d entries into a buffer of %d: %w", slot+1, len(s.items), ErrStageOverflow)
	}
	s.items[slot] = v
	return nil
}

// Get the number of staged entries.
func (s *LocalStage) Len() int {
	return min(int(s.count.Load()), len(s.items))
}

// Move the staged entries into q using a single range reservation and reset
// the stage. It must only be called after all invocations of the group have
// finished pushing.
func (s *LocalStage) FlushTo(q *Queue) error {
	n := s.Len()
	defer s.count.Store(0)
	if n == 0 {
		return nil
	}

	start, err := q.Reserve(n)
	if err != nil {
		return err
	}
	q.write(start, s.items[:n])
	return nil
}
