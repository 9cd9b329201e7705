package device

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
)

// A typed device buffer. Kernels access the backing store through Data while
// the host uses the Write/Read methods.
type Buffer[T any] struct {
	// Associated Device.
	device *Device

	// A name for identifying the buffer.
	name string

	// Intended buffer usage.
	usage gputypes.BufferUsage

	data []T
}

// Create an empty buffer.
func NewBuffer[T any](d *Device, name string, usage gputypes.BufferUsage) *Buffer[T] {
	return &Buffer[T]{
		device: d,
		name:   name,
		usage:  usage,
	}
}

// Get buffer name.
func (b *Buffer[T]) Name() string {
	return b.name
}

// Get buffer usage flags.
func (b *Buffer[T]) Usage() gputypes.BufferUsage {
	return b.usage
}

// Get the number of elements the buffer can hold.
func (b *Buffer[T]) Len() int {
	return len(b.data)
}

// Get buffer size in bytes.
func (b *Buffer[T]) Size() int {
	var zero T
	return len(b.data) * int(unsafe.Sizeof(zero))
}

// Get the device-side backing store.
func (b *Buffer[T]) Data() []T {
	return b.data
}

// Allocate a zero-filled buffer with room for count elements.
func (b *Buffer[T]) Allocate(count int) error {
	if count < 0 {
		return fmt.Errorf("compute device (%s): could not allocate buffer %s with %d elements", b.device.Name, b.name, count)
	}

	// If the buffer is already allocated release it
	b.Release()
	b.data = make([]T, count)
	b.device.allocated.Add(int64(b.Size()))

	return nil
}

// Allocate a buffer large enough to hold the given data and copy it.
func (b *Buffer[T]) AllocateAndWriteData(data []T) error {
	if err := b.Allocate(len(data)); err != nil {
		return err
	}
	copy(b.data, data)
	return nil
}

// Write data to the device buffer starting at element offset.
func (b *Buffer[T]) WriteData(data []T, offset int) error {
	if offset < 0 || offset+len(data) > len(b.data) {
		return fmt.Errorf("compute device (%s): buffer %s holds %d elements; cannot write %d elements at offset %d: %w", b.device.Name, b.name, len(b.data), len(data), offset, ErrBufferOverflow)
	}
	copy(b.data[offset:], data)
	return nil
}

// Read count elements starting at srcOffset into hostBuffer[dstOffset:]. If
// count is <= 0 then ReadData reads the remainder of the buffer.
func (b *Buffer[T]) ReadData(srcOffset, dstOffset, count int, hostBuffer []T) error {
	if count <= 0 {
		count = len(b.data) - srcOffset
	}
	if srcOffset < 0 || srcOffset+count > len(b.data) || dstOffset < 0 || dstOffset+count > len(hostBuffer) {
		return fmt.Errorf("compute device (%s): error copying %d elements from %s to host buffer: %w", b.device.Name, count, b.name, ErrBufferOverflow)
	}
	copy(hostBuffer[dstOffset:], b.data[srcOffset:srcOffset+count])
	return nil
}

// Set every element to its zero value.
func (b *Buffer[T]) Clear() {
	clear(b.data)
}

// Release buffer.
func (b *Buffer[T]) Release() {
	if b.data != nil {
		b.device.allocated.Add(-int64(b.Size()))
		b.data = nil
	}
}
