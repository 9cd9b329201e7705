package device

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestBufferAllocate(t *testing.T) {
	dev := createTestDevice(t)
	defer dev.Close()

	buf := NewBuffer[float64](dev, "test", gputypes.BufferUsageStorage)
	err := buf.Allocate(128)
	if err != nil {
		t.Fatal(err)
	}

	expSize := 128 * 8
	if buf.Size() != expSize {
		t.Fatalf("expected buffer size to be %d; got %d", expSize, buf.Size())
	}
	if dev.AllocatedBytes() != int64(expSize) {
		t.Fatalf("expected device to track %d allocated bytes; got %d", expSize, dev.AllocatedBytes())
	}

	buf.Release()
	if dev.AllocatedBytes() != 0 {
		t.Fatalf("expected device allocation to drop to 0 after release; got %d", dev.AllocatedBytes())
	}
}

func TestBufferAllocateEmpty(t *testing.T) {
	dev := createTestDevice(t)
	defer dev.Close()

	buf := NewBuffer[uint32](dev, "empty", gputypes.BufferUsageStorage)
	defer buf.Release()
	if err := buf.AllocateAndWriteData(nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 || buf.Size() != 0 {
		t.Fatalf("expected empty buffer; got len %d, size %d", buf.Len(), buf.Size())
	}
}

func TestDataReadWrite(t *testing.T) {
	dev := createTestDevice(t)
	defer dev.Close()

	data := make([]byte, 128)
	for i := 0; i < 128; i++ {
		data[i] = byte(i)
	}

	buf := NewBuffer[byte](dev, "test", gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	defer buf.Release()
	if err := buf.Allocate(256); err != nil {
		t.Fatal(err)
	}
	if err := buf.WriteData(data, 128); err != nil {
		t.Fatal(err)
	}

	out := make([]byte, 64)
	if err := buf.ReadData(160, 0, 64, out); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 64; i++ {
		if out[i] != byte(32+i) {
			t.Fatalf("[index %d] expected to read %d; got %d", i, 32+i, out[i])
		}
	}

	if err := buf.WriteData(data, 200); !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("expected ErrBufferOverflow; got %v", err)
	}
	if err := buf.ReadData(0, 0, 0, out); !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("expected ErrBufferOverflow when reading into a small host buffer; got %v", err)
	}
}
