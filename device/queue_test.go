package device

import (
	"errors"
	"sort"
	"testing"
)

func TestStagedCompaction(t *testing.T) {
	dataSize := 1000
	dev := createTestDevice(t)
	defer dev.Close()

	evens, err := NewQueue(dev, "evens", dataSize)
	if err != nil {
		t.Fatal(err)
	}
	odds, err := NewQueue(dev, "odds", dataSize)
	if err != nil {
		t.Fatal(err)
	}

	err = dev.Init(Program{"split": func(g *WorkGroup, _ []any) error {
		evenStage := NewLocalStage(g.Size)
		oddStage := NewLocalStage(g.Size)
		err := g.ForEach(func(globalID, _ int) error {
			if globalID%2 == 0 {
				return evenStage.Push(uint32(globalID))
			}
			return oddStage.Push(uint32(globalID))
		})
		if err != nil {
			return err
		}
		if err = evenStage.FlushTo(evens); err != nil {
			return err
		}
		return oddStage.FlushTo(odds)
	}})
	if err != nil {
		t.Fatal(err)
	}
	kernel, err := dev.Kernel("split")
	if err != nil {
		t.Fatal(err)
	}
	if _, err = kernel.Exec1D(0, dataSize, 0); err != nil {
		t.Fatal(err)
	}

	if evens.Len()+odds.Len() != dataSize {
		t.Fatalf("expected %d compacted entries; got %d", dataSize, evens.Len()+odds.Len())
	}

	seen := append(append([]uint32{}, evens.Items()...), odds.Items()...)
	sort.Slice(seen, func(i, j int) bool { return seen[i] < seen[j] })
	for i, v := range seen {
		if v != uint32(i) {
			t.Fatalf("expected every index to be enqueued exactly once; index %d holds %d", i, v)
		}
	}
	for _, v := range evens.Items() {
		if v%2 != 0 {
			t.Fatalf("expected even queue to only contain even indices; found %d", v)
		}
	}

	evens.Reset()
	if evens.Len() != 0 {
		t.Fatalf("expected reset queue to be empty; got %d entries", evens.Len())
	}
}

func TestQueueOverflow(t *testing.T) {
	dev := createTestDevice(t)
	defer dev.Close()

	q, err := NewQueue(dev, "small", 4)
	if err != nil {
		t.Fatal(err)
	}

	stage := NewLocalStage(8)
	for i := 0; i < 6; i++ {
		if err = stage.Push(uint32(i)); err != nil {
			t.Fatal(err)
		}
	}
	if err = stage.FlushTo(q); !errors.Is(err, ErrQueueOverflow) {
		t.Fatalf("expected ErrQueueOverflow; got %v", err)
	}
}

func TestLocalStageOverflow(t *testing.T) {
	stage := NewLocalStage(2)
	stage.Push(0)
	stage.Push(1)
	if err := stage.Push(2); !errors.Is(err, ErrStageOverflow) {
		t.Fatalf("expected ErrStageOverflow; got %v", err)
	}
}
