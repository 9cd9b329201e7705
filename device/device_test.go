package device

import (
	"errors"
	"testing"
)

func createTestDevice(t *testing.T, programs ...Program) *Device {
	dev := NewDevice("test", 4)
	dev.WorkGroupSize = 8
	if err := dev.Init(programs...); err != nil {
		t.Fatal(err)
	}
	return dev
}

func TestSelectDevices(t *testing.T) {
	list, err := SelectDevices(AllDevices, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) == 0 {
		t.Fatal("expected at least one device")
	}

	list, err = SelectDevices(GpuDevice, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no GPU devices; got %d", len(list))
	}

	if _, err = SelectDevices(AllDevices, "(["); err == nil {
		t.Fatal("expected invalid name filter to return an error")
	}
}

func TestLoadUnknownKernel(t *testing.T) {
	dev := NewDevice("test", 1)
	if _, err := dev.Kernel("square"); !errors.Is(err, ErrDeviceNotInitialized) {
		t.Fatalf("expected ErrDeviceNotInitialized; got %v", err)
	}

	dev = createTestDevice(t)
	defer dev.Close()
	if _, err := dev.Kernel("square"); !errors.Is(err, ErrKernelNotFound) {
		t.Fatalf("expected ErrKernelNotFound; got %v", err)
	}
}

func TestReloadProgram(t *testing.T) {
	calls := 0
	first := func(*WorkGroup, []any) error { calls++; return nil }
	second := func(*WorkGroup, []any) error { calls += 100; return nil }
	dev := createTestDevice(t, Program{"noop": first})
	defer dev.Close()

	if err := dev.Init(Program{"noop": second}); err != nil {
		t.Fatal(err)
	}
	kernel, err := dev.Kernel("noop")
	if err != nil {
		t.Fatal(err)
	}
	if _, err = kernel.Exec1D(0, 1, 1); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected the first loaded kernel definition to be kept; got %d calls", calls)
	}
}
