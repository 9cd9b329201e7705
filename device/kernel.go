package device

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// A workgroup of a 1D dispatch. Invocations with global ids in
// [Offset, Offset+Count) belong to this group.
type WorkGroup struct {
	// Group index within the dispatch.
	ID int

	// Configured invocations per group.
	Size int

	// Global id of the first invocation.
	Offset int

	// Active invocations; the last group of a dispatch may be partial.
	Count int
}

// Run fn for every active invocation of the group in local id order.
// Iteration stops at the first error.
func (g *WorkGroup) ForEach(fn func(globalID, localID int) error) error {
	for localID := 0; localID < g.Count; localID++ {
		if err := fn(g.Offset+localID, localID); err != nil {
			return err
		}
	}
	return nil
}

// A kernel loaded from a device program.
type Kernel struct {
	device *Device
	fn     KernelFunc
	name   string
	args   []any
}

// Get kernel name.
func (k *Kernel) Name() string {
	return k.name
}

// Free any resources used by this kernel.
func (k *Kernel) Release() {
	k.fn = nil
	k.args = nil
}

// Bind arguments to kernel. They are passed to every workgroup of
// subsequent dispatches.
func (k *Kernel) SetArgs(args ...any) error {
	for argIndex, arg := range args {
		if arg == nil {
			return fmt.Errorf("compute device (%s): could not set arg %d for kernel %s; nil argument", k.device.Name, argIndex, k.name)
		}
	}
	k.args = args
	return nil
}

// Fetch kernel argument index with type T.
func Arg[T any](args []any, index int) (T, error) {
	var zero T
	if index >= len(args) {
		return zero, fmt.Errorf("kernel arg %d: missing argument (%d bound)", index, len(args))
	}
	v, ok := args[index].(T)
	if !ok {
		return zero, fmt.Errorf("kernel arg %d: expected type %T; got %T", index, zero, args[index])
	}
	return v, nil
}

// Execute 1D kernel over globalWorkSize invocations starting at offset. If
// localWorkSize is 0 then the device default workgroup size is used. The call
// blocks until all workgroups complete and returns the dispatch duration.
func (k *Kernel) Exec1D(offset, globalWorkSize, localWorkSize int) (time.Duration, error) {
	if k.fn == nil {
		return 0, fmt.Errorf("compute device (%s): unable to execute released kernel %s", k.device.Name, k.name)
	}
	if globalWorkSize < 0 || offset < 0 {
		return 0, fmt.Errorf("compute device (%s): invalid work size %d (offset %d) for kernel %s", k.device.Name, globalWorkSize, offset, k.name)
	}
	if localWorkSize <= 0 {
		localWorkSize = k.device.WorkGroupSize
		if localWorkSize <= 0 {
			localWorkSize = DefaultWorkGroupSize
		}
	}

	tick := time.Now()
	numGroups := (globalWorkSize + localWorkSize - 1) / localWorkSize

	var eg errgroup.Group
	eg.SetLimit(max(1, k.device.ComputeUnits))
	args := k.args
	for groupID := 0; groupID < numGroups; groupID++ {
		group := &WorkGroup{
			ID:     groupID,
			Size:   localWorkSize,
			Offset: offset + groupID*localWorkSize,
			Count:  min(localWorkSize, globalWorkSize-groupID*localWorkSize),
		}
		eg.Go(func() error {
			return k.fn(group, args)
		})
	}

	if err := eg.Wait(); err != nil {
		return time.Since(tick), fmt.Errorf("compute device (%s): kernel %s did not complete successfully: %w", k.device.Name, k.name, err)
	}

	return time.Since(tick), nil
}
