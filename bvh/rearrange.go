package bvh

import (
	"fmt"

	"github.com/achilleasa/wavefront/device"
	"github.com/gogpu/gputypes"
)

// Gather kernel: out[i] = in[perm[i]].
//
// Args: in, out *Buffer[T], perm *Buffer[uint32]
func rearrangeKernel[T any](group *device.WorkGroup, args []any) error {
	in, err := device.Arg[*device.Buffer[T]](args, 0)
	if err != nil {
		return err
	}
	out, err := device.Arg[*device.Buffer[T]](args, 1)
	if err != nil {
		return err
	}
	perm, err := device.Arg[*device.Buffer[uint32]](args, 2)
	if err != nil {
		return err
	}

	inData, outData, permData := in.Data(), out.Data(), perm.Data()
	return group.ForEach(func(i, _ int) error {
		src := permData[i]
		if int(src) >= len(inData) {
			return fmt.Errorf("bvh: permutation entry %d references item %d; have %d items", i, src, len(inData))
		}
		outData[i] = inData[src]
		return nil
	})
}

// Physically reorder items so that out[i] = items[perm[i]].
func Rearrange[T any](dev *device.Device, items []T, perm []uint32) ([]T, error) {
	if len(items) != len(perm) {
		return nil, fmt.Errorf("bvh: cannot rearrange %d items using a permutation of length %d", len(items), len(perm))
	}
	if len(items) == 0 {
		return []T{}, nil
	}

	var zero T
	name := fmt.Sprintf("bvh_rearrange<%T>", zero)
	if err := dev.Init(device.Program{name: rearrangeKernel[T]}); err != nil {
		return nil, err
	}
	kernel, err := dev.Kernel(name)
	if err != nil {
		return nil, err
	}
	defer kernel.Release()

	in := device.NewBuffer[T](dev, "rearrange_in", gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	defer in.Release()
	out := device.NewBuffer[T](dev, "rearrange_out", gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	defer out.Release()
	permBuf := device.NewBuffer[uint32](dev, "rearrange_perm", gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	defer permBuf.Release()

	if err = in.AllocateAndWriteData(items); err != nil {
		return nil, err
	}
	if err = out.Allocate(len(items)); err != nil {
		return nil, err
	}
	if err = permBuf.AllocateAndWriteData(perm); err != nil {
		return nil, err
	}
	if err = kernel.SetArgs(in, out, permBuf); err != nil {
		return nil, err
	}
	if _, err = kernel.Exec1D(0, len(items), 0); err != nil {
		return nil, err
	}

	result := make([]T, len(items))
	if err = out.ReadData(0, 0, 0, result); err != nil {
		return nil, err
	}
	return result, nil
}
