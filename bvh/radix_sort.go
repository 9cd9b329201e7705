package bvh

import (
	"github.com/achilleasa/wavefront/device"
)

const (
	radixBits    = 8
	radixBuckets = 1 << radixBits
	radixMask    = radixBuckets - 1
	radixPasses  = 32 / radixBits
)

// Histogram kernel: each workgroup counts the digits of its block of keys and
// stores the counts digit-major so that hist[digit*numBlocks+block] can be
// scanned into global scatter offsets.
//
// Args: keys *Buffer[uint32], hist *Buffer[uint32], shift uint32, numBlocks int
func radixHistogramKernel(group *device.WorkGroup, args []any) error {
	keys, err := device.Arg[*device.Buffer[uint32]](args, 0)
	if err != nil {
		return err
	}
	hist, err := device.Arg[*device.Buffer[uint32]](args, 1)
	if err != nil {
		return err
	}
	shift, err := device.Arg[uint32](args, 2)
	if err != nil {
		return err
	}
	numBlocks, err := device.Arg[int](args, 3)
	if err != nil {
		return err
	}

	var local [radixBuckets]uint32
	keyData := keys.Data()
	err = group.ForEach(func(i, _ int) error {
		local[(keyData[i]>>shift)&radixMask]++
		return nil
	})
	if err != nil {
		return err
	}

	histData := hist.Data()
	for digit := 0; digit < radixBuckets; digit++ {
		histData[digit*numBlocks+group.ID] = local[digit]
	}
	return nil
}

// Scan kernel: in-place exclusive prefix sum over the histogram. Dispatched
// as a single invocation.
//
// Args: hist *Buffer[uint32]
func radixScanKernel(group *device.WorkGroup, args []any) error {
	hist, err := device.Arg[*device.Buffer[uint32]](args, 0)
	if err != nil {
		return err
	}

	var sum uint32
	histData := hist.Data()
	for i, count := range histData {
		histData[i] = sum
		sum += count
	}
	return nil
}

// Scatter kernel: each workgroup walks its block in order and moves keys (and
// their permutation entries) to the offsets reserved for its digits. Walking
// in order keeps the sort stable.
//
// Args: keysIn, keysOut, permIn, permOut, hist *Buffer[uint32], shift uint32, numBlocks int
func radixScatterKernel(group *device.WorkGroup, args []any) error {
	var bufs [5]*device.Buffer[uint32]
	for i := range bufs {
		buf, err := device.Arg[*device.Buffer[uint32]](args, i)
		if err != nil {
			return err
		}
		bufs[i] = buf
	}
	shift, err := device.Arg[uint32](args, 5)
	if err != nil {
		return err
	}
	numBlocks, err := device.Arg[int](args, 6)
	if err != nil {
		return err
	}

	keysIn, keysOut := bufs[0].Data(), bufs[1].Data()
	permIn, permOut := bufs[2].Data(), bufs[3].Data()
	histData := bufs[4].Data()

	var offsets [radixBuckets]uint32
	for digit := 0; digit < radixBuckets; digit++ {
		offsets[digit] = histData[digit*numBlocks+group.ID]
	}

	return group.ForEach(func(i, _ int) error {
		key := keysIn[i]
		digit := (key >> shift) & radixMask
		dst := offsets[digit]
		offsets[digit]++
		keysOut[dst] = key
		permOut[dst] = permIn[i]
		return nil
	})
}

// Sort keys and the accompanying permutation in place using a stable LSD
// radix sort. tmpKeys and tmpPerm must have the same length as keys.
func (b *builder) radixSort(keys, perm, tmpKeys, tmpPerm *device.Buffer[uint32]) error {
	n := keys.Len()
	if n < 2 {
		return nil
	}

	blockSize := b.dev.WorkGroupSize
	if blockSize <= 0 {
		blockSize = device.DefaultWorkGroupSize
	}
	numBlocks := (n + blockSize - 1) / blockSize

	if err := b.hist.Allocate(radixBuckets * numBlocks); err != nil {
		return err
	}
	defer b.hist.Release()

	srcKeys, dstKeys := keys, tmpKeys
	srcPerm, dstPerm := perm, tmpPerm
	for pass := 0; pass < radixPasses; pass++ {
		shift := uint32(pass * radixBits)

		if err := b.exec(kernelRadixHistogram, n, blockSize, srcKeys, b.hist, shift, numBlocks); err != nil {
			return err
		}
		if err := b.exec(kernelRadixScan, 1, 1, b.hist); err != nil {
			return err
		}
		if err := b.exec(kernelRadixScatter, n, blockSize, srcKeys, dstKeys, srcPerm, dstPerm, b.hist, shift, numBlocks); err != nil {
			return err
		}

		srcKeys, dstKeys = dstKeys, srcKeys
		srcPerm, dstPerm = dstPerm, srcPerm
	}

	if srcKeys != keys {
		copy(keys.Data(), srcKeys.Data())
		copy(perm.Data(), srcPerm.Data())
	}
	return nil
}
