package device

import (
	"math"
	"sync/atomic"
)

// Atomically add v to the float32 whose bit pattern is stored at addr and
// return the new value. Implemented as a compare-and-swap retry loop.
func AtomicAddFloat32(addr *uint32, v float32) float32 {
	for {
		old := atomic.LoadUint32(addr)
		sum := math.Float32frombits(old) + v
		if atomic.CompareAndSwapUint32(addr, old, math.Float32bits(sum)) {
			return sum
		}
	}
}

// Atomically load the float32 whose bit pattern is stored at addr.
func AtomicLoadFloat32(addr *uint32) float32 {
	return math.Float32frombits(atomic.LoadUint32(addr))
}
