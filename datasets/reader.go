package datasets

import "fmt"

// scaledFloats reads count bytes starting at offset from a fixed-format
// binary blob and returns them as float32 values divided by divisor. This is
// the shared "read bytes at offset, scale, reshape" helper used by the
// MNIST, CIFAR and QuickDraw loaders.
func scaledFloats(data []byte, offset, count int, divisor float32) ([]float32, error) {
	if offset < 0 || offset+count > len(data) {
		return nil, fmt.Errorf("range [%d, %d) out of bounds for %d bytes", offset, offset+count, len(data))
	}
	if divisor == 0 {
		divisor = 1
	}
	out := make([]float32, count)
	for i := 0; i < count; i++ {
		out[i] = float32(data[offset+i]) / divisor
	}
	return out, nil
}

// oneHotClass builds a [1, classes, 1] tensor with 1.0 at the class row.
func oneHotClass(class, classes int) *Tensor {
	t := NewTensor(1, classes, 1)
	t.Set(0, class, 0, 1.0)
	return t
}
