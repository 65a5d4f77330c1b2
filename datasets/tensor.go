package datasets

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// Tensor is a contiguous float32 buffer plus shape metadata. The datasets in
// this package build and slice these flat buffers directly and only convert
// to gomlx tensors at the training boundary; different gomlx versions expose
// different helper constructors, and flat buffers are trivial to convert into
// any tensor type.
//
// Shape is row-major: for a 3-D shape [d0, rows, cols], element (i, j, k)
// lives at Data[(i*rows+j)*cols + k].
type Tensor struct {
	Data  []float32
	Shape []int
}

// NewTensor allocates a zero-filled tensor with the given shape.
func NewTensor(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	s := make([]int, len(shape))
	copy(s, shape)
	return &Tensor{Data: make([]float32, n), Shape: s}
}

// Size returns the total number of elements.
func (t *Tensor) Size() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Depth returns the size of the last axis, the sequence-length axis for the
// encodings produced by this package. Returns 0 for a shapeless tensor.
func (t *Tensor) Depth() int {
	if len(t.Shape) == 0 {
		return 0
	}
	return t.Shape[len(t.Shape)-1]
}

// At reads element (i, j, k) of a 3-D tensor.
func (t *Tensor) At(i, j, k int) float32 {
	rows, cols := t.Shape[1], t.Shape[2]
	return t.Data[(i*rows+j)*cols+k]
}

// Set writes element (i, j, k) of a 3-D tensor.
func (t *Tensor) Set(i, j, k int, v float32) {
	rows, cols := t.Shape[1], t.Shape[2]
	t.Data[(i*rows+j)*cols+k] = v
}

// SliceDepth returns a copy of the tensor restricted to last-axis positions
// [from, to). Used to drop the leading label-offset positions when deriving
// next-item labels.
func (t *Tensor) SliceDepth(from, to int) (*Tensor, error) {
	d := t.Depth()
	if from < 0 || to > d || from > to {
		return nil, fmt.Errorf("slice [%d, %d) out of range for depth %d", from, to, d)
	}
	newShape := make([]int, len(t.Shape))
	copy(newShape, t.Shape)
	newShape[len(newShape)-1] = to - from
	out := NewTensor(newShape...)

	leading := 1
	for _, dim := range t.Shape[:len(t.Shape)-1] {
		leading *= dim
	}
	for row := 0; row < leading; row++ {
		src := t.Data[row*d+from : row*d+to]
		copy(out.Data[row*(to-from):], src)
	}
	return out, nil
}

// ConcatDepth appends other along the last axis. All leading dimensions must
// match.
func (t *Tensor) ConcatDepth(other *Tensor) (*Tensor, error) {
	if len(t.Shape) != len(other.Shape) {
		return nil, fmt.Errorf("rank mismatch: %v vs %v", t.Shape, other.Shape)
	}
	for i := 0; i < len(t.Shape)-1; i++ {
		if t.Shape[i] != other.Shape[i] {
			return nil, fmt.Errorf("leading dimension mismatch: %v vs %v", t.Shape, other.Shape)
		}
	}
	da, db := t.Depth(), other.Depth()
	newShape := make([]int, len(t.Shape))
	copy(newShape, t.Shape)
	newShape[len(newShape)-1] = da + db
	out := NewTensor(newShape...)

	leading := 1
	for _, dim := range t.Shape[:len(t.Shape)-1] {
		leading *= dim
	}
	for row := 0; row < leading; row++ {
		copy(out.Data[row*(da+db):], t.Data[row*da:(row+1)*da])
		copy(out.Data[row*(da+db)+da:], other.Data[row*db:(row+1)*db])
	}
	return out, nil
}

// Equal reports whether both tensors have identical shape and data.
func (t *Tensor) Equal(other *Tensor) bool {
	if len(t.Shape) != len(other.Shape) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != other.Shape[i] {
			return false
		}
	}
	for i := range t.Data {
		if t.Data[i] != other.Data[i] {
			return false
		}
	}
	return true
}

// ToGomlx converts the flat buffer into a gomlx tensor by reshaping into
// nested slices and handing them to tensors.FromAnyValue. Supports rank 1-3,
// which covers every shape produced by this package.
func (t *Tensor) ToGomlx() (*tensors.Tensor, error) {
	switch len(t.Shape) {
	case 1:
		return tensors.FromAnyValue(t.Data), nil
	case 2:
		rows, cols := t.Shape[0], t.Shape[1]
		data := make([][]float32, rows)
		for i := 0; i < rows; i++ {
			data[i] = t.Data[i*cols : (i+1)*cols]
		}
		return tensors.FromAnyValue(data), nil
	case 3:
		d0, rows, cols := t.Shape[0], t.Shape[1], t.Shape[2]
		data := make([][][]float32, d0)
		idx := 0
		for i := 0; i < d0; i++ {
			data[i] = make([][]float32, rows)
			for j := 0; j < rows; j++ {
				data[i][j] = t.Data[idx : idx+cols]
				idx += cols
			}
		}
		return tensors.FromAnyValue(data), nil
	default:
		return nil, fmt.Errorf("unsupported rank %d for gomlx conversion", len(t.Shape))
	}
}
