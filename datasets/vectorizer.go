package datasets

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Vectorizer maps atomic items (characters or words) to integer indices and
// back, and expands item sequences into one-hot tensors. Indices are assigned
// lazily in insertion order and are never reassigned: an item seen once keeps
// its index for the lifetime of the instance.
//
// A Vectorizer is owned by the dataset that creates it and is not safe for
// concurrent writers.
type Vectorizer[T comparable] struct {
	itemToIndex map[T]int
	indexToItem []T
}

// NewVectorizer creates an empty vectorizer.
func NewVectorizer[T comparable]() *Vectorizer[T] {
	return &Vectorizer[T]{itemToIndex: make(map[T]int)}
}

// Count returns the number of distinct items seen so far.
func (v *Vectorizer[T]) Count() int {
	return len(v.indexToItem)
}

// Vectorize maps each item to its index, registering items not seen before
// with the next unused integer. The vocabulary grows as a side effect.
func (v *Vectorizer[T]) Vectorize(items []T) []int {
	out := make([]int, len(items))
	for i, item := range items {
		idx, ok := v.itemToIndex[item]
		if !ok {
			idx = len(v.indexToItem)
			v.itemToIndex[item] = idx
			v.indexToItem = append(v.indexToItem, item)
		}
		out[i] = idx
	}
	return out
}

// Unvectorize maps indices back to items through the inverse table. Indices
// outside the known vocabulary yield the zero value rather than panicking.
func (v *Vectorizer[T]) Unvectorize(indices []int) []T {
	out := make([]T, len(indices))
	for i, idx := range indices {
		if idx >= 0 && idx < len(v.indexToItem) {
			out[i] = v.indexToItem[idx]
		}
	}
	return out
}

// OneHot expands the item sequence into a tensor of shape
// [1, Count(), len(items)] with a 1.0 at each item's index row in its column.
// Items are registered first, so the row dimension reflects the vocabulary
// size reached by the end of the call even when earlier items in the same
// call were new.
func (v *Vectorizer[T]) OneHot(items []T) *Tensor {
	indices := v.Vectorize(items)
	t := NewTensor(1, v.Count(), len(items))
	for col, idx := range indices {
		t.Set(0, idx, col, 1.0)
	}
	return t
}

// UnvectorizeOneHot maps each column of a one-hot tensor back to an item by
// taking the argmax over the rows. Ties break toward the lowest index.
func (v *Vectorizer[T]) UnvectorizeOneHot(t *Tensor) []T {
	rows := t.Shape[1]
	cols := t.Shape[2]
	indices := make([]int, cols)
	for col := 0; col < cols; col++ {
		best := 0
		bestVal := t.At(0, 0, col)
		for row := 1; row < rows; row++ {
			if val := t.At(0, row, col); val > bestVal {
				best = row
				bestVal = val
			}
		}
		indices[col] = best
	}
	return v.Unvectorize(indices)
}

// Export serializes the vocabulary to path as a JSON list of items in index
// order, gzipped when compress is set. When the destination already exists
// and overwrite is false, Export returns an empty location and no error.
func (v *Vectorizer[T]) Export(path string, overwrite, compress bool) (string, error) {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", nil
		}
	}

	payload, err := json.Marshal(v.indexToItem)
	if err != nil {
		return "", fmt.Errorf("marshal vocabulary: %w", err)
	}
	if compress {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(payload); err != nil {
			return "", fmt.Errorf("compress vocabulary: %w", err)
		}
		if err := zw.Close(); err != nil {
			return "", fmt.Errorf("compress vocabulary: %w", err)
		}
		payload = buf.Bytes()
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write vocabulary: %w", err)
	}
	return path, nil
}

// ImportVectorizer rebuilds a vectorizer from a file previously written by
// Export. Gzipped blobs are detected by their magic bytes.
func ImportVectorizer[T comparable](path string) (*Vectorizer[T], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return ImportVectorizerBytes[T](data)
}

// ImportVectorizerBytes rebuilds a vectorizer from an in-memory blob in the
// Export format. Indices are reconstructed from stored order.
func ImportVectorizerBytes[T comparable](data []byte) (*Vectorizer[T], error) {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open compressed vocabulary: %w", err)
		}
		defer zr.Close()
		data, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("decompress vocabulary: %w", err)
		}
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal vocabulary: %w", err)
	}

	v := NewVectorizer[T]()
	for i, item := range items {
		v.itemToIndex[item] = i
	}
	v.indexToItem = items
	return v, nil
}
