package datasets

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// This package turns raw data sources (CSV text, image directories,
// binary-packed image corpora, remote quick-draw sketch archives) into a
// common (input, label) tensor-pair format usable by a training loop.
//
// Every dataset variant implements the Dataset interface below. Variants are
// independent types composed from the shared partitions helper rather than a
// base-class hierarchy: CSVDataset, ImageDataset, MNISTDataset, CIFARDataset
// and QuickDrawDataset.
//
// Datasets and the vectorizers they own are not safe for concurrent writers.
// A dataset is built once, from one goroutine; after Build returns, the
// partitions are only mutated by explicit caller-invoked Trim/Shuffle.

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrHeaderMissing indicates a CSV file had no header line.
	ErrHeaderMissing = errors.New("datasets: csv header missing")

	// ErrLabelMissing indicates an image file had no label configured.
	ErrLabelMissing = errors.New("datasets: label missing for image")

	// ErrEmptyValidation indicates a built dataset ended up with an empty
	// validation partition without being told to allow it.
	ErrEmptyValidation = errors.New("datasets: validation partition is empty")

	// ErrShapeMismatch indicates two datasets could not be merged because
	// their per-sample data sizes differ.
	ErrShapeMismatch = errors.New("datasets: unit data sizes do not match")
)

// Sample is one (input, label) tensor pair.
type Sample struct {
	Data  *Tensor
	Label *Tensor
}

// Partition is an ordered sequence of samples assigned to training or
// validation.
type Partition []Sample

// Dataset is the contract every dataset variant implements in order to feed
// gomlx training loops and the batching utilities in this package.
type Dataset interface {
	// Build materializes the partitions. It is synchronous; callers that
	// want an awaitable build run it in a goroutine.
	Build(ctx context.Context) error

	// Data returns the training and validation partitions. Both are empty
	// before Build.
	Data() (training, validation Partition)

	// Trim caps both partitions to at most n samples each.
	Trim(n int)

	// Shuffle reorders both partitions with a deterministic seeded source.
	Shuffle(seed int64)

	// UnitDataSize is the per-sample data tensor size, used to check merge
	// compatibility.
	UnitDataSize() int

	// Yield implements gomlx's train.Dataset interface: it returns the next
	// batch of training samples as gomlx tensors.
	Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error)
}

// partitions is the shared state and behavior embedded by every dataset
// variant: the built sample sequences plus the batching cursor for Yield.
type partitions struct {
	training Partition
	val      Partition

	// BatchSize used by Yield. Defaults to 32 when unset.
	BatchSize int

	cursor int
}

// Data returns the training and validation partitions.
func (p *partitions) Data() (training, validation Partition) {
	return p.training, p.val
}

// Trim caps both partitions to at most n samples.
func (p *partitions) Trim(n int) {
	if n < 0 {
		return
	}
	if len(p.training) > n {
		p.training = p.training[:n]
	}
	if len(p.val) > n {
		p.val = p.val[:n]
	}
}

// Shuffle reorders both partitions using a deterministic seeded source.
func (p *partitions) Shuffle(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(p.training), func(i, j int) {
		p.training[i], p.training[j] = p.training[j], p.training[i]
	})
	rng.Shuffle(len(p.val), func(i, j int) {
		p.val[i], p.val[j] = p.val[j], p.val[i]
	})
}

// UnitDataSize returns the element count of one sample's data tensor, or 0
// for an empty dataset.
func (p *partitions) UnitDataSize() int {
	if len(p.training) > 0 {
		return p.training[0].Data.Size()
	}
	if len(p.val) > 0 {
		return p.val[0].Data.Size()
	}
	return 0
}

// Yield returns the next batch of training samples converted to gomlx
// tensors. It wraps around at the end of the partition; Restart resets the
// cursor explicitly.
func (p *partitions) Yield() (any, []*tensors.Tensor, []*tensors.Tensor, error) {
	if len(p.training) == 0 {
		return nil, nil, nil, fmt.Errorf("dataset has no training samples; was Build called?")
	}
	batch := p.BatchSize
	if batch <= 0 {
		batch = 32
	}
	if batch > len(p.training) {
		batch = len(p.training)
	}

	inputs := make([]*tensors.Tensor, 0, batch)
	labels := make([]*tensors.Tensor, 0, batch)
	for i := 0; i < batch; i++ {
		s := p.training[p.cursor]
		p.cursor = (p.cursor + 1) % len(p.training)

		in, err := s.Data.ToGomlx()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("converting sample data: %w", err)
		}
		lab, err := s.Label.ToGomlx()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("converting sample label: %w", err)
		}
		inputs = append(inputs, in)
		labels = append(labels, lab)
	}
	return nil, inputs, labels, nil
}

// Restart resets the Yield cursor for a new epoch.
func (p *partitions) Restart() error {
	p.cursor = 0
	return nil
}

// MemoryDataset is a Dataset over partitions that were already materialized,
// e.g. the result of Merge. Build is a no-op.
type MemoryDataset struct {
	partitions
}

// NewMemoryDataset wraps existing partitions in a Dataset.
func NewMemoryDataset(training, validation Partition) *MemoryDataset {
	return &MemoryDataset{partitions{training: training, val: validation}}
}

// Build is a no-op; the partitions were supplied at construction.
func (m *MemoryDataset) Build(ctx context.Context) error { return nil }

// Name returns the name of the dataset.
func (m *MemoryDataset) Name() string { return "MemoryDataset" }

// Merge concatenates the partitions of two datasets with identical
// per-sample data sizes and reshuffles the combined partitions with the
// given seed. Returns ErrShapeMismatch when the unit sizes differ.
func Merge(a, b Dataset, seed int64) (*MemoryDataset, error) {
	if a.UnitDataSize() != b.UnitDataSize() {
		return nil, fmt.Errorf("%w: %d vs %d", ErrShapeMismatch, a.UnitDataSize(), b.UnitDataSize())
	}

	aTrain, aVal := a.Data()
	bTrain, bVal := b.Data()

	training := make(Partition, 0, len(aTrain)+len(bTrain))
	training = append(training, aTrain...)
	training = append(training, bTrain...)

	validation := make(Partition, 0, len(aVal)+len(bVal))
	validation = append(validation, aVal...)
	validation = append(validation, bVal...)

	merged := NewMemoryDataset(training, validation)
	merged.Shuffle(seed)
	return merged, nil
}

// clampFraction clamps a validation split fraction to [0.1, 0.9].
func clampFraction(v float64) float64 {
	if v < 0.1 {
		return 0.1
	}
	if v > 0.9 {
		return 0.9
	}
	return v
}
