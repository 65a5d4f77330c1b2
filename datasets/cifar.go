package datasets

import (
	"context"
	"fmt"
	"os"
)

// CIFAR fixed-format constants: each record is one label byte followed by
// 3072 pixel bytes stored as three planar 32x32 channels.
const (
	cifarRows       = 32
	cifarCols       = 32
	cifarChannels   = 3
	cifarPixels     = cifarRows * cifarCols * cifarChannels
	cifarRecordSize = 1 + cifarPixels
	cifarClasses    = 10
)

// CIFARDataset loads a CIFAR binary batch file of fixed 3073-byte records.
// Like CSVDataset it uses the deterministic prefix/suffix split; the binary
// batches ship pre-shuffled.
type CIFARDataset struct {
	partitions

	// Path of the binary batch file.
	Path string

	// ValidationSplit is the fraction of records assigned to validation,
	// clamped to [0.1, 0.9] at construction.
	ValidationSplit float64

	// MaxCount caps the number of records used. 0 means unlimited.
	MaxCount int
}

// NewCIFARDataset creates a CIFAR dataset over one binary batch file.
func NewCIFARDataset(path string, validationSplit float64) *CIFARDataset {
	return &CIFARDataset{
		Path:            path,
		ValidationSplit: clampFraction(validationSplit),
	}
}

// Build parses the fixed-size records and splits them into partitions.
func (d *CIFARDataset) Build(ctx context.Context) error {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return fmt.Errorf("read cifar batch %s: %w", d.Path, err)
	}
	if len(data)%cifarRecordSize != 0 {
		return fmt.Errorf("cifar batch %s: %d bytes is not a whole number of %d-byte records", d.Path, len(data), cifarRecordSize)
	}

	count := len(data) / cifarRecordSize
	if d.MaxCount > 0 && count > d.MaxCount {
		count = d.MaxCount
	}

	samples := make(Partition, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		base := i * cifarRecordSize
		class := int(data[base])
		if class >= cifarClasses {
			return fmt.Errorf("record %d: label %d out of range", i, class)
		}
		pixels, err := scaledFloats(data, base+1, cifarPixels, pixelDivisor)
		if err != nil {
			return err
		}
		t := NewTensor(cifarChannels, cifarRows, cifarCols)
		copy(t.Data, pixels)
		samples = append(samples, Sample{Data: t, Label: oneHotClass(class, cifarClasses)})
	}

	splitIdx := int(float64(len(samples)) * (1.0 - d.ValidationSplit))
	d.training = samples[:splitIdx]
	d.val = samples[splitIdx:]
	return nil
}

// Name returns the name of the dataset.
func (d *CIFARDataset) Name() string { return "CIFARDataset" }
