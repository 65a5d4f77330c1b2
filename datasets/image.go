package datasets

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
)

// ImageDepth is the channel layout a decoded image is expected to have.
type ImageDepth int

const (
	// RGB decodes to three planar channels.
	RGB ImageDepth = iota
	// RGBA decodes to four planar channels.
	RGBA
	// GrayScale decodes to a single channel.
	GrayScale
)

// Channels returns the expected channel count for the depth.
func (d ImageDepth) Channels() int {
	switch d {
	case RGBA:
		return 4
	case GrayScale:
		return 1
	default:
		return 3
	}
}

// ImageDecoder decodes one image file into planar per-channel float arrays.
// Pixel decoding is platform work this package stays out of; callers plug in
// whatever decoder they have.
type ImageDecoder func(path string) (planes [][]float32, rows, cols int, err error)

// ImageDataset assembles (image tensor, label tensor) pairs from a set of
// image files. Unlike CSVDataset's deterministic prefix/suffix split,
// validation membership is a seeded per-sample random draw against
// ValidationSplit.
type ImageDataset struct {
	partitions

	// Paths of the image files to load.
	Paths []string

	// Labels maps an image path to its label tensor. A path in Paths with
	// no entry here is a configuration error and aborts the build.
	Labels map[string]*Tensor

	// Decode is the injected image decoder.
	Decode ImageDecoder

	// Depth is the expected channel layout; decoded images with a different
	// channel count are rejected.
	Depth ImageDepth

	// ValidationSplit is the per-sample probability of landing in the
	// validation partition, clamped to [0.1, 0.9] at construction.
	ValidationSplit float64

	// Seed for the validation draw and shuffles. Identical seeds reproduce
	// identical splits.
	Seed int64

	// AllowEmptyValidation suppresses the ErrEmptyValidation check for
	// raw-passthrough uses.
	AllowEmptyValidation bool
}

// NewImageDataset creates an image dataset over the given files.
func NewImageDataset(paths []string, labels map[string]*Tensor, decode ImageDecoder, depth ImageDepth, validationSplit float64, seed int64) *ImageDataset {
	return &ImageDataset{
		Paths:           paths,
		Labels:          labels,
		Decode:          decode,
		Depth:           depth,
		ValidationSplit: clampFraction(validationSplit),
		Seed:            seed,
	}
}

// Build decodes every image and assigns each sample to training or
// validation by a seeded random draw. Files that fail to decode are logged
// and skipped; a missing label aborts the build.
func (d *ImageDataset) Build(ctx context.Context) error {
	if d.Decode == nil {
		return fmt.Errorf("image dataset has no decoder")
	}

	// Deterministic order regardless of how Paths was assembled.
	paths := make([]string, len(d.Paths))
	copy(paths, d.Paths)
	sort.Strings(paths)

	rng := rand.New(rand.NewSource(d.Seed))
	want := d.Depth.Channels()

	var training, validation Partition
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		label, ok := d.Labels[path]
		if !ok {
			return fmt.Errorf("%w: %s", ErrLabelMissing, path)
		}

		// Draw before decoding so the split sequence is stable even when
		// some files fail to decode.
		toValidation := rng.Float64() < d.ValidationSplit

		planes, rows, cols, err := d.Decode(path)
		if err != nil {
			slog.Warn("skipping undecodable image", "path", path, "err", err)
			continue
		}
		if len(planes) != want {
			slog.Warn("skipping image with unexpected depth", "path", path, "channels", len(planes), "want", want)
			continue
		}

		t, err := imageTensor(planes, rows, cols)
		if err != nil {
			return fmt.Errorf("image %s: %w", path, err)
		}
		sample := Sample{Data: t, Label: label}
		if toValidation {
			validation = append(validation, sample)
		} else {
			training = append(training, sample)
		}
	}

	if len(validation) == 0 && !d.AllowEmptyValidation {
		return ErrEmptyValidation
	}

	d.training = training
	d.val = validation
	return nil
}

// imageTensor packs planar channels into a (rows, cols, channels) tensor.
func imageTensor(planes [][]float32, rows, cols int) (*Tensor, error) {
	channels := len(planes)
	for c, plane := range planes {
		if len(plane) != rows*cols {
			return nil, fmt.Errorf("channel %d has %d values, want %d", c, len(plane), rows*cols)
		}
	}
	t := NewTensor(rows, cols, channels)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			for ch := 0; ch < channels; ch++ {
				t.Set(r, c, ch, planes[ch][r*cols+c])
			}
		}
	}
	return t, nil
}

// Name returns the name of the dataset.
func (d *ImageDataset) Name() string { return "ImageDataset" }
