package datasets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
)

// QuickDraw fixed-format constants: the hosted .npy bitmap archives carry an
// 80-byte header followed by raw 28x28 grayscale bitmaps, one byte per
// pixel.
const (
	quickDrawHeader = 80
	quickDrawRows   = 28
	quickDrawCols   = 28
	quickDrawPixels = quickDrawRows * quickDrawCols

	// DefaultQuickDrawBaseURL hosts the numpy bitmap archives, one per
	// category.
	DefaultQuickDrawBaseURL = "https://storage.googleapis.com/quickdraw_dataset/full/numpy_bitmap/"
)

// QuickDrawDataset downloads quick-draw sketch archives, one per category,
// and assembles (bitmap tensor, one-hot category) pairs. A failed download
// is reported and that category contributes no samples; Build does not fail,
// so callers must check for empty partitions.
//
// Validation membership uses the seeded per-sample random draw, like
// ImageDataset.
type QuickDrawDataset struct {
	partitions

	// Categories to download; the one-hot label index of a sample is the
	// position of its category in this slice.
	Categories []string

	// BaseURL of the archive host. Defaults to DefaultQuickDrawBaseURL.
	BaseURL string

	// Client used for downloads. Defaults to http.DefaultClient.
	Client *http.Client

	// MaxPerCategory caps how many sketches are taken from each archive.
	// 0 means all of them.
	MaxPerCategory int

	// ValidationSplit is the per-sample validation probability, clamped to
	// [0.1, 0.9] at construction.
	ValidationSplit float64

	// Seed for the validation draw. Identical seeds reproduce identical
	// splits.
	Seed int64
}

// NewQuickDrawDataset creates a dataset over the given sketch categories.
func NewQuickDrawDataset(categories []string, validationSplit float64, seed int64) *QuickDrawDataset {
	return &QuickDrawDataset{
		Categories:      categories,
		BaseURL:         DefaultQuickDrawBaseURL,
		ValidationSplit: clampFraction(validationSplit),
		Seed:            seed,
	}
}

// Build downloads every category archive in parallel, joins, then assembles
// samples in category order so the split is deterministic for a given seed.
func (d *QuickDrawDataset) Build(ctx context.Context) error {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	base := d.BaseURL
	if base == "" {
		base = DefaultQuickDrawBaseURL
	}

	blobs := make([][]byte, len(d.Categories))
	var wg sync.WaitGroup
	wg.Add(len(d.Categories))
	for i, category := range d.Categories {
		go func(i int, category string) {
			defer wg.Done()
			data, err := d.download(ctx, client, base, category)
			if err != nil {
				// Recoverable: the category just contributes nothing.
				slog.Warn("quickdraw download failed", "category", category, "err", err)
				return
			}
			blobs[i] = data
		}(i, category)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(d.Seed))
	var training, validation Partition
	for class, blob := range blobs {
		if blob == nil {
			continue
		}
		samples, err := d.assembleCategory(blob, class)
		if err != nil {
			slog.Warn("quickdraw archive unusable", "category", d.Categories[class], "err", err)
			continue
		}
		for _, s := range samples {
			if rng.Float64() < d.ValidationSplit {
				validation = append(validation, s)
			} else {
				training = append(training, s)
			}
		}
	}

	d.training = training
	d.val = validation
	return nil
}

// download fetches one category archive.
func (d *QuickDrawDataset) download(ctx context.Context, client *http.Client, base, category string) ([]byte, error) {
	u := base + url.PathEscape(category) + ".npy"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", u, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// assembleCategory slices the fixed-offset archive into bitmap samples.
func (d *QuickDrawDataset) assembleCategory(blob []byte, class int) (Partition, error) {
	if len(blob) < quickDrawHeader+quickDrawPixels {
		return nil, fmt.Errorf("archive too short: %d bytes", len(blob))
	}
	count := (len(blob) - quickDrawHeader) / quickDrawPixels
	if d.MaxPerCategory > 0 && count > d.MaxPerCategory {
		count = d.MaxPerCategory
	}

	samples := make(Partition, 0, count)
	for i := 0; i < count; i++ {
		pixels, err := scaledFloats(blob, quickDrawHeader+i*quickDrawPixels, quickDrawPixels, pixelDivisor)
		if err != nil {
			return nil, err
		}
		t := NewTensor(quickDrawRows, quickDrawCols, 1)
		copy(t.Data, pixels)
		samples = append(samples, Sample{Data: t, Label: oneHotClass(class, len(d.Categories))})
	}
	return samples, nil
}

// Name returns the name of the dataset.
func (d *QuickDrawDataset) Name() string { return "QuickDrawDataset" }
