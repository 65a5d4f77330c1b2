package datasets

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// MNIST fixed-format constants: IDX image files carry a 16-byte header,
// label files an 8-byte header, and pixels are single bytes scaled to
// [0, 1] by 255.
const (
	mnistImageHeader = 16
	mnistLabelHeader = 8
	mnistRows        = 28
	mnistCols        = 28
	mnistClasses     = 10
	pixelDivisor     = 255
)

// MNISTDataset loads the four-blob MNIST layout: training images, training
// labels, validation images and validation labels, each a fixed-offset
// binary file. The four reads fan out as independent tasks and join before
// samples are assembled.
type MNISTDataset struct {
	partitions

	// TrainingImages, TrainingLabels, ValidationImages, ValidationLabels
	// are the four file paths.
	TrainingImages   string
	TrainingLabels   string
	ValidationImages string
	ValidationLabels string
}

// NewMNISTDataset creates an MNIST dataset over the four blob paths.
func NewMNISTDataset(trainImages, trainLabels, valImages, valLabels string) *MNISTDataset {
	return &MNISTDataset{
		TrainingImages:   trainImages,
		TrainingLabels:   trainLabels,
		ValidationImages: valImages,
		ValidationLabels: valLabels,
	}
}

// Build reads all four blobs in parallel, joins, and assembles the
// partitions. Any read error aborts the build; there is no sensible partial
// result.
func (d *MNISTDataset) Build(ctx context.Context) error {
	var trainImgs, trainLabs, valImgs, valLabs []byte
	reads := []struct {
		path string
		dst  *[]byte
	}{
		{d.TrainingImages, &trainImgs},
		{d.TrainingLabels, &trainLabs},
		{d.ValidationImages, &valImgs},
		{d.ValidationLabels, &valLabs},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(reads))
	wg.Add(len(reads))
	for i := range reads {
		go func(i int) {
			defer wg.Done()
			data, err := os.ReadFile(reads[i].path)
			if err != nil {
				errs[i] = fmt.Errorf("read %s: %w", reads[i].path, err)
				return
			}
			*reads[i].dst = data
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	training, err := assembleMNIST(trainImgs, trainLabs)
	if err != nil {
		return fmt.Errorf("training blobs: %w", err)
	}
	validation, err := assembleMNIST(valImgs, valLabs)
	if err != nil {
		return fmt.Errorf("validation blobs: %w", err)
	}

	d.training = training
	d.val = validation
	return nil
}

// assembleMNIST pairs each 28x28 image with its one-hot label.
func assembleMNIST(images, labels []byte) (Partition, error) {
	if len(labels) < mnistLabelHeader {
		return nil, fmt.Errorf("label blob too short: %d bytes", len(labels))
	}
	count := len(labels) - mnistLabelHeader
	pixelsPer := mnistRows * mnistCols
	if len(images) < mnistImageHeader+count*pixelsPer {
		return nil, fmt.Errorf("image blob too short for %d examples", count)
	}

	samples := make(Partition, 0, count)
	for i := 0; i < count; i++ {
		pixels, err := scaledFloats(images, mnistImageHeader+i*pixelsPer, pixelsPer, pixelDivisor)
		if err != nil {
			return nil, err
		}
		class := int(labels[mnistLabelHeader+i])
		if class >= mnistClasses {
			return nil, fmt.Errorf("example %d: label %d out of range", i, class)
		}
		t := NewTensor(mnistRows, mnistCols, 1)
		copy(t.Data, pixels)
		samples = append(samples, Sample{Data: t, Label: oneHotClass(class, mnistClasses)})
	}
	return samples, nil
}

// Name returns the name of the dataset.
func (d *MNISTDataset) Name() string { return "MNISTDataset" }
