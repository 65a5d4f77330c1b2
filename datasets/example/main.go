package main

// Example command that demonstrates building a CSV dataset, decoding samples
// back to text, and converting samples into gomlx tensors for a training
// loop.
//
// Usage:
//
//	go run ./datasets/example
import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Noofbiz/tensorsets/datasets"
)

func main() {
	// Write a small demo CSV so the example is self-contained.
	dir, err := os.MkdirTemp("", "tensorsets-example")
	if err != nil {
		log.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "names.csv")
	content := "Id,Name\n1,mary\n2,anna\n3,john\n4,lee\n5,kim\n6,omar\n7,ada\n8,bo\n9,iris\n10,max\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		log.Fatalf("failed to write demo csv: %v", err)
	}

	ds := datasets.NewCSVDataset(path, datasets.Column{
		Name:      "Name",
		Mode:      datasets.CharacterColumn,
		MaxLength: 10,
	}, 0.2)
	if err := ds.Build(context.Background()); err != nil {
		log.Fatalf("failed to build dataset: %v", err)
	}

	training, validation := ds.Data()
	fmt.Printf("Training samples: %d, validation samples: %d\n", len(training), len(validation))
	fmt.Printf("Vocabulary size: %d\n", ds.Vectorizer().Count())

	// Decode the first training pair: the label is the input shifted by one
	// character and terminated with the delimiter.
	first := training[0]
	fmt.Printf("Data:  %q\n", datasets.StripSentinel(ds.GetWord(first.Data)))
	fmt.Printf("Label: %q\n", datasets.StripSentinel(ds.GetWord(first.Label)))

	// Convert a batch into gomlx tensors via the Yield adapter.
	ds.BatchSize = 4
	_, inputs, labels, err := ds.Yield()
	if err != nil {
		log.Fatalf("failed to yield batch: %v", err)
	}
	fmt.Printf("Yielded gomlx batch: %d inputs, %d labels (input=%T)\n", len(inputs), len(labels), inputs[0])

	// Persist the vocabulary so a later run encodes identically.
	vocabPath := filepath.Join(dir, "vocab.json")
	if loc, err := ds.Vectorizer().Export(vocabPath, true, false); err != nil {
		log.Fatalf("failed to export vocabulary: %v", err)
	} else {
		fmt.Printf("Vocabulary exported to %s\n", loc)
	}
}
