package datasets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// writeCIFARBatch writes a synthetic batch of n records where record i has
// label i%10 and every pixel byte set to i.
func writeCIFARBatch(t *testing.T, dir string, n int) string {
	t.Helper()

	data := make([]byte, n*cifarRecordSize)
	for i := 0; i < n; i++ {
		base := i * cifarRecordSize
		data[base] = byte(i % 10)
		for p := 0; p < cifarPixels; p++ {
			data[base+1+p] = byte(i)
		}
	}
	path := filepath.Join(dir, "data_batch.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	return path
}

// TestCIFARDataset_Build verifies record parsing, pixel scaling, shapes and
// the deterministic prefix/suffix split.
func TestCIFARDataset_Build(t *testing.T) {
	tmp := t.TempDir()
	path := writeCIFARBatch(t, tmp, 10)

	ds := NewCIFARDataset(path, 0.2)
	if err := ds.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	training, validation := ds.Data()
	if len(training) != 8 || len(validation) != 2 {
		t.Fatalf("unexpected split: training=%d validation=%d", len(training), len(validation))
	}

	s := training[3]
	if s.Data.Shape[0] != cifarChannels || s.Data.Shape[1] != cifarRows || s.Data.Shape[2] != cifarCols {
		t.Fatalf("unexpected data shape: %v", s.Data.Shape)
	}
	want := float32(3) / 255
	if s.Data.Data[0] != want {
		t.Fatalf("unexpected pixel scaling: got %v want %v", s.Data.Data[0], want)
	}
	if s.Label.At(0, 3, 0) != 1.0 {
		t.Fatalf("label not one-hot at class 3")
	}
}

// TestCIFARDataset_PartialRecord verifies a file that is not a whole number
// of records is rejected.
func TestCIFARDataset_PartialRecord(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "truncated.bin")
	if err := os.WriteFile(path, make([]byte, cifarRecordSize+100), 0o644); err != nil {
		t.Fatalf("write truncated batch: %v", err)
	}

	ds := NewCIFARDataset(path, 0.2)
	if err := ds.Build(context.Background()); err == nil {
		t.Fatalf("expected error for partial record, got nil")
	}
}

// TestCIFARDataset_MaxCount verifies the record cap.
func TestCIFARDataset_MaxCount(t *testing.T) {
	tmp := t.TempDir()
	path := writeCIFARBatch(t, tmp, 10)

	ds := NewCIFARDataset(path, 0.2)
	ds.MaxCount = 5
	if err := ds.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	training, validation := ds.Data()
	if len(training)+len(validation) != 5 {
		t.Fatalf("expected 5 records with MaxCount=5, got %d", len(training)+len(validation))
	}
}
