package datasets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// writeCSV writes a CSV file with the given header and rows to path.
func writeCSV(t *testing.T, path, header string, rows []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create csv %s: %v", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(header + "\n"); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	for _, r := range rows {
		if _, err := f.WriteString(r + "\n"); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}
}

// namesCSV writes an Id,Name file with n generated rows and returns its path.
func namesCSV(t *testing.T, dir string, n int) string {
	t.Helper()
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf("%d,name%d", i+1, i+1)
	}
	path := filepath.Join(dir, "names.csv")
	writeCSV(t, path, "Id,Name", rows)
	return path
}

// TestCSVDataset_SplitCounts verifies the deterministic prefix/suffix split
// arithmetic: 969 data rows at a 0.2 validation fraction yield
// floor(969*0.8) training samples and the remainder as validation.
func TestCSVDataset_SplitCounts(t *testing.T) {
	tmp := t.TempDir()
	path := namesCSV(t, tmp, 969)

	ds := NewCSVDataset(path, Column{Name: "Name", Mode: CharacterColumn, MaxLength: 10}, 0.2)
	if err := ds.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	training, validation := ds.Data()
	rowCount := 969
	wantTraining := int(float64(rowCount) * 0.8)
	if len(training) != wantTraining {
		t.Fatalf("training count: got %d want %d", len(training), wantTraining)
	}
	if len(validation) != 969-wantTraining {
		t.Fatalf("validation count: got %d want %d", len(validation), 969-wantTraining)
	}

	// The split is positional: the first row stays at the head of training.
	if got := StripSentinel(ds.GetWord(training[0].Data)); got != "name1" {
		t.Fatalf("first training sample decoded to %q, want %q", got, "name1")
	}
}

// TestCSVDataset_NextCharacterLabel verifies the shifted-label scheme for a
// character column: the label drops the first character and is refilled to
// full depth with the sentinel delimiter.
func TestCSVDataset_NextCharacterLabel(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "small.csv")
	writeCSV(t, path, "Id,Name", []string{"1,mary", "2,anna", "3,john", "4,lee", "5,kim"})

	ds := NewCSVDataset(path, Column{Name: "Name", Mode: CharacterColumn, MaxLength: 10}, 0.2)
	if err := ds.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	training, _ := ds.Data()
	mary := training[0]

	if got := StripSentinel(ds.GetWord(mary.Data)); got != "mary" {
		t.Fatalf("decoded data: got %q want %q", got, "mary")
	}
	if got := StripSentinel(ds.GetWord(mary.Label)); got != "ary" {
		t.Fatalf("decoded label: got %q want %q", got, "ary")
	}
	// The label was padded back to full depth with delimiter encodings.
	if mary.Label.Depth() != mary.Data.Depth() {
		t.Fatalf("label depth %d != data depth %d", mary.Label.Depth(), mary.Data.Depth())
	}
	if !strings.HasSuffix(ds.GetWord(mary.Label), Sentinel) {
		t.Fatalf("label not sentinel-terminated: %q", ds.GetWord(mary.Label))
	}
}

// TestCSVDataset_SentenceRoundTrip verifies a lower-cased word column
// round-trips exactly through one-hot encode/decode at max length 140.
func TestCSVDataset_SentenceRoundTrip(t *testing.T) {
	tweet := "Which #bitcoin books should I think about reading next? https://t.co/32gas26rKB"
	lowered := strings.ToLower(tweet)

	tmp := t.TempDir()
	path := filepath.Join(tmp, "tweets.csv")
	writeCSV(t, path, "Id,Text", []string{"1," + tweet, "2,hodl or fold", "3,gm", "4,ngmi", "5,wagmi"})

	ds := NewCSVDataset(path, Column{Name: "Text", Mode: WordColumn, MaxLength: 140, Lowercase: true}, 0.2)
	if err := ds.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	training, _ := ds.Data()
	if got := StripSentinel(ds.GetWord(training[0].Data)); got != lowered {
		t.Fatalf("decoded tweet: got %q want %q", got, lowered)
	}

	// The token sequence itself round-trips exactly, sentinels included.
	tokens := WordTokens(lowered, 140)
	back := ds.Vectorizer().UnvectorizeOneHot(ds.Vectorizer().OneHot(tokens))
	if !reflect.DeepEqual(back, tokens) {
		t.Fatalf("token sequence round trip mismatch")
	}
}

// TestCSVDataset_UniformShapes verifies every sample shares the final
// vocabulary size in its one-hot row dimension, regardless of how early its
// row appeared.
func TestCSVDataset_UniformShapes(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "names.csv")
	writeCSV(t, path, "Id,Name", []string{"1,ab", "2,cd", "3,ef", "4,gh", "5,ij"})

	ds := NewCSVDataset(path, Column{Name: "Name", Mode: CharacterColumn, MaxLength: 4}, 0.2)
	if err := ds.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	training, validation := ds.Data()
	all := append(append(Partition{}, training...), validation...)
	vocab := ds.Vectorizer().Count()
	for i, s := range all {
		if !reflect.DeepEqual(s.Data.Shape, []int{1, vocab, 4}) {
			t.Fatalf("sample %d shape %v, want [1 %d 4]", i, s.Data.Shape, vocab)
		}
	}
}

// TestCSVDataset_UnmappedColumnDefaultsToZero pins the observed behavior
// that a column name absent from the header resolves to index 0 instead of
// failing. Changing this requires updating this test deliberately.
func TestCSVDataset_UnmappedColumnDefaultsToZero(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "names.csv")
	writeCSV(t, path, "Id,Name", []string{"1,mary", "2,anna", "3,john", "4,lee", "5,kim"})

	ds := NewCSVDataset(path, Column{Name: "NoSuchColumn", Mode: CharacterColumn, MaxLength: 4}, 0.2)
	if err := ds.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	training, _ := ds.Data()
	// Index 0 is the Id column, so the first sample decodes to "1".
	if got := StripSentinel(ds.GetWord(training[0].Data)); got != "1" {
		t.Fatalf("expected silent fallback to column 0, decoded %q", got)
	}
}

// TestCSVDataset_HeaderMissing verifies an empty file fails with the typed
// header-missing error.
func TestCSVDataset_HeaderMissing(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "empty.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	ds := NewCSVDataset(path, Column{Name: "Name", Mode: CharacterColumn, MaxLength: 4}, 0.2)
	err := ds.Build(context.Background())
	if !errors.Is(err, ErrHeaderMissing) {
		t.Fatalf("expected ErrHeaderMissing, got %v", err)
	}
}

// TestCSVDataset_ShortRowsSkipped verifies rows without the target column
// are silently dropped, so the sample count may be less than the row count.
func TestCSVDataset_ShortRowsSkipped(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "ragged.csv")
	writeCSV(t, path, "Id,Name,Nick", []string{
		"1,mary,mae",
		"2,anna", // no Nick field; skipped
		"3,john,jj",
		"4,lee,l",
		"5,kim,k",
	})

	ds := NewCSVDataset(path, Column{Name: "Nick", Mode: CharacterColumn, MaxLength: 4}, 0.2)
	if err := ds.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	training, validation := ds.Data()
	if got := len(training) + len(validation); got != 4 {
		t.Fatalf("expected 4 samples after skipping the short row, got %d", got)
	}
}

// TestCSVDataset_MaxCount verifies the row cap.
func TestCSVDataset_MaxCount(t *testing.T) {
	tmp := t.TempDir()
	path := namesCSV(t, tmp, 50)

	ds := NewCSVDataset(path, Column{Name: "Name", Mode: CharacterColumn, MaxLength: 8}, 0.2)
	ds.MaxCount = 10
	if err := ds.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	training, validation := ds.Data()
	if got := len(training) + len(validation); got != 10 {
		t.Fatalf("expected 10 samples with MaxCount=10, got %d", got)
	}
}

// TestCSVDataset_IndexEncoding verifies the plain index representation:
// data shape [1, 1, maxLen], labels shifted the same way, and GetWord
// decoding both.
func TestCSVDataset_IndexEncoding(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "names.csv")
	writeCSV(t, path, "Id,Name", []string{"1,mary", "2,anna", "3,john", "4,lee", "5,kim"})

	ds := NewCSVDataset(path, Column{Name: "Name", Mode: CharacterColumn, MaxLength: 10}, 0.2)
	ds.OneHotEncode = false
	if err := ds.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	training, _ := ds.Data()
	mary := training[0]
	if !reflect.DeepEqual(mary.Data.Shape, []int{1, 1, 10}) {
		t.Fatalf("unexpected index tensor shape: %v", mary.Data.Shape)
	}
	if got := StripSentinel(ds.GetWord(mary.Data)); got != "mary" {
		t.Fatalf("decoded data: got %q want %q", got, "mary")
	}
	if got := StripSentinel(ds.GetWord(mary.Label)); got != "ary" {
		t.Fatalf("decoded label: got %q want %q", got, "ary")
	}
}

// TestCSVDataset_OverrideLabel verifies a caller-supplied label replaces the
// shifted-sequence label on every sample.
func TestCSVDataset_OverrideLabel(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "names.csv")
	writeCSV(t, path, "Id,Name", []string{"1,mary", "2,anna", "3,john", "4,lee", "5,kim"})

	fixed := oneHotClass(2, 5)
	ds := NewCSVDataset(path, Column{Name: "Name", Mode: CharacterColumn, MaxLength: 10}, 0.2)
	ds.OverrideLabel = fixed
	if err := ds.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	training, validation := ds.Data()
	for _, s := range append(append(Partition{}, training...), validation...) {
		if !s.Label.Equal(fixed) {
			t.Fatalf("sample label was not overridden")
		}
	}
}

// TestCSVDataset_VocabularyExportImport verifies a persisted vocabulary can
// seed a fresh dataset so indices stay stable across instances.
func TestCSVDataset_VocabularyExportImport(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "names.csv")
	writeCSV(t, path, "Id,Name", []string{"1,mary", "2,anna", "3,john", "4,lee", "5,kim"})

	first := NewCSVDataset(path, Column{Name: "Name", Mode: CharacterColumn, MaxLength: 10}, 0.2)
	if err := first.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	vocabPath := filepath.Join(tmp, "vocab.json")
	if _, err := first.Vectorizer().Export(vocabPath, true, false); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	second := NewCSVDataset(path, Column{Name: "Name", Mode: CharacterColumn, MaxLength: 10}, 0.2)
	if err := second.ImportVocabulary(vocabPath); err != nil {
		t.Fatalf("ImportVocabulary failed: %v", err)
	}
	if err := second.Build(context.Background()); err != nil {
		t.Fatalf("second Build failed: %v", err)
	}

	fTrain, _ := first.Data()
	sTrain, _ := second.Data()
	if !fTrain[0].Data.Equal(sTrain[0].Data) {
		t.Fatalf("imported vocabulary produced different encodings")
	}
}
