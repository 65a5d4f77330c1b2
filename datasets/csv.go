package datasets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ColumnMode selects the tokenization granularity for a CSV column.
type ColumnMode int

const (
	// CharacterColumn tokenizes the field into individual characters.
	CharacterColumn ColumnMode = iota

	// WordColumn tokenizes the field into whitespace-delimited tokens
	// interleaved with explicit space tokens.
	WordColumn
)

// Column describes the logical CSV column a CSVDataset extracts and how its
// raw field values become fixed-length item sequences.
type Column struct {
	// Name is matched exactly against the header line tokens.
	Name string

	// Mode selects character- or word-level tokenization.
	Mode ColumnMode

	// MaxLength is the fixed item-sequence length: shorter fields are padded
	// with the sentinel, longer fields are silently truncated.
	MaxLength int

	// Lowercase lower-cases the raw field before tokenization.
	Lowercase bool

	// DropCharacters are stripped from the field before character
	// tokenization (e.g. stray "\r" from CRLF files).
	DropCharacters string
}

// CSVDataset loads a delimited text file and assembles (input, label) tensor
// pairs for next-item prediction. The file content is read once at Build and
// held on the dataset for its lifetime.
//
// The label for each row is the input sequence shifted left by LabelOffset
// positions, with the trailing gap filled by the encoded sentinel delimiter.
// Setting OverrideLabel replaces every label with a fixed tensor instead
// (classification-by-category framing).
type CSVDataset struct {
	partitions

	// Path of the CSV file.
	Path string

	// Column configuration for the extracted field.
	Column Column

	// ValidationSplit is the fraction of rows assigned to the validation
	// partition, clamped to [0.1, 0.9] at construction. The split is a
	// deterministic prefix/suffix split over the row order, not a random
	// assignment.
	ValidationSplit float64

	// MaxCount caps the number of data rows used. 0 means unlimited.
	MaxCount int

	// LabelOffset is the number of leading items dropped from the input to
	// form the label. Defaults to 1 when zero.
	LabelOffset int

	// OneHotEncode selects one-hot tensors of shape [1, vocab, MaxLength];
	// when false, inputs are plain index tensors of shape [1, 1, MaxLength].
	OneHotEncode bool

	// OverrideLabel, when set, replaces every sample's label.
	OverrideLabel *Tensor

	content    string
	vectorizer *Vectorizer[string]
}

// NewCSVDataset creates a CSV dataset for one logical column. The validation
// fraction is clamped into [0.1, 0.9].
func NewCSVDataset(path string, column Column, validationSplit float64) *CSVDataset {
	return &CSVDataset{
		Path:            path,
		Column:          column,
		ValidationSplit: clampFraction(validationSplit),
		LabelOffset:     1,
		OneHotEncode:    true,
		vectorizer:      NewVectorizer[string](),
	}
}

// Vectorizer exposes the dataset's vocabulary for export or inspection. The
// vectorizer stays owned by the dataset; it is not shared across instances
// unless explicitly re-imported.
func (d *CSVDataset) Vectorizer() *Vectorizer[string] {
	return d.vectorizer
}

// ImportVocabulary replaces the dataset's vocabulary with one previously
// exported by a Vectorizer. It must be called before Build.
func (d *CSVDataset) ImportVocabulary(path string) error {
	v, err := ImportVectorizer[string](path)
	if err != nil {
		return err
	}
	d.vectorizer = v
	return nil
}

// resolveColumn maps the declared column name to its positional index by
// exact string match against the header tokens. An unmatched name resolves
// to index 0; see TestCSVDataset_UnmappedColumnDefaultsToZero, which pins
// this behavior.
func resolveColumn(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return 0
}

// Build reads the file once, extracts the configured column from every
// usable row, tokenizes and vectorizes the fields, derives shifted labels,
// and splits the samples into training and validation partitions.
func (d *CSVDataset) Build(ctx context.Context) error {
	if d.content == "" {
		raw, err := os.ReadFile(d.Path)
		if err != nil {
			return fmt.Errorf("read csv %s: %w", d.Path, err)
		}
		d.content = string(raw)
	}

	lines := strings.Split(d.content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return fmt.Errorf("%w: %s", ErrHeaderMissing, d.Path)
	}
	headers := strings.Split(lines[0], ",")
	target := resolveColumn(headers, d.Column.Name)

	// Extract the target field per data row. Rows shorter than the target
	// index are skipped, so the sample count may be less than the row count.
	fields := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		if d.MaxCount > 0 && len(fields) == d.MaxCount {
			break
		}
		cols := strings.Split(line, ",")
		if target >= len(cols) {
			continue
		}
		raw := cols[target]
		if d.Column.Lowercase {
			raw = strings.ToLower(raw)
		}
		fields = append(fields, raw)
	}

	// First pass registers the full vocabulary so every one-hot tensor in
	// the dataset shares the final row dimension.
	tokenized := make([][]string, len(fields))
	for i, raw := range fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		tokenized[i] = d.tokenize(raw)
		d.vectorizer.Vectorize(tokenized[i])
	}
	d.vectorizer.Vectorize([]string{Sentinel})

	offset := d.LabelOffset
	if offset <= 0 {
		offset = 1
	}

	samples := make(Partition, 0, len(tokenized))
	for _, tokens := range tokenized {
		if err := ctx.Err(); err != nil {
			return err
		}
		data := d.encode(tokens)
		label := d.OverrideLabel
		if label == nil {
			var err error
			label, err = d.shiftLabel(data, offset)
			if err != nil {
				return fmt.Errorf("derive label: %w", err)
			}
		}
		samples = append(samples, Sample{Data: data, Label: label})
	}

	splitIdx := int(float64(len(samples)) * (1.0 - d.ValidationSplit))
	d.training = samples[:splitIdx]
	d.val = samples[splitIdx:]
	return nil
}

// tokenize applies the column's tokenization mode.
func (d *CSVDataset) tokenize(raw string) []string {
	if d.Column.Mode == WordColumn {
		return WordTokens(raw, d.Column.MaxLength)
	}
	return CharacterTokens(raw, d.Column.MaxLength, d.Column.DropCharacters)
}

// encode turns a fixed-length token sequence into the configured tensor
// representation.
func (d *CSVDataset) encode(tokens []string) *Tensor {
	if d.OneHotEncode {
		return d.vectorizer.OneHot(tokens)
	}
	indices := d.vectorizer.Vectorize(tokens)
	t := NewTensor(1, 1, len(indices))
	for i, idx := range indices {
		t.Data[i] = float32(idx)
	}
	return t
}

// shiftLabel slices off the first offset depth positions and restores the
// original depth with encoded sentinel items. Padding is only added while
// the sliced remainder is strictly shorter than the configured max length.
func (d *CSVDataset) shiftLabel(data *Tensor, offset int) (*Tensor, error) {
	depth := data.Depth()
	if offset > depth {
		offset = depth
	}
	label, err := data.SliceDepth(offset, depth)
	if err != nil {
		return nil, err
	}
	if label.Depth() >= d.Column.MaxLength {
		return label, nil
	}

	fill := d.Column.MaxLength - label.Depth()
	pad := d.encodeSentinel(fill, data.Shape[1])
	return label.ConcatDepth(pad)
}

// encodeSentinel builds a tensor of n encoded sentinel items matching the
// dataset's representation, with the given one-hot row count.
func (d *CSVDataset) encodeSentinel(n, rows int) *Tensor {
	idx := d.vectorizer.Vectorize([]string{Sentinel})[0]
	if !d.OneHotEncode {
		t := NewTensor(1, 1, n)
		for i := range t.Data {
			t.Data[i] = float32(idx)
		}
		return t
	}
	t := NewTensor(1, rows, n)
	for col := 0; col < n; col++ {
		t.Set(0, idx, col, 1.0)
	}
	return t
}

// GetWord decodes either tensor representation back to the joined item
// sequence. Trailing sentinels are preserved; use StripSentinel to drop
// them.
func (d *CSVDataset) GetWord(t *Tensor) string {
	var items []string
	if len(t.Shape) == 3 && t.Shape[1] > 1 {
		items = d.vectorizer.UnvectorizeOneHot(t)
	} else {
		indices := make([]int, len(t.Data))
		for i, v := range t.Data {
			indices[i] = int(v)
		}
		items = d.vectorizer.Unvectorize(indices)
	}
	return strings.Join(items, "")
}

// Name returns the name of the dataset.
func (d *CSVDataset) Name() string { return "CSVDataset" }
