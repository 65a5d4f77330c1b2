package main

// datastats builds a CSV dataset and reports what the training loop will
// see: partition sizes, vocabulary size, and plots of the vocabulary
// frequency distribution and of sentinel-stripped sequence lengths.
//
// Usage:
//
//	go run ./cmd/datastats -csv data/names.csv -column Name -mode char -max-length 10 -out plots
import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/Noofbiz/tensorsets/datasets"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

func main() {
	csvPath := flag.String("csv", "", "path to the CSV file (required)")
	columnName := flag.String("column", "", "header name of the column to extract (required)")
	mode := flag.String("mode", "char", "tokenization mode: char or word")
	maxLength := flag.Int("max-length", 32, "fixed tokenized sequence length")
	valSplit := flag.Float64("val", 0.2, "validation split fraction (clamped to [0.1, 0.9])")
	limit := flag.Int("limit", 0, "cap on data rows (0 = unlimited)")
	lowercase := flag.Bool("lowercase", false, "lower-case fields before tokenization")
	topN := flag.Int("top", 30, "number of vocabulary items in the frequency plot")
	outDir := flag.String("out", "plots", "output directory for generated plots")
	flag.Parse()

	if *csvPath == "" || *columnName == "" {
		flag.Usage()
		os.Exit(2)
	}

	column := datasets.Column{
		Name:      *columnName,
		Mode:      datasets.CharacterColumn,
		MaxLength: *maxLength,
		Lowercase: *lowercase,
	}
	if *mode == "word" {
		column.Mode = datasets.WordColumn
	}

	ds := datasets.NewCSVDataset(*csvPath, column, *valSplit)
	ds.MaxCount = *limit
	if err := ds.Build(context.Background()); err != nil {
		log.Fatalf("failed to build dataset: %v", err)
	}

	training, validation := ds.Data()
	log.Printf("column %q (%s mode, max length %d)", *columnName, *mode, *maxLength)
	log.Printf("training samples:   %d", len(training))
	log.Printf("validation samples: %d", len(validation))
	log.Printf("vocabulary size:    %d", ds.Vectorizer().Count())

	freq, lengths := collectStats(ds, append(append(datasets.Partition{}, training...), validation...))

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}
	if err := plotVocabFrequency(*outDir, freq, *topN); err != nil {
		log.Fatalf("failed to plot vocabulary frequency: %v", err)
	}
	if err := plotLengths(*outDir, lengths); err != nil {
		log.Fatalf("failed to plot sequence lengths: %v", err)
	}
	log.Printf("plots written to %s", *outDir)
}

// itemCount pairs a vocabulary item with its occurrence count.
type itemCount struct {
	item  string
	count int
}

// collectStats decodes every sample back to its item sequence and tallies
// item frequencies (sentinel excluded) and sentinel-stripped content
// lengths.
func collectStats(ds *datasets.CSVDataset, samples datasets.Partition) ([]itemCount, plotter.Values) {
	counts := make(map[string]int)
	lengths := make(plotter.Values, 0, len(samples))

	for _, s := range samples {
		items := ds.Vectorizer().UnvectorizeOneHot(s.Data)
		content := 0
		// Count up to the trailing sentinel run only.
		end := len(items)
		for end > 0 && items[end-1] == datasets.Sentinel {
			end--
		}
		for _, item := range items[:end] {
			counts[item]++
			content++
		}
		lengths = append(lengths, float64(content))
	}

	freq := make([]itemCount, 0, len(counts))
	for item, count := range counts {
		freq = append(freq, itemCount{item: item, count: count})
	}
	sort.Slice(freq, func(i, j int) bool {
		if freq[i].count != freq[j].count {
			return freq[i].count > freq[j].count
		}
		return freq[i].item < freq[j].item
	})
	return freq, lengths
}

// plotVocabFrequency writes a bar chart of the topN most frequent items.
func plotVocabFrequency(outDir string, freq []itemCount, topN int) error {
	if topN > len(freq) {
		topN = len(freq)
	}

	values := make(plotter.Values, topN)
	labels := make([]string, topN)
	for i := 0; i < topN; i++ {
		values[i] = float64(freq[i].count)
		labels[i] = fmt.Sprintf("%q", freq[i].item)
	}

	p := plot.New()
	p.Title.Text = "Vocabulary frequency"
	p.Y.Label.Text = "occurrences"

	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return err
	}
	bars.Color = color.RGBA{R: 20, G: 80, B: 200, A: 220}
	p.Add(bars)
	p.NominalX(labels...)

	return p.Save(10*vg.Inch, 5*vg.Inch, filepath.Join(outDir, "vocab_frequency.png"))
}

// plotLengths writes a histogram of sentinel-stripped sequence lengths,
// which makes truncation pressure at the configured max length visible.
func plotLengths(outDir string, lengths plotter.Values) error {
	p := plot.New()
	p.Title.Text = "Content length per row (before padding)"
	p.X.Label.Text = "items"
	p.Y.Label.Text = "rows"

	hist, err := plotter.NewHist(lengths, 20)
	if err != nil {
		return err
	}
	hist.FillColor = color.RGBA{R: 120, G: 120, B: 120, A: 180}
	p.Add(hist)

	return p.Save(8*vg.Inch, 5*vg.Inch, filepath.Join(outDir, "sequence_lengths.png"))
}
