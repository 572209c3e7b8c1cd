// Package ortho remaps count-matrix gene identifiers from one organism's
// namespace to another's using a two-column lookup table.
package ortho

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"

	"scTools/pkg/scdata"
)

// Pair is one row of the ortholog CSV.
type Pair struct {
	Source string `csv:"gene"`
	Target string `csv:"ortholog"`
}

// Table is a cleaned source->target gene name mapping.
type Table struct {
	Pairs  []Pair
	lookup map[string]string
}

// Clean drops rows with a missing field and de-duplicates by source
// identifier. File order is authoritative: the first occurrence of a source
// identifier wins. Clean is idempotent.
func Clean(pairs []Pair) []Pair {
	complete := lo.Filter(pairs, func(p Pair, _ int) bool {
		return p.Source != "" && p.Target != ""
	})
	return lo.UniqBy(complete, func(p Pair) string { return p.Source })
}

// NewTable builds the lookup from already-loaded rows, cleaning them first.
func NewTable(pairs []Pair) *Table {
	cleaned := Clean(pairs)
	t := &Table{
		Pairs:  cleaned,
		lookup: make(map[string]string, len(cleaned)),
	}
	for _, p := range cleaned {
		t.lookup[p.Source] = p.Target
	}
	return t
}

// LoadTable reads and cleans the ortholog mapping CSV.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pairs []Pair
	if err := gocsv.UnmarshalFile(f, &pairs); err != nil {
		return nil, fmt.Errorf("parse ortholog table %s: %w", path, err)
	}
	return NewTable(pairs), nil
}

func (t *Table) Lookup(source string) (string, bool) {
	target, ok := t.lookup[source]
	return target, ok
}

func (t *Table) Len() int { return len(t.Pairs) }

// TranslateMatrix returns a copy of m with feature names mapped through t.
// With keepUnmapped, features absent from the table keep their original
// name; otherwise they are dropped. When two features would end up with the
// same final name (many-to-one orthology, or an unmapped name colliding
// with a mapped target) the first feature in matrix order wins and later
// ones are dropped with a warning.
func TranslateMatrix(m *scdata.CountMatrix, t *Table, keepUnmapped bool) *scdata.CountMatrix {
	type kept struct {
		src  int
		name string
	}
	var rows []kept
	seen := make(map[string]int)
	for i, feature := range m.Features {
		name, ok := t.Lookup(feature)
		if !ok {
			if !keepUnmapped {
				continue
			}
			name = feature
		}
		if prev, dup := seen[name]; dup {
			slog.Warn("gene name collision after ortholog mapping, dropping later feature",
				"name", name, "kept", m.Features[prev], "dropped", feature)
			continue
		}
		seen[name] = i
		rows = append(rows, kept{src: i, name: name})
	}

	features := make([]string, len(rows))
	for pos, r := range rows {
		features[pos] = r.name
	}
	out := scdata.NewCountMatrix(features, m.Barcodes)
	for pos, r := range rows {
		for j, v := range m.Row(r.src) {
			out.Set(pos, j, v)
		}
	}
	return out
}

// MergeSamples reads base/<sample>/matrix.mtx.gz (with sibling
// features.tsv.gz and barcodes.tsv.gz) for every sample, translates gene
// names through the mapping CSV at csvPath and folds the per-sample
// datasets together by pairwise merge in input order. Missing matrix files
// and malformed tables are fatal.
func MergeSamples(base string, samples []string, csvPath string, keepUnmapped bool) (*scdata.Dataset, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to merge")
	}
	table, err := LoadTable(csvPath)
	if err != nil {
		return nil, err
	}

	var merged *scdata.Dataset
	for _, sample := range samples {
		dir := filepath.Join(base, sample)
		m, err := scdata.ReadMatrixFile(
			filepath.Join(dir, "matrix.mtx.gz"),
			filepath.Join(dir, "features.tsv.gz"),
			filepath.Join(dir, "barcodes.tsv.gz"),
		)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", sample, err)
		}
		m = TranslateMatrix(m, table, keepUnmapped)
		m.SuffixBarcodes(sample)

		ds := scdata.NewDataset(m, sample, 0, 0)
		if merged == nil {
			merged = ds
			continue
		}
		merged, err = merged.Merge(ds)
		if err != nil {
			return nil, err
		}
	}
	return merged, nil
}
