package scdata

import (
	"fmt"
	"log"
	"log/slog"
	"regexp"
)

// Dataset wraps one count matrix with per-cell metadata, named 2-D
// embeddings and a provenance tag. It is created on load and mutated in
// place by downstream calls.
type Dataset struct {
	Project string
	Matrix  *CountMatrix

	// per-cell columns, each the length of Matrix.Barcodes
	NumericMeta map[string][]float64
	Meta        map[string][]string

	Embeddings map[string][][2]float64

	DefaultAssay string
}

// NewDataset builds a Dataset from a count matrix, keeping only cells with
// at least minFeatures detected features and then only features detected in
// at least minCells of the kept cells.
func NewDataset(m *CountMatrix, project string, minCells, minFeatures int) *Dataset {
	featuresPerCell := make([]int, m.NCells())
	for i := range m.rows {
		for j := range m.rows[i] {
			featuresPerCell[j]++
		}
	}
	keepCells := make([]int, 0, m.NCells())
	for j, n := range featuresPerCell {
		if n >= minFeatures {
			keepCells = append(keepCells, j)
		}
	}

	cellPos := make(map[int]int, len(keepCells))
	barcodes := make([]string, len(keepCells))
	for pos, j := range keepCells {
		cellPos[j] = pos
		barcodes[pos] = m.Barcodes[j]
	}

	var keepFeatures []int
	for i := range m.rows {
		var n int
		for j := range m.rows[i] {
			if _, ok := cellPos[j]; ok {
				n++
			}
		}
		if n >= minCells {
			keepFeatures = append(keepFeatures, i)
		}
	}

	features := make([]string, len(keepFeatures))
	for pos, i := range keepFeatures {
		features[pos] = m.Features[i]
	}

	filtered := NewCountMatrix(features, barcodes)
	for pos, i := range keepFeatures {
		for j, v := range m.rows[i] {
			if cj, ok := cellPos[j]; ok {
				filtered.Set(pos, cj, v)
			}
		}
	}

	return &Dataset{
		Project:      project,
		Matrix:       filtered,
		NumericMeta:  make(map[string][]float64),
		Meta:         make(map[string][]string),
		Embeddings:   make(map[string][][2]float64),
		DefaultAssay: "RNA",
	}
}

func (d *Dataset) NCells() int    { return d.Matrix.NCells() }
func (d *Dataset) NFeatures() int { return d.Matrix.NFeatures() }

// PercentFeatureSet computes, per cell, the percentage of total counts
// attributable to features matching pattern, stores it as numeric metadata
// under name and returns the column.
func (d *Dataset) PercentFeatureSet(name string, pattern *regexp.Regexp) []float64 {
	subset := make([]float64, d.NCells())
	for i, feature := range d.Matrix.Features {
		if !pattern.MatchString(feature) {
			continue
		}
		for j, v := range d.Matrix.Row(i) {
			subset[j] += v
		}
	}

	totals := d.Matrix.ColSums()
	percent := make([]float64, d.NCells())
	for j := range percent {
		if totals[j] > 0 {
			percent[j] = 100 * subset[j] / totals[j]
		}
	}
	d.NumericMeta[name] = percent
	return percent
}

// FetchFeature returns per-cell expression values for one feature name.
func (d *Dataset) FetchFeature(name string) ([]float64, bool) {
	return d.Matrix.FeatureValues(name)
}

// AddMetaColumn attaches one categorical per-cell column.
func (d *Dataset) AddMetaColumn(name string, values []string) error {
	if len(values) != d.NCells() {
		return fmt.Errorf("meta column %s: %d values for %d cells", name, len(values), d.NCells())
	}
	d.Meta[name] = values
	return nil
}

// SetEmbedding attaches one named 2-D embedding (one xy pair per cell).
func (d *Dataset) SetEmbedding(name string, xy [][2]float64) error {
	if len(xy) != d.NCells() {
		return fmt.Errorf("embedding %s: %d points for %d cells", name, len(xy), d.NCells())
	}
	d.Embeddings[name] = xy
	return nil
}

// Merge folds other into a new Dataset spanning both: the feature axis is
// the union (d's order first), barcodes are concatenated. Barcodes must be
// unique across the two inputs.
func (d *Dataset) Merge(other *Dataset) (*Dataset, error) {
	seen := make(map[string]bool, len(d.Matrix.Barcodes))
	for _, bc := range d.Matrix.Barcodes {
		seen[bc] = true
	}
	for _, bc := range other.Matrix.Barcodes {
		if seen[bc] {
			return nil, fmt.Errorf("merge %s + %s: duplicate barcode %s", d.Project, other.Project, bc)
		}
	}

	features := make([]string, len(d.Matrix.Features))
	copy(features, d.Matrix.Features)
	for _, f := range other.Matrix.Features {
		if _, ok := d.Matrix.FeatureIndex(f); !ok {
			features = append(features, f)
		}
	}
	barcodes := make([]string, 0, d.NCells()+other.NCells())
	barcodes = append(barcodes, d.Matrix.Barcodes...)
	barcodes = append(barcodes, other.Matrix.Barcodes...)

	merged := NewCountMatrix(features, barcodes)
	for i := range d.Matrix.rows {
		for j, v := range d.Matrix.rows[i] {
			merged.Set(i, j, v)
		}
	}
	offset := d.NCells()
	for i, name := range other.Matrix.Features {
		mi, _ := merged.FeatureIndex(name)
		for j, v := range other.Matrix.rows[i] {
			merged.Set(mi, offset+j, v)
		}
	}

	out := &Dataset{
		Project:      d.Project,
		Matrix:       merged,
		NumericMeta:  make(map[string][]float64),
		Meta:         make(map[string][]string),
		Embeddings:   make(map[string][][2]float64),
		DefaultAssay: d.DefaultAssay,
	}
	return out, nil
}

// CheckGene reports whether gene is on the feature axis and, if so, in how
// many cells it is detected with strictly positive counts.
func (d *Dataset) CheckGene(gene string) (int, bool) {
	i, ok := d.Matrix.FeatureIndex(gene)
	if !ok {
		slog.Info("gene not found in dataset", "gene", gene, "project", d.Project)
		return 0, false
	}
	var n int
	for _, v := range d.Matrix.Row(i) {
		if v > 0 {
			n++
		}
	}
	log.Printf("%s detected in %d of %d cells", gene, n, d.NCells())
	return n, true
}
