package scdata

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
)

// SampleSet is an insertion-ordered mapping from sample name to Dataset.
type SampleSet struct {
	Order    []string
	Datasets map[string]*Dataset
}

func (s *SampleSet) Get(sample string) (*Dataset, bool) {
	d, ok := s.Datasets[sample]
	return d, ok
}

func (s *SampleSet) Len() int { return len(s.Order) }

// dirExists checks a path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// LoadSamples reads base/<sample>/outs/filtered_feature_bc_matrix for every
// sample in order. A sample whose matrix directory is missing is skipped
// with a warning; a sample whose matrix fails to parse is an error. Cell
// barcodes are suffixed with the sample name so later merges stay unique.
func LoadSamples(base string, samples []string, mtPattern string, minCells, minFeatures int) (*SampleSet, error) {
	pattern, err := regexp.Compile(mtPattern)
	if err != nil {
		return nil, err
	}

	set := &SampleSet{Datasets: make(map[string]*Dataset, len(samples))}
	for _, sample := range samples {
		if _, ok := set.Datasets[sample]; ok {
			continue
		}
		dir := filepath.Join(base, sample, "outs", "filtered_feature_bc_matrix")
		if !dirExists(dir) {
			slog.Warn("matrix directory missing, skipping sample", "sample", sample, "dir", dir)
			continue
		}

		m, err := ReadMatrixDir(dir)
		if err != nil {
			return nil, err
		}
		m.SuffixBarcodes(sample)

		ds := NewDataset(m, sample, minCells, minFeatures)
		ds.PercentFeatureSet("percent.mt", pattern)

		set.Order = append(set.Order, sample)
		set.Datasets[sample] = ds
	}
	return set, nil
}
