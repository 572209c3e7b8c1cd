package scdata

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	gzip "github.com/klauspost/pgzip"
	"github.com/liserjrqlxue/goUtil/fmtUtil"
)

// CountMatrix is a sparse features x barcodes count table.
type CountMatrix struct {
	Features []string
	Barcodes []string

	featureIdx map[string]int

	// rows[i] maps barcode index -> count for feature i
	rows []map[int]float64
}

func NewCountMatrix(features, barcodes []string) *CountMatrix {
	m := &CountMatrix{
		Features:   features,
		Barcodes:   barcodes,
		featureIdx: make(map[string]int, len(features)),
		rows:       make([]map[int]float64, len(features)),
	}
	for i, f := range features {
		m.featureIdx[f] = i
	}
	return m
}

func (m *CountMatrix) NFeatures() int { return len(m.Features) }
func (m *CountMatrix) NCells() int    { return len(m.Barcodes) }

func (m *CountMatrix) FeatureIndex(name string) (int, bool) {
	i, ok := m.featureIdx[name]
	return i, ok
}

func (m *CountMatrix) Set(feature, barcode int, v float64) {
	if m.rows[feature] == nil {
		m.rows[feature] = make(map[int]float64)
	}
	m.rows[feature][barcode] = v
}

func (m *CountMatrix) Get(feature, barcode int) float64 {
	return m.rows[feature][barcode]
}

// Row returns the sparse cell->count map for one feature. The map is shared,
// not copied.
func (m *CountMatrix) Row(feature int) map[int]float64 {
	return m.rows[feature]
}

// FeatureValues returns a dense per-cell vector for one feature name.
func (m *CountMatrix) FeatureValues(name string) ([]float64, bool) {
	i, ok := m.featureIdx[name]
	if !ok {
		return nil, false
	}
	vals := make([]float64, len(m.Barcodes))
	for j, v := range m.rows[i] {
		vals[j] = v
	}
	return vals, true
}

// ColSums returns total counts per cell.
func (m *CountMatrix) ColSums() []float64 {
	sums := make([]float64, len(m.Barcodes))
	for _, row := range m.rows {
		for j, v := range row {
			sums[j] += v
		}
	}
	return sums
}

// NNZ reports the number of stored non-zero entries.
func (m *CountMatrix) NNZ() int {
	var n int
	for _, row := range m.rows {
		n += len(row)
	}
	return n
}

// SuffixBarcodes rewrites every barcode to <barcode>_<sample> so cells stay
// unique after samples are merged.
func (m *CountMatrix) SuffixBarcodes(sample string) {
	for j, bc := range m.Barcodes {
		m.Barcodes[j] = bc + "_" + sample
	}
}

const (
	matrixFile   = "matrix.mtx.gz"
	featuresFile = "features.tsv.gz"
	barcodesFile = "barcodes.tsv.gz"
)

// ReadMatrixDir reads the 10x triplet layout: matrix.mtx.gz plus
// features.tsv.gz and barcodes.tsv.gz in one directory.
func ReadMatrixDir(dir string) (*CountMatrix, error) {
	return ReadMatrixFile(
		filepath.Join(dir, matrixFile),
		filepath.Join(dir, featuresFile),
		filepath.Join(dir, barcodesFile),
	)
}

// ReadMatrixFile reads a gzipped MatrixMarket coordinate file with sibling
// feature and barcode annotation files.
func ReadMatrixFile(mtx, features, barcodes string) (*CountMatrix, error) {
	featureNames, err := readAnnotationColumn(features, 1)
	if err != nil {
		return nil, fmt.Errorf("read features %s: %w", features, err)
	}
	barcodeNames, err := readAnnotationColumn(barcodes, 0)
	if err != nil {
		return nil, fmt.Errorf("read barcodes %s: %w", barcodes, err)
	}

	f, err := os.Open(mtx)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read matrix %s: %w", mtx, err)
	}
	defer gz.Close()

	var (
		m       *CountMatrix
		scanner = bufio.NewScanner(gz)
		gotDims bool
	)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%s: malformed line %q", mtx, line)
		}
		if !gotDims {
			nFeatures, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("%s: bad dimensions line %q", mtx, line)
			}
			nCells, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("%s: bad dimensions line %q", mtx, line)
			}
			if nFeatures != len(featureNames) || nCells != len(barcodeNames) {
				return nil, fmt.Errorf("%s: dims %dx%d do not match %d features / %d barcodes",
					mtx, nFeatures, nCells, len(featureNames), len(barcodeNames))
			}
			m = NewCountMatrix(featureNames, barcodeNames)
			gotDims = true
			continue
		}
		i, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%s: bad row index %q", mtx, fields[0])
		}
		j, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%s: bad column index %q", mtx, fields[1])
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad value %q", mtx, fields[2])
		}
		// MatrixMarket indices are 1-based
		m.Set(i-1, j-1, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !gotDims {
		return nil, fmt.Errorf("%s: missing dimensions line", mtx)
	}
	return m, nil
}

// readAnnotationColumn reads one column of a gzipped tsv. 10x feature files
// carry id/symbol/type columns; col selects which one, falling back to the
// first column for single-column files.
func readAnnotationColumn(path string, col int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	var names []string
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if col < len(fields) {
			names = append(names, fields[col])
		} else {
			names = append(names, fields[0])
		}
	}
	return names, scanner.Err()
}

// WriteMatrixDir writes the matrix back out in the 10x triplet layout.
func (m *CountMatrix) WriteMatrixDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := writeGzLines(filepath.Join(dir, featuresFile), m.Features, func(name string) string {
		return name + "\t" + name + "\tGene Expression"
	}); err != nil {
		return err
	}
	if err := writeGzLines(filepath.Join(dir, barcodesFile), m.Barcodes, nil); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, matrixFile))
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(f)
	fmtUtil.Fprintf(gz, "%%%%MatrixMarket matrix coordinate real general\n")
	fmtUtil.Fprintf(gz, "%d %d %d\n", m.NFeatures(), m.NCells(), m.NNZ())
	for i, row := range m.rows {
		for j, v := range row {
			fmtUtil.Fprintf(gz, "%d %d %g\n", i+1, j+1, v)
		}
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return f.Close()
}

func writeGzLines(path string, lines []string, format func(string) string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(f)
	for _, line := range lines {
		if format != nil {
			line = format(line)
		}
		fmtUtil.Fprintln(gz, line)
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return f.Close()
}
