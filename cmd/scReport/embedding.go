package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/gocarina/gocsv"

	"scTools/pkg/scdata"
)

type embeddingRow struct {
	Barcode string  `csv:"barcode"`
	X       float64 `csv:"umap_1"`
	Y       float64 `csv:"umap_2"`
	Cluster string  `csv:"cluster"`
}

// attachEmbedding joins an externally computed UMAP/cluster table onto the
// dataset by barcode and stores it as the "umap" embedding plus a "cluster"
// metadata column. Every dataset barcode must be present in the table.
func attachEmbedding(ds *scdata.Dataset, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var rows []embeddingRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return fmt.Errorf("parse embedding %s: %w", path, err)
	}
	byBarcode := make(map[string]embeddingRow, len(rows))
	for _, row := range rows {
		byBarcode[row.Barcode] = row
	}

	xy := make([][2]float64, ds.NCells())
	clusters := make([]string, ds.NCells())
	for j, bc := range ds.Matrix.Barcodes {
		row, ok := byBarcode[bc]
		if !ok {
			return fmt.Errorf("embedding %s: no row for barcode %s", path, bc)
		}
		xy[j] = [2]float64{row.X, row.Y}
		clusters[j] = row.Cluster
	}

	if err := ds.SetEmbedding("umap", xy); err != nil {
		return err
	}
	return ds.AddMetaColumn("cluster", clusters)
}

// median of a copy; zero for an empty column.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
