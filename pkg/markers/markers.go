// Package markers exports externally computed cluster marker tables to a
// multi-sheet spreadsheet.
package markers

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

// Marker is one row of a ranked marker table.
type Marker struct {
	Gene      string  `csv:"gene"`
	Cluster   string  `csv:"cluster"`
	PVal      float64 `csv:"p_val"`
	AvgLog2FC float64 `csv:"avg_log2FC"`
	PctIn     float64 `csv:"pct.1"`
	PctOut    float64 `csv:"pct.2"`
	PValAdj   float64 `csv:"p_val_adj"`
}

var MarkerTitle = []string{
	"gene",
	"cluster",
	"p_val",
	"avg_log2FC",
	"pct.1",
	"pct.2",
	"p_val_adj",
}

const allSheet = "all_clusters"

// LoadTSV reads a tab-separated marker table.
func LoadTSV(path string) ([]Marker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.LazyQuotes = true

	var records []Marker
	if err := gocsv.UnmarshalCSV(r, &records); err != nil {
		return nil, fmt.Errorf("parse markers %s: %w", path, err)
	}
	return records, nil
}

func (m Marker) row() []any {
	return []any{m.Gene, m.Cluster, m.PVal, m.AvgLog2FC, m.PctIn, m.PctOut, m.PValAdj}
}

// Export writes one sheet per distinct cluster value (first-appearance
// order, named cluster_<value>) plus one all_clusters sheet holding every
// record, to a single spreadsheet at path.
func Export(records []Marker, path string) error {
	if len(records) == 0 {
		return fmt.Errorf("no marker records to export")
	}

	clusters := lo.Uniq(lo.Map(records, func(m Marker, _ int) string { return m.Cluster }))
	byCluster := lo.GroupBy(records, func(m Marker) string { return m.Cluster })
	if lo.Contains(clusters, allSheet) {
		return fmt.Errorf("cluster value %q collides with the combined sheet name", allSheet)
	}

	xlsx := excelize.NewFile()
	writeSheet := func(sheet string, rows []Marker) error {
		if _, err := xlsx.NewSheet(sheet); err != nil {
			return err
		}
		if err := xlsx.SetSheetRow(sheet, "A1", &MarkerTitle); err != nil {
			return err
		}
		for i, m := range rows {
			line := m.row()
			if err := xlsx.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &line); err != nil {
				return err
			}
		}
		return nil
	}

	for _, cluster := range clusters {
		if err := writeSheet("cluster_"+cluster, byCluster[cluster]); err != nil {
			return err
		}
	}
	if err := writeSheet(allSheet, records); err != nil {
		return err
	}
	if err := xlsx.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	if err := xlsx.SaveAs(path); err != nil {
		return err
	}
	log.Printf("markers written to %s (%d clusters, %d records)", path, len(clusters), len(records))
	return nil
}
