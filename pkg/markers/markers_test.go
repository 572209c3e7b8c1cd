package markers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testMarkers() []Marker {
	return []Marker{
		{Gene: "Cd3e", Cluster: "0", PVal: 1e-50, AvgLog2FC: 2.1, PctIn: 0.9, PctOut: 0.1, PValAdj: 1e-46},
		{Gene: "Cd4", Cluster: "0", PVal: 1e-30, AvgLog2FC: 1.4, PctIn: 0.8, PctOut: 0.2, PValAdj: 1e-26},
		{Gene: "Ms4a1", Cluster: "1", PVal: 1e-40, AvgLog2FC: 3.0, PctIn: 0.95, PctOut: 0.05, PValAdj: 1e-36},
		{Gene: "Lyz2", Cluster: "2", PVal: 1e-20, AvgLog2FC: 1.1, PctIn: 0.7, PctOut: 0.3, PValAdj: 1e-16},
	}
}

func TestExportSheetLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.xlsx")
	records := testMarkers()
	require.NoError(t, Export(records, path))

	xlsx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer xlsx.Close()

	// one sheet per distinct cluster plus the combined sheet
	require.Equal(t,
		[]string{"cluster_0", "cluster_1", "cluster_2", "all_clusters"},
		xlsx.GetSheetList(),
	)

	var perCluster int
	for _, sheet := range []string{"cluster_0", "cluster_1", "cluster_2"} {
		rows, err := xlsx.GetRows(sheet)
		require.NoError(t, err)
		require.Equal(t, MarkerTitle, rows[0])
		perCluster += len(rows) - 1
	}
	all, err := xlsx.GetRows("all_clusters")
	require.NoError(t, err)
	require.Equal(t, perCluster, len(all)-1)
	require.Equal(t, len(records), len(all)-1)
	require.Equal(t, "Cd3e", all[1][0])
}

func TestExportEmpty(t *testing.T) {
	err := Export(nil, filepath.Join(t.TempDir(), "markers.xlsx"))
	require.Error(t, err)
}

func TestExportReservedClusterName(t *testing.T) {
	records := []Marker{{Gene: "Cd4", Cluster: "all_clusters"}}
	err := Export(records, filepath.Join(t.TempDir(), "markers.xlsx"))
	require.Error(t, err)
}

func TestExportBadPath(t *testing.T) {
	err := Export(testMarkers(), filepath.Join(t.TempDir(), "no", "such", "dir", "markers.xlsx"))
	require.Error(t, err)
}

func TestLoadTSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.tsv")
	tsv := "gene\tcluster\tp_val\tavg_log2FC\tpct.1\tpct.2\tp_val_adj\n" +
		"Cd3e\t0\t1e-50\t2.1\t0.9\t0.1\t1e-46\n" +
		"Ms4a1\t1\t1e-40\t3.0\t0.95\t0.05\t1e-36\n"
	require.NoError(t, os.WriteFile(path, []byte(tsv), 0644))

	records, err := LoadTSV(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Cd3e", records[0].Gene)
	require.Equal(t, "0", records[0].Cluster)
	require.InDelta(t, 2.1, records[0].AvgLog2FC, 1e-9)
}
