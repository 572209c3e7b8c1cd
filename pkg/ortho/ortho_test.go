package ortho

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"scTools/pkg/scdata"
)

func TestCleanKeepsFirstAndIsIdempotent(t *testing.T) {
	pairs := []Pair{
		{Source: "Cd4", Target: "CD4"},
		{Source: "Cd4", Target: "CD4B"}, // duplicate source, later
		{Source: "Trp53", Target: "TP53"},
		{Source: "", Target: "ORPHAN"},
		{Source: "Gm123", Target: ""},
	}

	once := Clean(pairs)
	require.Equal(t, []Pair{
		{Source: "Cd4", Target: "CD4"},
		{Source: "Trp53", Target: "TP53"},
	}, once)
	require.Equal(t, once, Clean(once))
}

func TestTableLookup(t *testing.T) {
	table := NewTable([]Pair{{Source: "Cd4", Target: "CD4"}})

	target, ok := table.Lookup("Cd4")
	require.True(t, ok)
	require.Equal(t, "CD4", target)

	_, ok = table.Lookup("Trp53")
	require.False(t, ok)
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orthologs.csv")
	csv := "gene,ortholog\nCd4,CD4\nCd4,CD4B\nTrp53,TP53\nGm123,\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	table, err := LoadTable(path)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	target, ok := table.Lookup("Cd4")
	require.True(t, ok)
	require.Equal(t, "CD4", target)
}

func sourceMatrix() *scdata.CountMatrix {
	m := scdata.NewCountMatrix(
		[]string{"Cd4", "Trp53", "Gm42"},
		[]string{"AAACCC", "AAAGGG"},
	)
	m.Set(0, 0, 2)
	m.Set(1, 1, 3)
	m.Set(2, 0, 4)
	return m
}

func TestTranslateMatrixKeepUnmapped(t *testing.T) {
	table := NewTable([]Pair{
		{Source: "Cd4", Target: "CD4"},
		{Source: "Trp53", Target: "TP53"},
	})

	out := TranslateMatrix(sourceMatrix(), table, true)
	// row count preserved exactly, unmapped row keeps its name
	require.Equal(t, []string{"CD4", "TP53", "Gm42"}, out.Features)
	require.Equal(t, float64(4), out.Get(2, 0))
}

func TestTranslateMatrixDropUnmapped(t *testing.T) {
	table := NewTable([]Pair{
		{Source: "Cd4", Target: "CD4"},
		{Source: "Trp53", Target: "TP53"},
	})

	out := TranslateMatrix(sourceMatrix(), table, false)
	require.Equal(t, []string{"CD4", "TP53"}, out.Features)
	targets := map[string]bool{"CD4": true, "TP53": true}
	for _, f := range out.Features {
		require.True(t, targets[f], "feature %s not in target namespace", f)
	}
}

func TestTranslateMatrixCollisionFirstWins(t *testing.T) {
	// two sources map onto one target
	table := NewTable([]Pair{
		{Source: "Cd4", Target: "CD4"},
		{Source: "Trp53", Target: "CD4"},
	})

	m := sourceMatrix()
	out := TranslateMatrix(m, table, false)
	require.Equal(t, []string{"CD4"}, out.Features)
	require.Equal(t, float64(2), out.Get(0, 0), "first matrix row must win")
}

func TestTranslateMatrixUnmappedNameCollision(t *testing.T) {
	// mapped target collides with a kept unmapped original name
	table := NewTable([]Pair{{Source: "Cd4", Target: "Gm42"}})

	out := TranslateMatrix(sourceMatrix(), table, true)
	require.Equal(t, []string{"Gm42", "Trp53"}, out.Features)
	require.Equal(t, float64(2), out.Get(0, 0), "first matrix row must win")
}

func TestMergeSamples(t *testing.T) {
	base := t.TempDir()
	for _, sample := range []string{"A", "B"} {
		require.NoError(t, sourceMatrix().WriteMatrixDir(filepath.Join(base, sample)))
	}
	csvPath := filepath.Join(base, "orthologs.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("gene,ortholog\nCd4,CD4\nTrp53,TP53\n"), 0644))

	merged, err := MergeSamples(base, []string{"A", "B"}, csvPath, false)
	require.NoError(t, err)
	require.Equal(t, 2, merged.NFeatures())
	require.Equal(t, 4, merged.NCells())
	require.Equal(t, []string{
		"AAACCC_A", "AAAGGG_A", "AAACCC_B", "AAAGGG_B",
	}, merged.Matrix.Barcodes)
}

func TestMergeSamplesMissingMatrixFatal(t *testing.T) {
	base := t.TempDir()
	csvPath := filepath.Join(base, "orthologs.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("gene,ortholog\nCd4,CD4\n"), 0644))

	_, err := MergeSamples(base, []string{"missing"}, csvPath, false)
	require.Error(t, err)
}
