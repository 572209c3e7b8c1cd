package sched

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testJob() *Job {
	return &Job{
		Name:     "WT_1_count",
		WorkDir:  "/scratch/project/counts",
		Stdout:   "WT_1_count.o",
		Stderr:   "WT_1_count.e",
		Cores:    8,
		MemGB:    64,
		Walltime: "48:0:0",
		Project:  "scRNAseq2023",
		Modules:  []string{"apps/bcl2fastq/2.20.0", "apps/cellranger/7.1.0"},
		Command:  "cellranger count \\\n  --id=WT_1 \\\n  --sample=WT_1",
	}
}

func TestScriptDirectives(t *testing.T) {
	script := testJob().Script()

	require.True(t, strings.HasPrefix(script, "#!/bin/bash\n"))
	for _, want := range []string{
		"#$ -wd /scratch/project/counts",
		"#$ -N WT_1_count",
		"#$ -o WT_1_count.o",
		"#$ -e WT_1_count.e",
		"#$ -pe smp 8",
		"#$ -l h_vmem=64G",
		"#$ -l h_rt=48:0:0",
		"#$ -P scRNAseq2023",
		"module load apps/bcl2fastq/2.20.0",
		"module load apps/cellranger/7.1.0",
		"cd /scratch/project/counts",
		"--id=WT_1",
	} {
		require.Contains(t, script, want)
	}

	// module loads come before the command
	require.Less(t,
		strings.Index(script, "module load"),
		strings.Index(script, "cellranger count"),
	)
}

func TestWriteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "WT_1_cellranger_count.sh")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	job := testJob()
	require.NoError(t, job.Write(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, job.Script(), string(data))
}

func TestSubmitMissingExecutable(t *testing.T) {
	err := Submit("definitely-not-a-scheduler", "nonexistent.sh")
	require.Error(t, err)
}
