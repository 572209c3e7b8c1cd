package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"path/filepath"

	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/liserjrqlxue/goUtil/textUtil"
	"github.com/liserjrqlxue/version"
	"github.com/spf13/viper"

	"scTools/pkg/sched"
)

// flag
var (
	fastqDir = flag.String(
		"i",
		"",
		"FASTQ base directory, one subdirectory per sample",
	)
	outDir = flag.String(
		"o",
		"",
		"cellranger output directory",
	)
	refDir = flag.String(
		"t",
		"",
		"transcriptome reference directory",
	)
	project = flag.String(
		"p",
		"",
		"queue project/account tag",
	)
	sampleList = flag.String(
		"s",
		"",
		"sample list file, one name per line (default built-in list)",
	)
	dryRun = flag.Bool(
		"n",
		false,
		"render scripts only, do not submit",
	)
)

func main() {
	version.LogVersion()
	flag.Parse()
	if *fastqDir == "" || *outDir == "" || *refDir == "" || *project == "" {
		flag.PrintDefaults()
		log.Fatal("-i/-o/-t/-p are required")
	}

	// site defaults, overridable by scTools.yaml in WD or ~/.config
	viper.SetConfigName("scTools")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/")
	viper.SetDefault("submit_exec", "qsub")
	viper.SetDefault("cellranger_exec", "cellranger")
	viper.SetDefault("cellranger_module", "apps/cellranger/7.1.0")
	viper.SetDefault("bcl2fastq_module", "apps/bcl2fastq/2.20.0")
	viper.SetDefault("cores", 8)
	viper.SetDefault("mem_gb", 64)
	viper.SetDefault("walltime", "48:0:0")
	if err := viper.ReadInConfig(); err != nil {
		slog.Debug("no config file, using built-in defaults", "err", err)
	}

	samples := defaultSamples
	if *sampleList != "" {
		samples = textUtil.File2Array(*sampleList)
	}

	for _, sample := range samples {
		job := countJob(sample)
		script := sample + "_cellranger_count.sh"
		simpleUtil.CheckErr(job.Write(script))
		log.Printf("wrote %s", script)

		if *dryRun {
			continue
		}
		// fire-and-forget: the queue is not polled for acceptance
		if err := sched.Submit(viper.GetString("submit_exec"), script); err != nil {
			slog.Warn("job submission failed", "sample", sample, "err", err)
		}
	}
}

func countJob(sample string) *sched.Job {
	var (
		cores = viper.GetInt("cores")
		memGB = viper.GetInt("mem_gb")
	)
	command := fmt.Sprintf(
		"%s count \\\n"+
			"  --id=%s \\\n"+
			"  --transcriptome=%s \\\n"+
			"  --create-bam=true \\\n"+
			"  --fastqs=%s \\\n"+
			"  --sample=%s \\\n"+
			"  --localcores=%d \\\n"+
			"  --localmem=%d",
		viper.GetString("cellranger_exec"),
		sample,
		*refDir,
		filepath.Join(*fastqDir, sample),
		sample,
		cores,
		memGB,
	)
	return &sched.Job{
		Name:     sample + "_count",
		WorkDir:  *outDir,
		Stdout:   sample + "_count.o",
		Stderr:   sample + "_count.e",
		Cores:    cores,
		MemGB:    memGB,
		Walltime: viper.GetString("walltime"),
		Project:  *project,
		Modules: []string{
			viper.GetString("bcl2fastq_module"),
			viper.GetString("cellranger_module"),
		},
		Command: command,
	}
}
