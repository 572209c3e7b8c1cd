package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/liserjrqlxue/goUtil/textUtil"
	"github.com/liserjrqlxue/version"
	"github.com/spf13/viper"

	"scTools/pkg/markers"
	"scTools/pkg/scdata"
	"scTools/pkg/scplot"
)

// flag
var (
	baseDir = flag.String(
		"i",
		"",
		"cellranger output base directory",
	)
	sampleList = flag.String(
		"s",
		"",
		"sample list file, one name per line (or pass samples as arguments)",
	)
	outDir = flag.String(
		"o",
		"",
		"output directory for plots and spreadsheets",
	)
	markerTSV = flag.String(
		"markers",
		"",
		"externally computed marker table (tsv) to export",
	)
	embeddingCSV = flag.String(
		"e",
		"",
		"embedding csv (barcode,umap_1,umap_2,cluster) for the -plot sample",
	)
	plotSample = flag.String(
		"plot",
		"",
		"sample to attach the embedding to and render plots for",
	)
	featureArg = flag.String(
		"features",
		"",
		"comma separated features for expression plots",
	)
	geneArg = flag.String(
		"genes",
		"",
		"comma separated genes for presence checks",
	)
)

func main() {
	version.LogVersion()
	flag.Parse()
	if *baseDir == "" || *outDir == "" {
		flag.PrintDefaults()
		log.Fatal("-i/-o are required")
	}

	viper.SetConfigName("scTools")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/")
	viper.SetDefault("mito_pattern", "^mt-")
	viper.SetDefault("min_cells", 3)
	viper.SetDefault("min_features", 200)
	viper.SetDefault("plot_width", 1024)
	viper.SetDefault("plot_height", 768)
	if err := viper.ReadInConfig(); err != nil {
		slog.Debug("no config file, using built-in defaults", "err", err)
	}

	samples := flag.Args()
	if *sampleList != "" {
		samples = textUtil.File2Array(*sampleList)
	}
	if len(samples) == 0 {
		flag.PrintDefaults()
		log.Fatal("no samples given")
	}
	simpleUtil.CheckErr(os.MkdirAll(*outDir, 0755))

	set := simpleUtil.HandleError(scdata.LoadSamples(
		*baseDir,
		samples,
		viper.GetString("mito_pattern"),
		viper.GetInt("min_cells"),
		viper.GetInt("min_features"),
	))
	if set.Len() == 0 {
		log.Fatal("no sample could be loaded")
	}

	for _, sample := range set.Order {
		ds := set.Datasets[sample]
		log.Printf(
			"sample %s: %d cells, %d features, median percent.mt %.2f%%",
			sample, ds.NCells(), ds.NFeatures(), median(ds.NumericMeta["percent.mt"]),
		)
	}

	for _, gene := range splitArg(*geneArg) {
		for _, sample := range set.Order {
			set.Datasets[sample].CheckGene(gene)
		}
	}

	if *markerTSV != "" {
		records := simpleUtil.HandleError(markers.LoadTSV(*markerTSV))
		simpleUtil.CheckErr(markers.Export(records, filepath.Join(*outDir, "cluster_markers.xlsx")))
	}

	if *embeddingCSV != "" {
		if *plotSample == "" {
			log.Fatal("-e requires -plot")
		}
		ds, ok := set.Get(*plotSample)
		if !ok {
			log.Fatalf("sample %s was not loaded", *plotSample)
		}
		simpleUtil.CheckErr(attachEmbedding(ds, *embeddingCSV))
		simpleUtil.CheckErr(scplot.SaveAll(
			ds,
			filepath.Join(*outDir, "plots"),
			[]string{"cluster"},
			splitArg(*featureArg),
			scplot.Options{
				Width:  viper.GetInt("plot_width"),
				Height: viper.GetInt("plot_height"),
			},
		))
	}
}

func splitArg(arg string) []string {
	if strings.TrimSpace(arg) == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(arg, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
