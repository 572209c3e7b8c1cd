package main

import (
	"flag"
	"log"

	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/liserjrqlxue/goUtil/textUtil"
	"github.com/liserjrqlxue/version"

	"scTools/pkg/ortho"
)

// flag
var (
	baseDir = flag.String(
		"i",
		"",
		"base directory, one matrix.mtx.gz per sample subdirectory",
	)
	sampleList = flag.String(
		"s",
		"",
		"sample list file, one name per line (or pass samples as arguments)",
	)
	mapCSV = flag.String(
		"m",
		"",
		"ortholog mapping csv with gene/ortholog columns",
	)
	keepUnmapped = flag.Bool(
		"keep-unmapped",
		false,
		"keep features without an ortholog under their original name",
	)
	outDir = flag.String(
		"o",
		"",
		"write the merged matrix to this directory",
	)
)

func main() {
	version.LogVersion()
	flag.Parse()
	if *baseDir == "" || *mapCSV == "" {
		flag.PrintDefaults()
		log.Fatal("-i/-m are required")
	}

	samples := flag.Args()
	if *sampleList != "" {
		samples = textUtil.File2Array(*sampleList)
	}
	if len(samples) == 0 {
		flag.PrintDefaults()
		log.Fatal("no samples given")
	}

	merged := simpleUtil.HandleError(ortho.MergeSamples(*baseDir, samples, *mapCSV, *keepUnmapped))
	log.Printf("merged %d samples: %d features x %d cells", len(samples), merged.NFeatures(), merged.NCells())

	if *outDir != "" {
		simpleUtil.CheckErr(merged.Matrix.WriteMatrixDir(*outDir))
		log.Printf("merged matrix written to %s", *outDir)
	}
}
