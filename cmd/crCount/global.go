package main

// samples processed when no -s list file is given
var defaultSamples = []string{
	"WT_1",
	"WT_2",
	"WT_3",
	"KO_1",
	"KO_2",
	"KO_3",
}
