// Command sealevel builds the relative sea level trend report for a NOAA tide
// gauge: it loads the monthly mean extract, fits a linear trend with AR(1)
// errors, and writes annotated charts.
//
// Usage:
//
//	sealevel report --input data/8418150_meantrend.csv --output-dir output
//	sealevel check --input data/8418150_meantrend.csv
//	sealevel stations
package main

import "os"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
