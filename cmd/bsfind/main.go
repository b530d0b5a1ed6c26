// Copyright ©2014 The binding-sites Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// bsfind scans gzip-compressed FASTA gene region files for binding
// site patterns and reports, for each site found, the gene region, the
// pattern, the parent gene identifier and the declared sequence
// length.
//
// The gene region files follow the FlyBase naming convention
// {species}-{chromosome}-{region}-{release}.fasta.gz, e.g.
// dmel-4-exon-r5.57.fasta.gz. The pattern argument is either a single
// pattern or the path of a text file with one pattern per line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vcaboara/binding-sites/logger"
	"github.com/vcaboara/binding-sites/pattern"
	"github.com/vcaboara/binding-sites/report"
	"github.com/vcaboara/binding-sites/scan"
)

var (
	out        = flag.String("out", "", "output file name (default <species>-bs_finder_results.csv)")
	species    = flag.String("species", "dmel", "species code")
	chromosome = flag.String("chromosome", "4", "chromosome number or 'all'")
	regions    = flag.String("regions", "exon,five_prime_UTR,intron,three_prime_UTR", "comma-separated gene regions to scan")
	release    = flag.String("release", "r5.57", "release version")
	literal    = flag.Bool("literal", false, "treat patterns as literal subsequences instead of regular expressions")
	strict     = flag.Bool("strict", false, "stop scanning a file at its first malformed record")
	dbPath     = flag.String("db", "", "also record results in this SQLite database")
	verbose    = flag.Bool("v", false, "enable debug logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: bsfind [options] path pattern")
		fmt.Fprintln(os.Stderr, "\npath is the directory holding the gene region files; it may be")
		fmt.Fprintln(os.Stderr, "omitted when BSFIND_PATH is set in the environment or a .env file.")
		fmt.Fprintln(os.Stderr, "pattern is a pattern or the path of a file of patterns.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	level := zapcore.InfoLevel
	if *verbose {
		level = zapcore.DebugLevel
	}
	log, err := logger.New(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := godotenv.Load(); err == nil {
		log.Debug("loaded environment defaults from .env")
	}

	var path, src string
	switch flag.NArg() {
	case 2:
		path, src = flag.Arg(0), flag.Arg(1)
	case 1:
		path, src = os.Getenv("BSFIND_PATH"), flag.Arg(0)
	}
	if path == "" || src == "" {
		flag.Usage()
		os.Exit(1)
	}

	mode := pattern.Regex
	if *literal {
		mode = pattern.Substring
	}
	pats, invalid, err := pattern.Load(src, mode)
	if err != nil {
		log.Fatal("failed to load patterns", zap.String("source", src), zap.Error(err))
	}
	for _, ierr := range invalid {
		log.Error("skipping pattern", zap.Error(ierr))
	}
	if len(pats) == 0 {
		log.Fatal("no usable patterns", zap.String("source", src))
	}

	outFile := *out
	if outFile == "" {
		outFile = *species + "-bs_finder_results.csv"
	}
	run := uuid.NewString()
	tsv, store, err := openSinks(outFile, *dbPath, run)
	if err != nil {
		log.Fatal("failed to open result sinks",
			zap.String("file", outFile),
			zap.String("db", *dbPath),
			zap.Error(err))
	}
	sinks := report.Tee{tsv}
	if store != nil {
		defer store.Close()
		sinks = append(sinks, store)
	}
	sum := report.NewSummary(sinks)

	req := scan.Request{
		Path:       path,
		Species:    *species,
		Chromosome: *chromosome,
		Release:    *release,
		Regions:    splitRegions(*regions),
		Patterns:   pats,
		Strict:     *strict,
	}
	log.Info("starting scan",
		zap.String("run", run),
		zap.String("path", path),
		zap.Strings("regions", req.Regions),
		zap.Int("patterns", len(pats)),
		zap.String("output", outFile))

	scanErr := scan.New(log).Scan(context.Background(), req, sum)
	sum.Report(log)
	if err := tsv.Close(); err != nil {
		log.Fatal("failed to close output", zap.String("file", outFile), zap.Error(err))
	}
	if scanErr != nil {
		log.Fatal("scan failed", zap.Error(scanErr))
	}
}

// openSinks opens the result sinks. The store is opened before the
// output file so a store failure cannot leave behind a freshly
// created, unflushed output file. store is nil when dbPath is empty.
func openSinks(outFile, dbPath, run string) (*report.TSV, *report.Store, error) {
	var store *report.Store
	if dbPath != "" {
		var err error
		store, err = report.OpenStore(dbPath, run)
		if err != nil {
			return nil, nil, err
		}
	}
	tsv, err := report.NewTSV(outFile)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, nil, err
	}
	return tsv, store, nil
}

func splitRegions(s string) []string {
	var regions []string
	for _, r := range strings.Split(s, ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		regions = append(regions, r)
	}
	return regions
}
