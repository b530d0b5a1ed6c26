// Copyright ©2014 The binding-sites Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/vcaboara/binding-sites/pattern"
)

const twoRecords = ">FBtr0000001 type=%[1]s; loc=4:100..109; name=CG0001-RA; length=10; parent=FBgn0000001; release=r5.57; species=Dmel;\n" +
	"ACGTACGTAC\n" +
	">FBtr0000002 type=%[1]s; loc=4:200..219; name=CG0002-RA; length=20; parent=FBgn0000002; release=r5.57; species=Dmel;\n" +
	"ACGTACGTAC\n" +
	"GGGTTTAAAC\n"

type collector struct {
	rows []Row
}

func (c *collector) Write(r Row) error {
	c.rows = append(c.rows, r)
	return nil
}

func writeRegion(t *testing.T, req Request, region string) {
	t.Helper()
	writeRegionContent(t, req.FileFor(region), fmt.Sprintf(twoRecords, region))
}

func writeRegionContent(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create region file: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write region file: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("failed to close gzip stream: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close region file: %v", err)
	}
}

func request(t *testing.T, regions []string, pats ...pattern.Pattern) Request {
	t.Helper()
	return Request{
		Path:       t.TempDir(),
		Species:    "dmel",
		Chromosome: "4",
		Release:    "r5.57",
		Regions:    regions,
		Patterns:   pats,
	}
}

func TestFileFor(t *testing.T) {
	req := Request{Path: "/data", Species: "dmel", Chromosome: "4", Release: "r5.57"}
	got := req.FileFor("exon")
	want := filepath.Join("/data", "dmel-4-exon-r5.57.fasta.gz")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestScanEmitsRowPerMatchingRecord(t *testing.T) {
	// The needle occurs only in the second record's sequence, so a
	// single row with that record's parent and declared length is
	// emitted.
	req := request(t, []string{"exon"}, pattern.NewLiteral("GGGTTTAAAC"))
	writeRegion(t, req, "exon")

	var sink collector
	if err := New(nil).Scan(context.Background(), req, &sink); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	want := []Row{{Region: "exon", Pattern: "GGGTTTAAAC", Parent: "FBgn0000002", Length: "20"}}
	assertRows(t, sink.rows, want)
}

func TestScanSkipsMissingRegions(t *testing.T) {
	// Only the intron file exists; the missing exon file is skipped
	// and does not abort the remaining regions.
	req := request(t, []string{"exon", "intron"}, pattern.NewLiteral("ACGTACGTAC"))
	writeRegion(t, req, "intron")

	var sink collector
	if err := New(nil).Scan(context.Background(), req, &sink); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	want := []Row{
		{Region: "intron", Pattern: "ACGTACGTAC", Parent: "FBgn0000001", Length: "10"},
		{Region: "intron", Pattern: "ACGTACGTAC", Parent: "FBgn0000002", Length: "20"},
	}
	assertRows(t, sink.rows, want)
}

func TestScanDeterministicOrder(t *testing.T) {
	// Rows come out in region order, then pattern order, then record
	// order.
	req := request(t, []string{"exon", "intron"},
		pattern.NewLiteral("GGGTTTAAAC"),
		pattern.NewLiteral("ACGTACGTAC"),
	)
	writeRegion(t, req, "exon")
	writeRegion(t, req, "intron")

	var sink collector
	if err := New(nil).Scan(context.Background(), req, &sink); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	want := []Row{
		{Region: "exon", Pattern: "GGGTTTAAAC", Parent: "FBgn0000002", Length: "20"},
		{Region: "exon", Pattern: "ACGTACGTAC", Parent: "FBgn0000001", Length: "10"},
		{Region: "exon", Pattern: "ACGTACGTAC", Parent: "FBgn0000002", Length: "20"},
		{Region: "intron", Pattern: "GGGTTTAAAC", Parent: "FBgn0000002", Length: "20"},
		{Region: "intron", Pattern: "ACGTACGTAC", Parent: "FBgn0000001", Length: "10"},
		{Region: "intron", Pattern: "ACGTACGTAC", Parent: "FBgn0000002", Length: "20"},
	}
	assertRows(t, sink.rows, want)
}

func TestScanRegexMode(t *testing.T) {
	p, err := pattern.CompileRegexp("(TG)+T{2}")
	if err != nil {
		t.Fatal(err)
	}
	req := request(t, []string{"exon"}, p)
	writeRegion(t, req, "exon")

	var sink collector
	if err := New(nil).Scan(context.Background(), req, &sink); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	// No match anywhere: informational only, no rows, no error.
	if len(sink.rows) != 0 {
		t.Errorf("got %d rows, want 0", len(sink.rows))
	}

	q, err := pattern.CompileRegexp("G{3}T{3}")
	if err != nil {
		t.Fatal(err)
	}
	req.Patterns = []pattern.Pattern{q}
	sink.rows = nil
	if err := New(nil).Scan(context.Background(), req, &sink); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	want := []Row{{Region: "exon", Pattern: "G{3}T{3}", Parent: "FBgn0000002", Length: "20"}}
	assertRows(t, sink.rows, want)
}

func TestScanStrictStopsAtMissingAttribute(t *testing.T) {
	// The first record's header fields all parse but the required
	// parent attribute is absent. Strict stops the file there; the
	// default skips it and still reports the second record.
	content := ">FBtr0000001 type=exon; loc=4:100..109; name=CG0001-RA; length=10; release=r5.57; species=Dmel;\n" +
		"ACGTACGTAC\n" +
		">FBtr0000002 type=exon; loc=4:200..219; name=CG0002-RA; length=20; parent=FBgn0000002; release=r5.57; species=Dmel;\n" +
		"ACGTACGTAC\n" +
		"GGGTTTAAAC\n"
	req := request(t, []string{"exon"}, pattern.NewLiteral("ACGTACGTAC"))
	req.Strict = true
	writeRegionContent(t, req.FileFor("exon"), content)

	var sink collector
	if err := New(nil).Scan(context.Background(), req, &sink); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if len(sink.rows) != 0 {
		t.Errorf("strict: got %d rows, want 0: %v", len(sink.rows), sink.rows)
	}

	req.Strict = false
	sink.rows = nil
	if err := New(nil).Scan(context.Background(), req, &sink); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	want := []Row{{Region: "exon", Pattern: "ACGTACGTAC", Parent: "FBgn0000002", Length: "20"}}
	assertRows(t, sink.rows, want)
}

func TestScanStrictStopsAtMissingLength(t *testing.T) {
	content := ">FBtr0000001 type=exon; loc=4:100..109; name=CG0001-RA; parent=FBgn0000001; release=r5.57; species=Dmel;\n" +
		"ACGTACGTAC\n" +
		">FBtr0000002 type=exon; loc=4:200..219; name=CG0002-RA; length=20; parent=FBgn0000002; release=r5.57; species=Dmel;\n" +
		"ACGTACGTAC\n"
	req := request(t, []string{"exon"}, pattern.NewLiteral("ACGTACGTAC"))
	req.Strict = true
	writeRegionContent(t, req.FileFor("exon"), content)

	var sink collector
	if err := New(nil).Scan(context.Background(), req, &sink); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if len(sink.rows) != 0 {
		t.Errorf("strict: got %d rows, want 0: %v", len(sink.rows), sink.rows)
	}
}

func TestScanSkipsRemoteLocation(t *testing.T) {
	req := request(t, []string{"exon"}, pattern.NewLiteral("ACGT"))
	req.Path = "ftp://ftp.flybase.net/releases/current/dmel_r5.57/fasta"

	var sink collector
	if err := New(nil).Scan(context.Background(), req, &sink); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if len(sink.rows) != 0 {
		t.Errorf("got %d rows, want 0", len(sink.rows))
	}
}

func TestScanHonoursCancellation(t *testing.T) {
	req := request(t, []string{"exon"}, pattern.NewLiteral("ACGT"))
	writeRegion(t, req, "exon")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var sink collector
	if err := New(nil).Scan(ctx, req, &sink); err != context.Canceled {
		t.Errorf("got err %v, want context.Canceled", err)
	}
	if len(sink.rows) != 0 {
		t.Errorf("got %d rows, want 0", len(sink.rows))
	}
}

func assertRows(t *testing.T, got, want []Row) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d:\ngot:  %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
