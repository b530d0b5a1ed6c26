// Copyright ©2014 The binding-sites Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scan drives binding site searches over sets of gene region
// files and emits one result row per reported site.
package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/vcaboara/binding-sites/fasta"
	"github.com/vcaboara/binding-sites/pattern"
)

// Row is one reported binding site.
type Row struct {
	Region  string // gene region the file covers (exon, intron, ...)
	Pattern string // pattern source text
	Parent  string // parent gene identifier
	Length  string // declared sequence length from the record header
}

// A Sink consumes result rows as they are produced. Rows are written
// incrementally, one file and pattern combination at a time, so
// partial results survive a later failure.
type Sink interface {
	Write(Row) error
}

// Request configures a single scan pass.
type Request struct {
	Path       string // directory holding the gene region files
	Species    string
	Chromosome string // chromosome number or "all"
	Release    string
	Regions    []string
	Patterns   []pattern.Pattern

	// Strict stops scanning a file at its first malformed record
	// instead of skipping past it. A record is malformed when its
	// header has an unparsable attribute field or, for a matched
	// record, lacks the required parent or length attribute.
	// Remaining regions are still scanned either way.
	Strict bool
}

// FileFor resolves the file path for a gene region using the fixed
// naming convention, e.g. dmel-4-exon-r5.57.fasta.gz.
func (r Request) FileFor(region string) string {
	return filepath.Join(r.Path, fmt.Sprintf("%s-%s-%s-%s.fasta.gz", r.Species, r.Chromosome, region, r.Release))
}

// A Scanner runs scan requests. It holds no state between calls; each
// Scan is independent.
type Scanner struct {
	log *zap.Logger
}

// New returns a Scanner logging through log. A nil log discards.
func New(log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{log: log}
}

// Scan resolves each requested gene region file and tests every
// pattern against it, writing one row per reported site to sink.
// Regions and patterns are processed in the order given, so row order
// is deterministic. Missing region files are logged and skipped.
// Cancellation is honoured at the file boundary.
func (s *Scanner) Scan(ctx context.Context, req Request, sink Sink) error {
	if remote(req.Path) {
		s.log.Warn("remote locations are not supported, skipping scan",
			zap.String("path", req.Path))
		return nil
	}
loop:
	for _, region := range req.Regions {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := req.FileFor(region)
		content, err := fasta.Contents(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				s.log.Warn("could not locate gene region file, skipping",
					zap.String("file", path),
					zap.String("region", region))
				continue
			}
			return fmt.Errorf("scan: reading %q: %w", path, err)
		}
		for _, p := range req.Patterns {
			sites, errs := p.Sites(content, req.Strict)
			for _, serr := range errs {
				s.log.Warn("skipping malformed record",
					zap.String("file", path),
					zap.String("region", region),
					zap.String("pattern", p.Expr()),
					zap.Error(serr))
			}
			if len(sites) == 0 {
				s.log.Info("pattern not found in file",
					zap.String("file", path),
					zap.String("pattern", p.Expr()))
				continue
			}
			for _, site := range sites {
				parent, perr := site.Record.Parent()
				if perr != nil {
					s.log.Warn("site record without parent gene",
						zap.String("file", path),
						zap.String("pattern", p.Expr()),
						zap.Bool("strict", req.Strict),
						zap.Error(perr))
					if req.Strict {
						continue loop
					}
					continue
				}
				length, lerr := site.Record.DeclaredLength()
				if lerr != nil {
					s.log.Warn("site record without declared length",
						zap.String("file", path),
						zap.String("pattern", p.Expr()),
						zap.Bool("strict", req.Strict),
						zap.Error(lerr))
					if req.Strict {
						continue loop
					}
					continue
				}
				row := Row{Region: region, Pattern: p.Expr(), Parent: parent, Length: length}
				if err := sink.Write(row); err != nil {
					return fmt.Errorf("scan: writing result for %q: %w", path, err)
				}
			}
		}
	}
	return nil
}

// remote reports whether path names a network location. Retrieval over
// FTP or HTTP is out of scope.
func remote(path string) bool {
	for _, scheme := range []string{"ftp://", "http://", "https://"} {
		if strings.HasPrefix(path, scheme) {
			return true
		}
	}
	return false
}
