// Copyright ©2014 The binding-sites Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pattern provides binding site patterns and their matching
// semantics.
//
// The two pattern kinds deliberately scan different views of a gene
// region file. A Literal needle is tested against each record's
// reconstructed sequence, so a subsequence split across sequence lines
// is still found. A Regexp is run over the raw decompressed content,
// so expressions may anchor on header text or span line breaks; the
// owning record's attributes are recovered from the nearest preceding
// header after the fact.
package pattern

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/vcaboara/binding-sites/fasta"
)

// Mode selects the matching semantics patterns are loaded with.
type Mode int

const (
	Regex     Mode = iota // regular expressions run over raw file content
	Substring             // literal needles tested against each record sequence
)

// A Site is a single reported binding site: the matched subsequence
// and the record it belongs to. In Regex mode the record carries only
// the recovered header, not the sequence body.
type Site struct {
	Matched string
	Record  fasta.Record
}

// A Pattern scans decompressed gene region file content for binding
// sites.
type Pattern interface {
	// Expr returns the pattern source text.
	Expr() string

	// Sites returns the binding sites found in content, in record
	// order. Records that cannot be parsed are reported through errs;
	// matching continues past them unless strict is set, in which
	// case the scan of this content stops at the first bad record.
	Sites(content []byte, strict bool) (sites []Site, errs []error)
}

// Literal is a case-sensitive subsequence pattern. It reports presence
// per record, not positions.
type Literal struct {
	needle string
}

// NewLiteral returns a Literal matching needle exactly.
func NewLiteral(needle string) Literal { return Literal{needle: needle} }

func (l Literal) Expr() string { return l.needle }

func (l Literal) Sites(content []byte, strict bool) ([]Site, []error) {
	var (
		sites []Site
		errs  []error
	)
	sc := fasta.NewScanner(content)
	for sc.Next() {
		rec, err := sc.Record()
		if err != nil {
			errs = append(errs, err)
			if strict {
				return sites, errs
			}
			continue
		}
		if strings.Contains(rec.Seq, l.needle) {
			sites = append(sites, Site{Matched: l.needle, Record: rec})
		}
	}
	if err := sc.Err(); err != nil {
		errs = append(errs, err)
	}
	return sites, errs
}

// Regexp is a compiled regular expression pattern run over raw file
// content. Only the first match in a file is reported, with capture
// group zero as the matched subsequence.
type Regexp struct {
	re *regexp.Regexp
}

// CompileRegexp compiles expr into a Regexp pattern.
func CompileRegexp(expr string) (Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Regexp{}, err
	}
	return Regexp{re: re}, nil
}

func (p Regexp) Expr() string { return p.re.String() }

func (p Regexp) Sites(content []byte, strict bool) ([]Site, []error) {
	loc := p.re.FindIndex(content)
	if loc == nil {
		return nil, nil
	}
	rec, err := recoverRecord(content, loc[1])
	if err != nil {
		return nil, []error{err}
	}
	return []Site{{Matched: string(content[loc[0]:loc[1]]), Record: rec}}, nil
}

// recoverRecord parses the header of the record the match ending at
// end falls in: the text between the last '>' before the next record
// delimiter and its line end.
func recoverRecord(content []byte, end int) (fasta.Record, error) {
	next := bytes.IndexByte(content[end:], '>')
	if next < 0 {
		next = len(content)
	} else {
		next += end
	}
	start := bytes.LastIndexByte(content[:next], '>')
	if start < 0 {
		return fasta.Record{}, &fasta.MalformedRecordError{Reason: "match precedes any record header"}
	}
	header := content[start+1 : next]
	if i := bytes.IndexByte(header, '\n'); i >= 0 {
		header = header[:i]
	}
	return fasta.ParseHeader(string(header))
}

// Load interprets src as a pattern source. If src names a readable
// file it is read as a newline-separated pattern list with blank lines
// dropped; otherwise src itself is the single pattern. Patterns that
// fail to compile are reported through invalid and do not prevent the
// rest of the list from loading.
func Load(src string, mode Mode) (pats []Pattern, invalid []error, err error) {
	exprs := []string{src}
	if fi, statErr := os.Stat(src); statErr == nil && !fi.IsDir() {
		b, readErr := os.ReadFile(src)
		if readErr != nil {
			return nil, nil, readErr
		}
		exprs = exprs[:0]
		for _, line := range strings.Split(string(b), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			exprs = append(exprs, line)
		}
	}
	for _, e := range exprs {
		switch mode {
		case Substring:
			pats = append(pats, NewLiteral(e))
		default:
			p, cerr := CompileRegexp(e)
			if cerr != nil {
				invalid = append(invalid, fmt.Errorf("pattern: invalid expression %q: %w", e, cerr))
				continue
			}
			pats = append(pats, p)
		}
	}
	return pats, invalid, nil
}
