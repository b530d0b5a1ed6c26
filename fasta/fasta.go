// Copyright ©2014 The binding-sites Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fasta reads gzip-compressed FASTA gene region files and
// parses the attribute headers carried by their records.
//
// Headers follow the FlyBase convention: an identifier token followed
// by ;-separated key=value fields, for example
//
//	>FBtr0089105 type=three_prime_untranslated_region; loc=4:complement(588922..588992); length=71; parent=FBgn0039909; release=r5.56; species=Dmel;
//
// Attribute order is not guaranteed and is not assumed.
package fasta

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	biofasta "github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// MalformedRecordError describes a record whose header could not be
// used: an attribute field that is not key=value, or a required
// attribute that is absent.
type MalformedRecordError struct {
	ID     string // record identifier, if known
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("fasta: malformed record: %s", e.Reason)
	}
	return fmt.Sprintf("fasta: malformed record %s: %s", e.ID, e.Reason)
}

// Attributes is the key/value mapping parsed from a record header.
type Attributes map[string]string

// ParseAttributes parses the ;-separated key=value fields of a record
// description. Whitespace around keys and values is dropped, as are
// empty fields such as the one left by a trailing semicolon.
func ParseAttributes(desc string) (Attributes, error) {
	attrs := make(Attributes)
	for _, field := range strings.Split(desc, ";") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		i := strings.Index(field, "=")
		if i < 0 {
			return nil, &MalformedRecordError{Reason: fmt.Sprintf("attribute field %q is not key=value", field)}
		}
		attrs[strings.TrimSpace(field[:i])] = strings.TrimSpace(field[i+1:])
	}
	return attrs, nil
}

// Record is one FASTA entry: its identifier, its header attributes and
// its sequence with line breaks removed.
type Record struct {
	ID    string
	Attrs Attributes
	Seq   string
}

// ParseHeader parses a full header line, without its leading '>', into
// a sequence-less Record. The first whitespace-separated token is the
// record identifier; the remainder holds the attribute fields.
func ParseHeader(line string) (Record, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Record{}, &MalformedRecordError{Reason: "empty header"}
	}
	id, desc := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		id, desc = line[:i], line[i+1:]
	}
	attrs, err := ParseAttributes(desc)
	if err != nil {
		if merr, ok := err.(*MalformedRecordError); ok {
			merr.ID = id
		}
		return Record{ID: id}, err
	}
	return Record{ID: id, Attrs: attrs}, nil
}

// Parent returns the parent gene identifier declared in the header.
func (r Record) Parent() (string, error) {
	v, ok := r.Attrs["parent"]
	if !ok {
		return "", &MalformedRecordError{ID: r.ID, Reason: "missing parent attribute"}
	}
	return v, nil
}

// DeclaredLength returns the length attribute declared in the header.
// This is the declared length of the whole record sequence, not of any
// matched subsequence.
func (r Record) DeclaredLength() (string, error) {
	v, ok := r.Attrs["length"]
	if !ok {
		return "", &MalformedRecordError{ID: r.ID, Reason: "missing length attribute"}
	}
	return v, nil
}

// Contents returns the decompressed contents of the gzip-compressed
// file at path.
func Contents(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("fasta: %q is not gzip compressed: %w", path, err)
	}
	defer gz.Close()
	return io.ReadAll(gz)
}

// Scanner iterates over the records of decompressed file content. It
// is a single forward pass; callers needing another pass construct a
// new Scanner.
type Scanner struct {
	sc *seqio.Scanner
}

// NewScanner returns a Scanner reading records from content.
func NewScanner(content []byte) *Scanner {
	t := linear.NewSeq("", nil, alphabet.DNAredundant)
	return &Scanner{sc: seqio.NewScanner(biofasta.NewReader(bytes.NewReader(content), t))}
}

// Next advances the Scanner to the next record.
func (s *Scanner) Next() bool { return s.sc.Next() }

// Record returns the current record. A non-nil error is a
// *MalformedRecordError for a header that could not be parsed; the
// Scanner remains usable and skipping to the next record is safe.
func (s *Scanner) Record() (Record, error) {
	sq := s.sc.Seq().(*linear.Seq)
	rec := Record{ID: sq.Name(), Seq: sq.Seq.String()}
	attrs, err := ParseAttributes(sq.Desc)
	if err != nil {
		if merr, ok := err.(*MalformedRecordError); ok {
			merr.ID = rec.ID
		}
		return rec, err
	}
	rec.Attrs = attrs
	return rec, nil
}

// Err returns the first error encountered reading the content.
func (s *Scanner) Err() error { return s.sc.Error() }
