// Copyright ©2014 The binding-sites Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report provides the result sinks binding site rows are
// written to.
package report

import (
	"bufio"
	"os"
	"strings"

	"github.com/vcaboara/binding-sites/scan"
)

var columns = []string{"Part of gene", "Pattern Matched", "Gene Matched", "Length of Sequence Matched"}

// TSV writes result rows as tab-delimited text with minimal quoting,
// using '|' as the quote character. The column header is written only
// when the file is first created; reopening an existing file appends
// rows below the existing ones. The writer stays open for the whole
// scan and must be closed to flush.
type TSV struct {
	f *os.File
	w *bufio.Writer
}

// NewTSV opens the result file at path for appending, creating it with
// a header row if it does not exist.
func NewTSV(path string) (*TSV, error) {
	_, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	t := &TSV{f: f, w: bufio.NewWriter(f)}
	if os.IsNotExist(statErr) {
		if err := t.writeFields(columns); err != nil {
			f.Close()
			return nil, err
		}
	}
	return t, nil
}

func (t *TSV) Write(r scan.Row) error {
	return t.writeFields([]string{r.Region, r.Pattern, r.Parent, r.Length})
}

func (t *TSV) writeFields(fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := t.w.WriteByte('\t'); err != nil {
				return err
			}
		}
		if _, err := t.w.WriteString(quote(f)); err != nil {
			return err
		}
	}
	return t.w.WriteByte('\n')
}

// quote wraps a field in '|' quotes when it contains a tab, a line
// break or the quote character itself, doubling embedded quotes.
func quote(field string) string {
	if !strings.ContainsAny(field, "\t\n\r|") {
		return field
	}
	return "|" + strings.ReplaceAll(field, "|", "||") + "|"
}

// Close flushes buffered rows and closes the file.
func (t *TSV) Close() error {
	if err := t.w.Flush(); err != nil {
		t.f.Close()
		return err
	}
	return t.f.Close()
}
