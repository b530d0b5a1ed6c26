// Copyright ©2014 The binding-sites Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"strconv"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vcaboara/binding-sites/scan"
)

// Tee fans rows out to each sink in order.
type Tee []scan.Sink

func (t Tee) Write(r scan.Row) error {
	for _, s := range t {
		if err := s.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Summary wraps a sink, counting rows and collecting declared sequence
// lengths per gene region as they pass through.
type Summary struct {
	next    scan.Sink
	regions []string // first-seen order
	count   map[string]int
	lengths map[string][]float64
}

// NewSummary returns a Summary forwarding rows to next.
func NewSummary(next scan.Sink) *Summary {
	return &Summary{
		next:    next,
		count:   make(map[string]int),
		lengths: make(map[string][]float64),
	}
}

func (s *Summary) Write(r scan.Row) error {
	if _, ok := s.count[r.Region]; !ok {
		s.regions = append(s.regions, r.Region)
	}
	s.count[r.Region]++
	// Declared lengths pass through to output verbatim; only numeric
	// ones contribute to the statistics.
	if v, err := strconv.ParseFloat(r.Length, 64); err == nil {
		s.lengths[r.Region] = append(s.lengths[r.Region], v)
	}
	return s.next.Write(r)
}

// Sites returns the number of rows seen for region.
func (s *Summary) Sites(region string) int { return s.count[region] }

// Report logs per-region totals with the mean and maximum declared
// sequence length.
func (s *Summary) Report(log *zap.Logger) {
	for _, region := range s.regions {
		fields := []zap.Field{
			zap.String("region", region),
			zap.Int("sites", s.count[region]),
		}
		if l := s.lengths[region]; len(l) != 0 {
			fields = append(fields,
				zap.Float64("mean_length", stat.Mean(l, nil)),
				zap.Float64("max_length", floats.Max(l)),
			)
		}
		log.Info("scan summary", fields...)
	}
}
