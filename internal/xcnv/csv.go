// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv converts decoded EVT 3.0 results to CSV and EVT3BIN files.
package xcnv // import "github.com/go-evc/ecam/internal/xcnv"

import (
	"fmt"
	"strings"

	"github.com/go-evc/ecam/evt3"
	"go-hep.org/x/hep/csvutil"
)

// FieldOrder is a permutation of the CD event fields for CSV output.
// The i-th output column holds the field named by the i-th element:
// 0=x, 1=y, 2=polarity, 3=timestamp.
type FieldOrder [4]int

// XYPT is the default field order.
var XYPT = FieldOrder{0, 1, 2, 3}

var fieldNames = [4]string{"x", "y", "p", "t"}

// ParseFieldOrder parses a field order from a string such as "x,y,p,t"
// or "t,x,y,p". The aliases "pol", "polarity", "time" and "timestamp"
// are accepted.
func ParseFieldOrder(s string) (FieldOrder, error) {
	var (
		o    FieldOrder
		used [4]bool
	)

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return o, fmt.Errorf("xcnv: format %q must have exactly 4 fields: x,y,p,t", s)
	}

	for i, p := range parts {
		var idx int
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "x":
			idx = 0
		case "y":
			idx = 1
		case "p", "pol", "polarity":
			idx = 2
		case "t", "time", "timestamp":
			idx = 3
		default:
			return o, fmt.Errorf("xcnv: unknown field %q (use x, y, p, t)", p)
		}
		if used[idx] {
			return o, fmt.Errorf("xcnv: duplicate field %q", p)
		}
		used[idx] = true
		o[i] = idx
	}

	return o, nil
}

func (o FieldOrder) String() string {
	names := make([]string, len(o))
	for i, idx := range o {
		names[i] = fieldNames[idx]
	}
	return strings.Join(names, ",")
}

// WriteCSV writes the CD events of res to the CSV file fname, one event
// per line in the given field order, preceded by a "%geometry:W,H"
// header line.
func WriteCSV(fname string, res *evt3.Result, order FieldOrder) error {
	tbl, err := csvutil.Create(fname)
	if err != nil {
		return fmt.Errorf("xcnv: could not create %q: %w", fname, err)
	}
	defer tbl.Close()

	err = tbl.WriteHeader(fmt.Sprintf("%%geometry:%d,%d\n", res.Width, res.Height))
	if err != nil {
		return fmt.Errorf("xcnv: could not write CSV header: %w", err)
	}

	var (
		cd   = &res.CD
		vals [4]interface{}
	)
	for i := 0; i < cd.Len(); i++ {
		row := [4]uint64{uint64(cd.X[i]), uint64(cd.Y[i]), uint64(cd.P[i]), cd.T[i]}
		for j, idx := range order {
			vals[j] = row[idx]
		}
		err = tbl.WriteRow(vals[0], vals[1], vals[2], vals[3])
		if err != nil {
			return fmt.Errorf("xcnv: could not write CSV row %d: %w", i, err)
		}
	}

	err = tbl.Close()
	if err != nil {
		return fmt.Errorf("xcnv: could not close %q: %w", fname, err)
	}
	return nil
}

// WriteTriggerCSV writes the trigger events of res to the CSV file fname
// as "value,id,timestamp" lines.
func WriteTriggerCSV(fname string, res *evt3.Result) error {
	tbl, err := csvutil.Create(fname)
	if err != nil {
		return fmt.Errorf("xcnv: could not create %q: %w", fname, err)
	}
	defer tbl.Close()

	tr := &res.Trig
	for i := 0; i < tr.Len(); i++ {
		err = tbl.WriteRow(tr.V[i], tr.ID[i], tr.T[i])
		if err != nil {
			return fmt.Errorf("xcnv: could not write trigger CSV row %d: %w", i, err)
		}
	}

	err = tbl.Close()
	if err != nil {
		return fmt.Errorf("xcnv: could not close %q: %w", fname, err)
	}
	return nil
}
