// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// evt3-decode decodes Prophesee EVT 3.0 raw files to CSV or EVT3BIN.
//
// Usage: evt3-decode [OPTIONS] INPUT OUTPUT
//
// The output format is inferred from the OUTPUT extension: .csv for
// comma-separated values, .bin for the EVT3BIN packed binary format.
//
// Example:
//
//	$> evt3-decode ./testdata/spinner.raw ./spinner.csv
//	evt3-decode: decoded 54165303 CD events, 0 triggers in 1.2s
//	evt3-decode: sensor: 1280x720
package main // import "github.com/go-evc/ecam/cmd/evt3-decode"

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-evc/ecam"
	"github.com/go-evc/ecam/evt3"
	"github.com/go-evc/ecam/internal/xcnv"
)

func main() {
	log.SetPrefix("evt3-decode: ")
	log.SetFlags(0)

	var (
		format   = flag.String("format", "x,y,p,t", "field order for CSV output (permutation of x,y,p,t)")
		triggers = flag.String("triggers", "", "path to the output CSV file for trigger events")
		quiet    = flag.Bool("quiet", false, "suppress the decode summary")
		version  = flag.Bool("version", false, "print version and exit")
	)
	flag.BoolVar(quiet, "q", false, "shorthand for -quiet")

	flag.Usage = func() {
		fmt.Printf(`evt3-decode decodes Prophesee EVT 3.0 raw files to CSV or EVT3BIN.

Usage: evt3-decode [OPTIONS] INPUT OUTPUT

The output format is inferred from the OUTPUT extension:
 .csv  comma-separated values, one event per line
 .bin  EVT3BIN packed binary format

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		v, sum := ecam.Version()
		fmt.Printf("evt3-decode %s %s\n", v, sum)
		os.Exit(0)
	}

	if flag.NArg() != 2 {
		flag.Usage()
		log.Fatalf("missing INPUT and OUTPUT paths")
	}

	err := process(flag.Arg(0), flag.Arg(1), *format, *triggers, *quiet)
	if err != nil {
		log.Fatalf("could not decode %q: %+v", flag.Arg(0), err)
	}
}

func process(input, output, format, triggers string, quiet bool) error {
	order, err := xcnv.ParseFieldOrder(format)
	if err != nil {
		return fmt.Errorf("invalid -format value %q: %w", format, err)
	}

	start := time.Now()
	res, err := evt3.DecodeFile(input)
	if err != nil {
		return fmt.Errorf("could not decode EVT3 file: %w", err)
	}

	if !quiet {
		log.Printf("decoded %d CD events, %d triggers in %v",
			res.CD.Len(), res.Trig.Len(), time.Since(start).Round(time.Millisecond),
		)
		log.Printf("sensor: %dx%d", res.Width, res.Height)
		if res.Stats.DroppedBeforeY > 0 || res.Stats.OutOfOrder > 0 {
			log.Printf("dropped=%d out-of-order=%d loops=%d",
				res.Stats.DroppedBeforeY, res.Stats.OutOfOrder, res.Stats.TimeHighLoops,
			)
		}
	}

	switch ext := strings.ToLower(filepath.Ext(output)); ext {
	case ".csv":
		err = xcnv.WriteCSV(output, res, order)
	case ".bin":
		err = writeBin(output, res)
	default:
		return fmt.Errorf("unsupported output format %q (use .csv or .bin)", ext)
	}
	if err != nil {
		return fmt.Errorf("could not write %q: %w", output, err)
	}

	if triggers != "" && res.Trig.Len() > 0 {
		err = xcnv.WriteTriggerCSV(triggers, res)
		if err != nil {
			return fmt.Errorf("could not write triggers to %q: %w", triggers, err)
		}
		if !quiet {
			log.Printf("wrote %d triggers to %q", res.Trig.Len(), triggers)
		}
	}

	return nil
}

func writeBin(fname string, res *evt3.Result) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	err = xcnv.WriteBin(w, res)
	if err != nil {
		return err
	}
	err = w.Flush()
	if err != nil {
		return err
	}
	return f.Close()
}
