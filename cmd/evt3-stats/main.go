// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// evt3-stats decodes EVT 3.0 raw files and reports event-rate statistics.
//
// Usage: evt3-stats [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Files are decoded in parallel, one decoder session per file.
package main // import "github.com/go-evc/ecam/cmd/evt3-stats"

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/go-evc/ecam/evt3"
	"go-hep.org/x/hep/hbook"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.SetPrefix("evt3-stats: ")
	log.SetFlags(0)

	bins := flag.Int("bins", 100, "number of bins for the event-time histogram")

	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("missing path to input EVT3 file")
	}

	err := run(flag.Args(), *bins)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(fnames []string, bins int) error {
	var (
		grp  errgroup.Group
		recs = make([]*evt3.Result, len(fnames))
	)

	start := time.Now()
	for i, fname := range fnames {
		i, fname := i, fname
		grp.Go(func() error {
			res, err := evt3.DecodeFile(fname)
			if err != nil {
				return fmt.Errorf("could not decode %q: %w", fname, err)
			}
			recs[i] = res
			return nil
		})
	}

	err := grp.Wait()
	if err != nil {
		return fmt.Errorf("could not decode input files: %w", err)
	}

	var total int
	for i, res := range recs {
		report(fnames[i], res, bins)
		total += res.CD.Len()
	}

	elapsed := time.Since(start)
	log.Printf("total: %d events in %v (%.0f events/s)",
		total, elapsed.Round(time.Millisecond),
		float64(total)/elapsed.Seconds(),
	)
	return nil
}

func report(fname string, res *evt3.Result, bins int) {
	n := res.CD.Len()
	log.Printf("=== %s ===", filepath.Base(fname))
	log.Printf("cd events: %d, triggers: %d, th-loops: %d",
		n, res.Trig.Len(), res.Stats.TimeHighLoops,
	)
	if n == 0 {
		return
	}

	var (
		t0  = res.CD.T[0]
		t1  = res.CD.T[n-1]
		dur = t1 - t0
	)
	log.Printf("span: %d us (%.3f s)", dur, float64(dur)*1e-6)
	if dur == 0 {
		return
	}

	// event-time distribution over the recording, in milliseconds.
	h := hbook.NewH1D(bins, 0, float64(dur)*1e-3)
	for _, t := range res.CD.T {
		h.Fill(float64(t-t0)*1e-3, 1)
	}
	log.Printf("rate: %.0f events/s (recording time)", float64(n)/(float64(dur)*1e-6))
	log.Printf("t-mean: %.3f ms, t-rms: %.3f ms (entries=%d)",
		h.XMean(), h.XRMS(), h.Entries(),
	)
	if res.Stats.DroppedBeforeY > 0 || res.Stats.OutOfOrder > 0 {
		log.Printf("dropped=%d out-of-order=%d",
			res.Stats.DroppedBeforeY, res.Stats.OutOfOrder,
		)
	}
}
