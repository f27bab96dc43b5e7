// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// evt3-dump decodes and displays EVT 3.0 raw files.
//
// Usage: evt3-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> evt3-dump ./testdata/spinner.raw
//	=== spinner.raw ===
//	sensor:      1280x720
//	cd events:         1287
//	triggers:             2
//	th-loops:             0
//	  cd: x= 610 y= 290 p=1 t=       4866
//	  cd: x= 611 y= 290 p=1 t=       4866
//	[...]
package main // import "github.com/go-evc/ecam/cmd/evt3-dump"

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/go-evc/ecam/evt3"
)

func main() {
	log.SetPrefix("evt3-dump: ")
	log.SetFlags(0)

	nevts := flag.Int("n", 0, "maximum number of events to display per file (0: all)")

	flag.Usage = func() {
		fmt.Printf(`evt3-dump decodes and displays EVT 3.0 raw files.

Usage: evt3-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> evt3-dump ./testdata/spinner.raw
 === spinner.raw ===
 sensor:      1280x720
 cd events:         1287
 triggers:             2
 th-loops:             0
   cd: x= 610 y= 290 p=1 t=       4866
   cd: x= 611 y= 290 p=1 t=       4866
 [...]

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing path to input EVT3 file")
	}

	for _, fname := range flag.Args() {
		err := process(os.Stdout, fname, *nevts)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, nevts int) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	res, err := evt3.DecodeFile(fname)
	if err != nil {
		return fmt.Errorf("could not decode EVT3 file: %w", err)
	}

	fmt.Fprintf(wbuf, "=== %s ===\n", filepath.Base(fname))
	fmt.Fprintf(wbuf, "sensor:      %dx%d\n", res.Width, res.Height)
	fmt.Fprintf(wbuf, "cd events:   % 10d\n", res.CD.Len())
	fmt.Fprintf(wbuf, "triggers:    % 10d\n", res.Trig.Len())
	fmt.Fprintf(wbuf, "th-loops:    % 10d\n", res.Stats.TimeHighLoops)
	if res.Stats.DroppedBeforeY > 0 {
		fmt.Fprintf(wbuf, "dropped:     % 10d\n", res.Stats.DroppedBeforeY)
	}
	if res.Stats.OutOfOrder > 0 {
		fmt.Fprintf(wbuf, "out-of-order:% 10d\n", res.Stats.OutOfOrder)
	}

	n := res.CD.Len()
	if nevts > 0 && nevts < n {
		n = nevts
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(wbuf, "  cd: x=%4d y=%4d p=%d t=% 11d\n",
			res.CD.X[i], res.CD.Y[i], res.CD.P[i], res.CD.T[i],
		)
	}

	n = res.Trig.Len()
	if nevts > 0 && nevts < n {
		n = nevts
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(wbuf, "  trig: id=%2d v=%d t=% 11d\n",
			res.Trig.ID[i], res.Trig.V[i], res.Trig.T[i],
		)
	}

	return nil
}
