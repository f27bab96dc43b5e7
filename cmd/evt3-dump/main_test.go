// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestProcess(t *testing.T) {
	raw := []byte("% geometry 640x480\n")
	for _, w := range []uint16{
		0x8000, // TIME_HIGH 0
		0x0005, // ADDR_Y y=5
		0x6064, // TIME_LOW 100
		0x2866, // ADDR_X x=102 p=1
		0x2067, // ADDR_X x=103 p=0
		0xA301, // EXT_TRIGGER id=3 value=1
	} {
		raw = append(raw, byte(w), byte(w>>8))
	}

	fname := filepath.Join(t.TempDir(), "dump.raw")
	err := os.WriteFile(fname, raw, 0644)
	if err != nil {
		t.Fatalf("could not write input: %+v", err)
	}

	buf := new(bytes.Buffer)
	err = process(buf, fname, 0)
	if err != nil {
		t.Fatalf("could not dump file: %+v", err)
	}

	want := `=== dump.raw ===
sensor:      640x480
cd events:            2
triggers:             1
th-loops:             0
  cd: x= 102 y=   5 p=1 t=        100
  cd: x= 103 y=   5 p=0 t=        100
  trig: id= 3 v=1 t=        100
`
	if got := buf.String(); got != want {
		t.Fatalf("invalid dump output:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestProcessLimit(t *testing.T) {
	raw := []byte{}
	for _, w := range []uint16{
		0x8000,
		0x0000,
		0x6000,
		0x2001,
		0x2002,
		0x2003,
	} {
		raw = append(raw, byte(w), byte(w>>8))
	}

	fname := filepath.Join(t.TempDir(), "dump.raw")
	err := os.WriteFile(fname, raw, 0644)
	if err != nil {
		t.Fatalf("could not write input: %+v", err)
	}

	buf := new(bytes.Buffer)
	err = process(buf, fname, 1)
	if err != nil {
		t.Fatalf("could not dump file: %+v", err)
	}

	if got, want := strings.Count(buf.String(), "cd: "), 1; got != want {
		t.Fatalf("invalid number of displayed events: got=%d, want=%d", got, want)
	}
}

func TestProcessMissingFile(t *testing.T) {
	err := process(new(bytes.Buffer), filepath.Join(t.TempDir(), "nope.raw"), 0)
	if err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
