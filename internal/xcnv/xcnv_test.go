// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-evc/ecam/evt3"
	"github.com/google/go-cmp/cmp"
)

func sampleResult() *evt3.Result {
	res := &evt3.Result{Width: 640, Height: 480}
	res.CD.X = []uint16{100, 101, 2047}
	res.CD.Y = []uint16{200, 201, 0}
	res.CD.P = []uint8{1, 0, 1}
	res.CD.T = []uint64{12345, 12346, 1 << 24}
	res.Trig.T = []uint64{500, 600}
	res.Trig.ID = []uint8{3, 2}
	res.Trig.V = []uint8{1, 0}
	return res
}

func TestParseFieldOrder(t *testing.T) {
	for _, tc := range []struct {
		s    string
		want FieldOrder
		err  bool
	}{
		{s: "x,y,p,t", want: FieldOrder{0, 1, 2, 3}},
		{s: "t,x,y,p", want: FieldOrder{3, 0, 1, 2}},
		{s: "x,y,t,p", want: FieldOrder{0, 1, 3, 2}},
		{s: "X, Y, P, T", want: FieldOrder{0, 1, 2, 3}},
		{s: "x,y,polarity,timestamp", want: FieldOrder{0, 1, 2, 3}},
		{s: "x,y,z,t", err: true},
		{s: "x,y,p", err: true},
		{s: "x,x,y,t", err: true},
	} {
		t.Run(tc.s, func(t *testing.T) {
			o, err := ParseFieldOrder(tc.s)
			if (err != nil) != tc.err {
				t.Fatalf("ParseFieldOrder(%q): err=%v, want-err=%v", tc.s, err, tc.err)
			}
			if err != nil {
				return
			}
			if o != tc.want {
				t.Fatalf("ParseFieldOrder(%q): got=%v, want=%v", tc.s, o, tc.want)
			}
		})
	}
}

func TestFieldOrderString(t *testing.T) {
	if got, want := XYPT.String(), "x,y,p,t"; got != want {
		t.Fatalf("invalid field order string: got=%q, want=%q", got, want)
	}
	if got, want := (FieldOrder{3, 0, 1, 2}).String(), "t,x,y,p"; got != want {
		t.Fatalf("invalid field order string: got=%q, want=%q", got, want)
	}
}

func TestWriteCSV(t *testing.T) {
	for _, tc := range []struct {
		name  string
		order FieldOrder
		want  string
	}{
		{
			name:  "xypt",
			order: XYPT,
			want: "%geometry:640,480\n" +
				"100,200,1,12345\n" +
				"101,201,0,12346\n" +
				"2047,0,1,16777216\n",
		},
		{
			name:  "txyp",
			order: FieldOrder{3, 0, 1, 2},
			want: "%geometry:640,480\n" +
				"12345,100,200,1\n" +
				"12346,101,201,0\n" +
				"16777216,2047,0,1\n",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fname := filepath.Join(t.TempDir(), "out.csv")
			err := WriteCSV(fname, sampleResult(), tc.order)
			if err != nil {
				t.Fatalf("could not write CSV: %+v", err)
			}

			got, err := os.ReadFile(fname)
			if err != nil {
				t.Fatalf("could not read back %q: %+v", fname, err)
			}
			if diff := cmp.Diff(tc.want, string(got)); diff != "" {
				t.Fatalf("invalid CSV output: (-want +got)\n%s", diff)
			}
		})
	}
}

func TestWriteTriggerCSV(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "triggers.csv")
	err := WriteTriggerCSV(fname, sampleResult())
	if err != nil {
		t.Fatalf("could not write trigger CSV: %+v", err)
	}

	got, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("could not read back %q: %+v", fname, err)
	}
	want := "1,3,500\n" +
		"0,2,600\n"
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Fatalf("invalid trigger CSV output: (-want +got)\n%s", diff)
	}
}

func TestBinRoundTrip(t *testing.T) {
	var (
		buf bytes.Buffer
		res = sampleResult()
	)
	err := WriteBin(&buf, res)
	if err != nil {
		t.Fatalf("could not write EVT3BIN: %+v", err)
	}

	if got, want := buf.Len(), 8+binHdrLen+res.CD.Len()*binEvtLen; got != want {
		t.Fatalf("invalid EVT3BIN size: got=%d, want=%d", got, want)
	}

	back, err := ReadBin(&buf)
	if err != nil {
		t.Fatalf("could not read EVT3BIN back: %+v", err)
	}
	if got, want := back.Width, res.Width; got != want {
		t.Fatalf("invalid width: got=%d, want=%d", got, want)
	}
	if got, want := back.Height, res.Height; got != want {
		t.Fatalf("invalid height: got=%d, want=%d", got, want)
	}
	if diff := cmp.Diff(res.CD, back.CD); diff != "" {
		t.Fatalf("EVT3BIN round trip mismatch: (-want +got)\n%s", diff)
	}
}

func TestBinGolden(t *testing.T) {
	res := &evt3.Result{Width: 2, Height: 3}
	res.CD.X = []uint16{0x0102}
	res.CD.Y = []uint16{0x0304}
	res.CD.P = []uint8{1}
	res.CD.T = []uint64{0x0807060504030201}

	var buf bytes.Buffer
	err := WriteBin(&buf, res)
	if err != nil {
		t.Fatalf("could not write EVT3BIN: %+v", err)
	}

	want := []byte{
		'E', 'V', 'T', '3', 'B', 'I', 'N', 0,
		1, 0, 0, 0, // version
		2, 0, // width
		3, 0, // height
		1, 0, 0, 0, 0, 0, 0, 0, // count
		0, 0, 0, 0, 0, 0, 0, 0, // reserved
		0x02, 0x01, // x
		0x04, 0x03, // y
		1, 0, // polarity, pad
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, // t
	}
	if diff := cmp.Diff(want, buf.Bytes()); diff != "" {
		t.Fatalf("invalid EVT3BIN bytes: (-want +got)\n%s", diff)
	}
}

func TestReadBinErrors(t *testing.T) {
	_, err := ReadBin(bytes.NewReader([]byte("NOTEVT3\x00")))
	if err == nil {
		t.Fatalf("expected an error for invalid magic")
	}

	_, err = ReadBin(bytes.NewReader(nil))
	if err == nil {
		t.Fatalf("expected an error for empty input")
	}
}
