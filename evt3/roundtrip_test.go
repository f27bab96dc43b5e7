// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evt3

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// wordEncoder builds a synthetic EVT 3.0 word stream from events,
// emitting state words only when the state changes.
type wordEncoder struct {
	ws []uint16
	th int32
	tl int32
	y  int32
}

func newWordEncoder() *wordEncoder {
	return &wordEncoder{th: -1, tl: -1, y: -1}
}

func (enc *wordEncoder) state(t uint64, y uint16) {
	th := int32(t >> 12 & 0xfff)
	tl := int32(t & 0xfff)
	if th != enc.th {
		enc.ws = append(enc.ws, 0x8000|uint16(th))
		enc.th = th
	}
	if tl != enc.tl {
		enc.ws = append(enc.ws, 0x6000|uint16(tl))
		enc.tl = tl
	}
	if int32(y) != enc.y {
		enc.ws = append(enc.ws, 0x0000|y)
		enc.y = int32(y)
	}
}

// event emits one CD event as a single ADDR_X word.
func (enc *wordEncoder) event(ev cdEvent) {
	enc.state(ev.T, ev.Y)
	enc.ws = append(enc.ws, 0x2000|uint16(ev.P)<<11|ev.X)
}

// row emits CD events sharing y, t and polarity as one VECT_BASE_X word
// followed by as many VECT_12 words as the x span requires.
func (enc *wordEncoder) row(y uint16, t uint64, p uint8, xs []uint16) {
	enc.state(t, y)

	base := xs[0]
	enc.ws = append(enc.ws, 0x3000|uint16(p)<<11|base)

	end := xs[len(xs)-1]
	for ; base <= end; base += 12 {
		var mask uint16
		for _, x := range xs {
			if x >= base && x < base+12 {
				mask |= 1 << (x - base)
			}
		}
		enc.ws = append(enc.ws, 0x4000|mask)
	}
}

func TestRoundTripScalar(t *testing.T) {
	var (
		enc  = newWordEncoder()
		want []cdEvent
	)
	for i := 0; i < 200; i++ {
		ev := cdEvent{
			X: uint16(i*7) % 640,
			Y: uint16(i) % 480,
			P: uint8(i & 1),
			T: uint64(i * 3),
		}
		want = append(want, ev)
		enc.event(ev)
	}

	res, err := Decode(words(enc.ws...))
	if err != nil {
		t.Fatalf("could not decode: %+v", err)
	}
	if diff := cmp.Diff(want, cdEvents(res)); diff != "" {
		t.Fatalf("round trip mismatch: (-want +got)\n%s", diff)
	}
}

func TestRoundTripVector(t *testing.T) {
	var (
		enc  = newWordEncoder()
		want []cdEvent
	)
	rows := []struct {
		y  uint16
		t  uint64
		p  uint8
		xs []uint16
	}{
		{y: 5, t: 1000, p: 0, xs: []uint16{10, 11, 12, 15, 21, 33, 34}},
		{y: 6, t: 1000, p: 1, xs: []uint16{100, 111}},
		{y: 6, t: 5000, p: 0, xs: []uint16{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
		{y: 7, t: 1 << 13, p: 1, xs: []uint16{2040, 2047}},
	}
	for _, row := range rows {
		for _, x := range row.xs {
			want = append(want, cdEvent{X: x, Y: row.y, P: row.p, T: row.t})
		}
		enc.row(row.y, row.t, row.p, row.xs)
	}

	res, err := Decode(words(enc.ws...))
	if err != nil {
		t.Fatalf("could not decode: %+v", err)
	}
	if diff := cmp.Diff(want, cdEvents(res)); diff != "" {
		t.Fatalf("round trip mismatch: (-want +got)\n%s", diff)
	}
}

func TestRoundTripTimeHighWrapBoundary(t *testing.T) {
	// one event right before the 2^24 us wrap, one right after.
	enc := newWordEncoder()
	enc.event(cdEvent{X: 1, Y: 1, P: 1, T: (1<<24 - 1)})

	// the encoder emits raw 12-bit TIME_HIGH payloads; past 2^24 us the
	// payload wraps to 0 and the decoder must extend it.
	enc.th = -1
	enc.ws = append(enc.ws, 0x8000)         // TIME_HIGH payload 0 after 0xFFF
	enc.ws = append(enc.ws, 0x6000)         // TIME_LOW 0
	enc.ws = append(enc.ws, 0x2000|1<<11|1) // ADDR_X x=1 p=1

	res, err := Decode(words(enc.ws...))
	if err != nil {
		t.Fatalf("could not decode: %+v", err)
	}

	want := []cdEvent{
		{X: 1, Y: 1, P: 1, T: 1<<24 - 1},
		{X: 1, Y: 1, P: 1, T: 1 << 24},
	}
	if diff := cmp.Diff(want, cdEvents(res)); diff != "" {
		t.Fatalf("wrap boundary mismatch: (-want +got)\n%s", diff)
	}
	if got, want := res.Stats.TimeHighLoops, uint32(1); got != want {
		t.Fatalf("invalid loops: got=%d, want=%d", got, want)
	}
}
