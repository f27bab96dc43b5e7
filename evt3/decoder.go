// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evt3

import (
	"bufio"
	"bytes"
	"io"
	"math/bits"

	"github.com/go-evc/ecam/internal/mmap"
	"golang.org/x/xerrors"
)

// chunkSize is the read granularity, in bytes, used when decoding from a
// streaming source.
const chunkSize = 64 * 1024

// Option configures a Decoder.
type Option func(*Decoder)

// WithGeometry sets the sensor dimensions, overriding both the built-in
// default and any geometry declared by the stream header.
func WithGeometry(w, h int) Option {
	return func(dec *Decoder) {
		dec.width = w
		dec.height = h
		dec.geomSet = true
	}
}

// WithCapacity pre-allocates the CD buffers for n events.
func WithCapacity(n int) Option {
	return func(dec *Decoder) { dec.hint = n }
}

// Decoder reads and decodes an EVT 3.0 stream from an underlying data
// source. A Decoder holds the whole decoding state for one session;
// independent streams need independent Decoders.
type Decoder struct {
	br  *bufio.Reader
	buf []byte

	width   int
	height  int
	geomSet bool
	hint    int

	curY   uint16 // most recent ADDR_Y coordinate
	baseX  uint16 // vector base x
	vecPol uint8  // polarity attached to the vector base
	tlow   uint16 // last 12-bit TIME_LOW payload
	thigh  uint32 // accumulated high-time counter, in 4096 us units
	loops  uint32 // detected TIME_HIGH wraparounds
	lastTH int32  // last raw TIME_HIGH payload, -1 before the first
	haveY  bool
	haveTH bool

	widx     uint64 // index of the next binary word
	lastCD   uint64 // timestamp of the last emitted CD event
	lastTrig uint64 // timestamp of the last emitted trigger
}

// NewDecoder creates a decoder that reads from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	dec := &Decoder{
		br:     bufio.NewReaderSize(r, chunkSize),
		buf:    make([]byte, chunkSize),
		lastTH: -1,
	}
	for _, opt := range opts {
		opt(dec)
	}
	return dec
}

// Decode runs the decoder to the end of the stream or to the first fatal
// error, filling res as it goes. On error, res holds everything decoded
// up to the offending word.
func (dec *Decoder) Decode(res *Result) error {
	res.Width, res.Height = DefaultWidth, DefaultHeight

	err := dec.scanHeader(res)
	if err != nil {
		return err
	}
	if dec.geomSet {
		res.Width, res.Height = dec.width, dec.height
	}
	if dec.hint > 0 {
		res.CD.Grow(dec.hint)
	}

	for {
		n, err := io.ReadFull(dec.br, dec.buf)
		if derr := dec.process(res, dec.buf[:n&^1]); derr != nil {
			return derr
		}
		switch {
		case err == nil:
		case xerrors.Is(err, io.EOF), xerrors.Is(err, io.ErrUnexpectedEOF):
			if n&1 != 0 {
				return ErrTruncated
			}
			return nil
		default:
			return xerrors.Errorf("evt3: could not read stream: %w", err)
		}
	}
}

// process dispatches the little-endian 16-bit words of p. len(p) must be
// even.
func (dec *Decoder) process(res *Result, p []byte) error {
	for i := 0; i < len(p); i += 2 {
		w := uint16(p[i]) | uint16(p[i+1])<<8
		switch evtType(w) {
		case evtAddrY:
			dec.curY = coord(w)
			dec.haveY = true

		case evtAddrX:
			dec.cd(res, coord(w), polarity(w))

		case evtVectBaseX:
			dec.baseX = coord(w)
			dec.vecPol = polarity(w)

		case evtVect12:
			dec.vector(res, payload(w), 12)

		case evtVect8:
			dec.vector(res, uint16(uint8(w)), 8)

		case evtTimeLow:
			dec.tlow = payload(w)

		case evtTimeHigh:
			th := payload(w)
			dec.thigh, dec.loops = nextTimeHigh(dec.lastTH, dec.loops, th)
			dec.lastTH = int32(th)
			dec.haveTH = true
			res.Stats.TimeHighLoops = dec.loops

		case evtExtTrig:
			dec.trigger(res, w)

		default:
			res.Stats.UnknownEvents++
			return &UnknownEventError{Type: evtType(w), Word: dec.widx}
		}
		dec.widx++
	}
	return nil
}

// now reconstructs the current timestamp, in microseconds.
func (dec *Decoder) now() uint64 {
	return uint64(dec.thigh)<<12 | uint64(dec.tlow)
}

// cd emits one CD event, unless the decoder state is not primed yet.
func (dec *Decoder) cd(res *Result, x uint16, pol uint8) {
	if !dec.haveY || !dec.haveTH {
		res.Stats.DroppedBeforeY++
		return
	}
	t := dec.now()
	if t < dec.lastCD {
		res.Stats.OutOfOrder++
	}
	dec.lastCD = t
	res.CD.append(x, dec.curY, pol, t)
}

// vector expands a VECT_12 or VECT_8 validity mask into CD events at
// consecutive x coordinates starting at the vector base, then advances
// the base by the vector width so consecutive vector words continue
// where the previous one left off.
func (dec *Decoder) vector(res *Result, mask uint16, n int) {
	switch {
	case mask == 0:
		// no emission, the base still advances.

	case !dec.haveY || !dec.haveTH:
		res.Stats.DroppedBeforeY += uint64(bits.OnesCount16(mask))

	default:
		t := dec.now()
		ooo := t < dec.lastCD
		dec.lastCD = t
		for k := 0; k < n; k++ {
			if mask>>uint(k)&1 == 0 {
				continue
			}
			x := dec.baseX + uint16(k)
			if x >= 1<<11 {
				// excess bits past the 11-bit x range are skipped.
				break
			}
			if ooo {
				res.Stats.OutOfOrder++
			}
			res.CD.append(x, dec.curY, dec.vecPol, t)
		}
	}
	dec.baseX += uint16(n)
}

// trigger emits one external trigger event, once the time base is known.
func (dec *Decoder) trigger(res *Result, w uint16) {
	if !dec.haveTH {
		return
	}
	t := dec.now()
	if t < dec.lastTrig {
		res.Stats.OutOfOrder++
	}
	dec.lastTrig = t
	res.Trig.append(t, trigID(w), trigValue(w))
}

// Decode decodes a complete in-memory EVT 3.0 byte buffer.
func Decode(p []byte, opts ...Option) (*Result, error) {
	return DecodeStream(bytes.NewReader(p), opts...)
}

// DecodeStream decodes an EVT 3.0 stream from r until EOF.
func DecodeStream(r io.Reader, opts ...Option) (*Result, error) {
	var (
		dec = NewDecoder(r, opts...)
		res = new(Result)
	)
	err := dec.Decode(res)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DecodeFile decodes the EVT 3.0 file at path. The file is memory-mapped
// for the duration of the decode.
func DecodeFile(path string, opts ...Option) (*Result, error) {
	h, err := mmap.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("evt3: could not map %q: %w", path, err)
	}
	defer h.Close()

	return Decode(h.Bytes(), opts...)
}
