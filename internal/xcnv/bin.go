// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-evc/ecam/evt3"
)

// EVT3BIN: 8-byte magic, then a 24-byte little-endian header
// {u32 version, u16 width, u16 height, u64 count, u64 reserved},
// then one 14-byte record {u16 x, u16 y, u8 p, u8 pad, u64 t} per event.
var binMagic = [8]byte{'E', 'V', 'T', '3', 'B', 'I', 'N', 0}

const (
	binVersion = 1
	binHdrLen  = 24
	binEvtLen  = 14
)

// WriteBin writes the CD events of res to w in the EVT3BIN format.
func WriteBin(w io.Writer, res *evt3.Result) error {
	enc := &encoder{w: w, buf: make([]byte, binHdrLen)}

	enc.write(binMagic[:])
	enc.writeU32(binVersion)
	enc.writeU16(uint16(res.Width))
	enc.writeU16(uint16(res.Height))
	enc.writeU64(uint64(res.CD.Len()))
	enc.writeU64(0) // reserved
	if enc.err != nil {
		return fmt.Errorf("xcnv: could not write EVT3BIN header: %w", enc.err)
	}

	cd := &res.CD
	for i := 0; i < cd.Len(); i++ {
		enc.writeU16(cd.X[i])
		enc.writeU16(cd.Y[i])
		enc.writeU8(cd.P[i])
		enc.writeU8(0) // pad
		enc.writeU64(cd.T[i])
		if enc.err != nil {
			return fmt.Errorf("xcnv: could not write EVT3BIN event %d: %w", i, enc.err)
		}
	}

	return enc.err
}

type encoder struct {
	w   io.Writer
	buf []byte
	err error
}

func (enc *encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.Write(p)
}

func (enc *encoder) writeU8(v uint8) {
	enc.buf[0] = v
	enc.write(enc.buf[:1])
}

func (enc *encoder) writeU16(v uint16) {
	binary.LittleEndian.PutUint16(enc.buf[:2], v)
	enc.write(enc.buf[:2])
}

func (enc *encoder) writeU32(v uint32) {
	binary.LittleEndian.PutUint32(enc.buf[:4], v)
	enc.write(enc.buf[:4])
}

func (enc *encoder) writeU64(v uint64) {
	binary.LittleEndian.PutUint64(enc.buf[:8], v)
	enc.write(enc.buf[:8])
}

// ReadBin reads an EVT3BIN stream back into a Result with the CD columns
// and sensor geometry populated.
func ReadBin(r io.Reader) (*evt3.Result, error) {
	var magic [8]byte
	_, err := io.ReadFull(r, magic[:])
	if err != nil {
		return nil, fmt.Errorf("xcnv: could not read EVT3BIN magic: %w", err)
	}
	if !bytes.Equal(magic[:], binMagic[:]) {
		return nil, fmt.Errorf("xcnv: invalid EVT3BIN magic %q", magic)
	}

	hdr := make([]byte, binHdrLen)
	_, err = io.ReadFull(r, hdr)
	if err != nil {
		return nil, fmt.Errorf("xcnv: could not read EVT3BIN header: %w", err)
	}

	version := binary.LittleEndian.Uint32(hdr[0:4])
	if version != binVersion {
		return nil, fmt.Errorf("xcnv: unknown EVT3BIN version %d", version)
	}

	res := &evt3.Result{
		Width:  int(binary.LittleEndian.Uint16(hdr[4:6])),
		Height: int(binary.LittleEndian.Uint16(hdr[6:8])),
	}
	count := binary.LittleEndian.Uint64(hdr[8:16])

	res.CD.Grow(int(count))
	evt := make([]byte, binEvtLen)
	for i := uint64(0); i < count; i++ {
		_, err = io.ReadFull(r, evt)
		if err != nil {
			return nil, fmt.Errorf("xcnv: could not read EVT3BIN event %d: %w", i, err)
		}
		res.CD.X = append(res.CD.X, binary.LittleEndian.Uint16(evt[0:2]))
		res.CD.Y = append(res.CD.Y, binary.LittleEndian.Uint16(evt[2:4]))
		res.CD.P = append(res.CD.P, evt[4])
		res.CD.T = append(res.CD.T, binary.LittleEndian.Uint64(evt[6:14]))
	}

	return res, nil
}
