// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evt3

// bufCap is the initial capacity, in events, of the columnar buffers.
// Growth doubles from there, so a decode session performs O(log n)
// reallocations for n events.
const bufCap = 64 * 1024

// CD holds decoded change-detection events in columnar layout: the i-th
// event is (X[i], Y[i], P[i], T[i]). The four columns always have the
// same length and each one is a single contiguous array.
type CD struct {
	X []uint16 // x coordinate, 11 bits
	Y []uint16 // y coordinate, 11 bits
	P []uint8  // polarity: 0=OFF, 1=ON
	T []uint64 // timestamp, in microseconds
}

// Len returns the number of decoded CD events.
func (cd *CD) Len() int { return len(cd.X) }

// Grow ensures room for n more events without reallocation.
func (cd *CD) Grow(n int) {
	need := len(cd.X) + n
	if need <= cap(cd.X) {
		return
	}
	c := cap(cd.X)
	if c == 0 {
		c = bufCap
	}
	for c < need {
		c *= 2
	}
	cd.X = regrowU16(cd.X, c)
	cd.Y = regrowU16(cd.Y, c)
	cd.P = regrowU8(cd.P, c)
	cd.T = regrowU64(cd.T, c)
}

func (cd *CD) append(x, y uint16, p uint8, t uint64) {
	cd.Grow(1)
	cd.X = append(cd.X, x)
	cd.Y = append(cd.Y, y)
	cd.P = append(cd.P, p)
	cd.T = append(cd.T, t)
}

// Triggers holds decoded external trigger events in columnar layout:
// the i-th trigger is (T[i], ID[i], V[i]).
type Triggers struct {
	T  []uint64 // timestamp, in microseconds
	ID []uint8  // trigger channel id, 0..15
	V  []uint8  // edge: 0=falling, 1=rising
}

// Len returns the number of decoded trigger events.
func (tr *Triggers) Len() int { return len(tr.T) }

func (tr *Triggers) grow(n int) {
	need := len(tr.T) + n
	if need <= cap(tr.T) {
		return
	}
	c := cap(tr.T)
	if c == 0 {
		c = bufCap
	}
	for c < need {
		c *= 2
	}
	tr.T = regrowU64(tr.T, c)
	tr.ID = regrowU8(tr.ID, c)
	tr.V = regrowU8(tr.V, c)
}

func (tr *Triggers) append(t uint64, id, v uint8) {
	tr.grow(1)
	tr.T = append(tr.T, t)
	tr.ID = append(tr.ID, id)
	tr.V = append(tr.V, v)
}

func regrowU8(p []uint8, c int) []uint8 {
	q := make([]uint8, len(p), c)
	copy(q, p)
	return q
}

func regrowU16(p []uint16, c int) []uint16 {
	q := make([]uint16, len(p), c)
	copy(q, p)
	return q
}

func regrowU64(p []uint64, c int) []uint64 {
	q := make([]uint64, len(p), c)
	copy(q, p)
	return q
}
