// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evt3

import "testing"

func TestCDGrowth(t *testing.T) {
	var cd CD

	cd.append(1, 2, 1, 42)
	if got, want := cap(cd.X), bufCap; got != want {
		t.Fatalf("invalid initial capacity: got=%d, want=%d", got, want)
	}

	for i := 0; i < bufCap+10; i++ {
		cd.append(uint16(i), uint16(i), 0, uint64(i))
	}
	if got, want := cap(cd.X), 2*bufCap; got != want {
		t.Fatalf("invalid doubled capacity: got=%d, want=%d", got, want)
	}
	if got, want := cd.Len(), bufCap+11; got != want {
		t.Fatalf("invalid length: got=%d, want=%d", got, want)
	}

	if len(cd.X) != len(cd.Y) || len(cd.X) != len(cd.P) || len(cd.X) != len(cd.T) {
		t.Fatalf("columns out of sync: x=%d y=%d p=%d t=%d",
			len(cd.X), len(cd.Y), len(cd.P), len(cd.T),
		)
	}
	if cap(cd.X) != cap(cd.Y) || cap(cd.X) != cap(cd.P) || cap(cd.X) != cap(cd.T) {
		t.Fatalf("column capacities out of sync: x=%d y=%d p=%d t=%d",
			cap(cd.X), cap(cd.Y), cap(cd.P), cap(cd.T),
		)
	}

	// appended data survives the reallocations.
	if cd.X[0] != 1 || cd.Y[0] != 2 || cd.P[0] != 1 || cd.T[0] != 42 {
		t.Fatalf("invalid first event: x=%d y=%d p=%d t=%d",
			cd.X[0], cd.Y[0], cd.P[0], cd.T[0],
		)
	}
	last := cd.Len() - 1
	lastI := bufCap + 9
	if cd.X[last] != uint16(lastI) || cd.T[last] != uint64(lastI) {
		t.Fatalf("invalid last event: x=%d t=%d", cd.X[last], cd.T[last])
	}
}

func TestCDGrowHint(t *testing.T) {
	var cd CD
	cd.Grow(3 * bufCap)
	if got, want := cap(cd.X), 4*bufCap; got != want {
		t.Fatalf("invalid capacity: got=%d, want=%d", got, want)
	}
	if got, want := cd.Len(), 0; got != want {
		t.Fatalf("invalid length: got=%d, want=%d", got, want)
	}
}

func TestTriggersGrowth(t *testing.T) {
	var tr Triggers

	for i := 0; i < 100; i++ {
		tr.append(uint64(i), uint8(i&0xf), uint8(i&1))
	}
	if got, want := tr.Len(), 100; got != want {
		t.Fatalf("invalid length: got=%d, want=%d", got, want)
	}
	if got, want := cap(tr.T), bufCap; got != want {
		t.Fatalf("invalid capacity: got=%d, want=%d", got, want)
	}
	if len(tr.T) != len(tr.ID) || len(tr.T) != len(tr.V) {
		t.Fatalf("columns out of sync: t=%d id=%d v=%d",
			len(tr.T), len(tr.ID), len(tr.V),
		)
	}
	if tr.T[99] != 99 || tr.ID[99] != 99&0xf || tr.V[99] != 1 {
		t.Fatalf("invalid last trigger: t=%d id=%d v=%d", tr.T[99], tr.ID[99], tr.V[99])
	}
}
