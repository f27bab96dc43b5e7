// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package evt3 decodes raw streams in the Prophesee EVT 3.0 format.
//
// EVT 3.0 is a 16-bit, stateful, vectorized encoding of change-detection
// (CD) events. Each little-endian 16-bit word either updates decoder state
// (current y, vector base x, time high/low) or emits one or many CD events
// reconstructed from that state. Decoded events are accumulated in columnar
// buffers (one contiguous array per field) so downstream consumers can read
// each column without copying.
package evt3 // import "github.com/go-evc/ecam/evt3"

// EVT 3.0 raw event types, stored in the 4 most significant bits of
// each 16-bit word. The low 12 bits are the payload.
const (
	evtAddrY     = 0x0 // 11-bit y + origin flag
	evtAddrX     = 0x2 // 11-bit x + polarity: one CD event
	evtVectBaseX = 0x3 // 11-bit base x + polarity for subsequent vectors
	evtVect12    = 0x4 // 12-bit validity mask
	evtVect8     = 0x5 // 8-bit validity mask
	evtTimeLow   = 0x6 // 12 lower bits of the timestamp (1 us unit)
	evtTimeHigh  = 0x8 // 12 upper bits of the timestamp (4096 us unit)
	evtExtTrig   = 0xA // external trigger: 4-bit channel id + 1-bit edge
)

const (
	// Default sensor geometry (Gen4) used when neither the stream header
	// nor the caller provides one.
	DefaultWidth  = 1280
	DefaultHeight = 720
)

func evtType(w uint16) uint8   { return uint8(w >> 12) }
func payload(w uint16) uint16  { return w & 0x0fff }
func coord(w uint16) uint16    { return w & 0x07ff }         // bits 10:0
func polarity(w uint16) uint8  { return uint8(w>>11) & 1 }   // bit 11
func trigID(w uint16) uint8    { return uint8(w>>8) & 0x0f } // bits 11:8
func trigValue(w uint16) uint8 { return uint8(w) & 1 }       // bit 0

// Result holds the outcome of decoding one EVT 3.0 stream: the sensor
// geometry, the header metadata lines, the decoded events in columnar
// layout and the decoding diagnostics.
//
// When a decode aborts with an error, the Result holds everything decoded
// up to the offending word.
type Result struct {
	Width  int // sensor width, in pixels
	Height int // sensor height, in pixels

	Meta []string // raw '%' header lines, in stream order

	CD   CD       // change-detection events
	Trig Triggers // external trigger events

	Stats Stats
}

// Stats surfaces the soft anomalies counted during a decode session.
// None of these abort the decoding; they let downstream tools validate
// a recording after the fact.
type Stats struct {
	TimeHighLoops  uint32 // detected 2^24 us TIME_HIGH wraparounds
	DroppedBeforeY uint64 // CD events discarded before the first ADDR_Y/TIME_HIGH
	UnknownEvents  uint64 // unknown raw event types encountered
	OutOfOrder     uint64 // events emitted with a decreasing timestamp
}
