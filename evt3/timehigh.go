// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evt3

// loopThreshold is the minimal backward jump of the 12-bit TIME_HIGH
// payload interpreted as a wraparound past 2^24 us. Smaller decreases are
// taken at face value.
const loopThreshold = 1 << 11

// nextTimeHigh folds a new 12-bit TIME_HIGH payload into the accumulated
// high-time counter. last is the previous raw payload (negative before the
// first TIME_HIGH word) and loops the number of wraparounds detected so
// far. The returned high-time is in units of 4096 us.
//
// The reconstruction depends only on the payload history, never on the
// event words interleaved with it.
func nextTimeHigh(last int32, loops uint32, p uint16) (high, nloops uint32) {
	if last < 0 {
		return uint32(p), loops
	}
	if int32(p) < last && last-int32(p) >= loopThreshold {
		loops++
	}
	return loops<<12 | uint32(p), loops
}
