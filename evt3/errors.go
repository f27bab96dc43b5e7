// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evt3

import (
	"fmt"

	"golang.org/x/xerrors"
)

// ErrTruncated is returned when the byte stream ends in the middle of a
// 16-bit word.
var ErrTruncated = xerrors.New("evt3: truncated stream")

// FormatError is returned when the stream header declares a format other
// than EVT 3.0.
type FormatError struct {
	Format string // the declared format
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("evt3: unsupported format %q", e.Format)
}

// UnknownEventError is returned when a word with a reserved or unknown
// raw event type is encountered.
type UnknownEventError struct {
	Type uint8  // raw event type, the 4 most significant bits of the word
	Word uint64 // index of the offending word in the binary stream
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("evt3: unknown raw event type 0x%x (word %d)", e.Type, e.Word)
}
