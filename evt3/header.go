// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evt3

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// scanHeader consumes the leading '%' text lines of the stream, if any,
// and leaves the reader positioned at the first binary byte. Recognized
// keys seed the sensor geometry and validate the declared format; all
// other lines are kept verbatim as metadata.
//
// Recorders emit two flavours of header lines:
//
//	% format EVT3;width=1280;height=720
//	% geometry 1280x720
//
// and post-processing tools a colon-separated one:
//
//	%geometry:1280,720
//	%format:EVT3
//
// Both are accepted. A "% end" line terminates the header early.
func (dec *Decoder) scanHeader(res *Result) error {
	for {
		p, err := dec.br.Peek(1)
		if err != nil {
			if xerrors.Is(err, io.EOF) {
				return nil
			}
			return xerrors.Errorf("evt3: could not peek stream header: %w", err)
		}
		if p[0] != '%' {
			return nil
		}

		line, err := dec.br.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			res.Meta = append(res.Meta, line)
			stop, herr := dec.headerLine(res, line)
			if herr != nil {
				return herr
			}
			if stop {
				return nil
			}
		}
		if err != nil {
			if xerrors.Is(err, io.EOF) {
				return nil
			}
			return xerrors.Errorf("evt3: could not read stream header: %w", err)
		}
	}
}

func (dec *Decoder) headerLine(res *Result, line string) (stop bool, err error) {
	s := strings.TrimSpace(strings.TrimPrefix(line, "%"))
	switch {
	case s == "end":
		return true, nil

	case strings.HasPrefix(s, "geometry"):
		v := headerValue(s, "geometry")
		if w, h, ok := parseDims(v); ok && !dec.geomSet {
			res.Width = w
			res.Height = h
		}

	case strings.HasPrefix(s, "format"):
		v := headerValue(s, "format")
		if !strings.HasPrefix(v, "EVT3") {
			return false, &FormatError{Format: v}
		}
		for _, kv := range strings.Split(v, ";")[1:] {
			name, val, ok := strings.Cut(kv, "=")
			if !ok || dec.geomSet {
				continue
			}
			switch name {
			case "width":
				if w, err := strconv.Atoi(val); err == nil {
					res.Width = w
				}
			case "height":
				if h, err := strconv.Atoi(val); err == nil {
					res.Height = h
				}
			}
		}
	}
	return false, nil
}

// headerValue strips the key and its ':' or blank separator from a
// trimmed header line.
func headerValue(s, key string) string {
	v := strings.TrimSpace(strings.TrimPrefix(s, key))
	return strings.TrimSpace(strings.TrimPrefix(v, ":"))
}

// parseDims parses "WxH" or "W,H" sensor dimensions.
func parseDims(v string) (w, h int, ok bool) {
	sep := ","
	if !strings.Contains(v, sep) {
		sep = "x"
	}
	ws, hs, ok := strings.Cut(v, sep)
	if !ok {
		return 0, 0, false
	}
	w, errw := strconv.Atoi(strings.TrimSpace(ws))
	h, errh := strconv.Atoi(strings.TrimSpace(hs))
	if errw != nil || errh != nil {
		return 0, 0, false
	}
	return w, h, true
}
