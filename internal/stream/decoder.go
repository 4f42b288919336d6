// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// =============================================================================
// CHUNK DECODER
// =============================================================================

// Decoder turns raw fragments into text. A multi-byte sequence split across
// fragments is held back and completed by the next fragment; it is never
// dropped or replaced while more input may follow.
type Decoder struct {
	t       transform.Transformer
	pending []byte
	scratch []byte
}

// LookupCharset resolves a charset label such as "utf-8" or "windows-1252".
func LookupCharset(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", name, err)
	}
	return enc, nil
}

// NewDecoder creates a decoder for enc.
func NewDecoder(enc encoding.Encoding) *Decoder {
	return &Decoder{
		t:       enc.NewDecoder(),
		scratch: make([]byte, 4096),
	}
}

// Decode converts a fragment, prefixed with any bytes held back from the
// previous call.
func (d *Decoder) Decode(p []byte) string {
	src := p
	if len(d.pending) > 0 {
		src = append(d.pending, p...)
		d.pending = nil
	}
	return d.transform(src, false)
}

// Flush decodes whatever is still held back. Incomplete sequences become
// U+FFFD because no more input will arrive.
func (d *Decoder) Flush() string {
	src := d.pending
	d.pending = nil
	if len(src) == 0 {
		return ""
	}
	return d.transform(src, true)
}

// Pending returns the number of bytes held back for the next fragment.
func (d *Decoder) Pending() int {
	return len(d.pending)
}

// Reset clears held-back bytes and transformer state.
func (d *Decoder) Reset() {
	d.pending = nil
	d.t.Reset()
}

func (d *Decoder) transform(src []byte, atEOF bool) string {
	var out strings.Builder
	for {
		nDst, nSrc, err := d.t.Transform(d.scratch, src, atEOF)
		out.Write(d.scratch[:nDst])
		src = src[nSrc:]

		switch {
		case err == nil:
			if len(src) > 0 {
				d.pending = append(d.pending, src...)
			}
			return out.String()
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				d.scratch = make([]byte, 2*len(d.scratch))
			}
		case errors.Is(err, transform.ErrShortSrc):
			d.pending = append(d.pending, src...)
			return out.String()
		default:
			// Unreadable byte: substitute and move on.
			out.WriteRune(utf8.RuneError)
			if len(src) == 0 {
				return out.String()
			}
			src = src[1:]
		}
	}
}
