package core

// streaming.go turns uploaded bytes into clean UTF-8 for the CSV parser.
//
// Spreadsheet tools emit delimited text in a few encodings:
//
//   - UTF-8 with a BOM (Excel "CSV UTF-8")
//   - UTF-16 with a BOM (Excel "Unicode Text")
//   - UTF-8 with stray invalid bytes (legacy code pages)
//
// DecodeForParsing detects the first two from the leading bytes and
// sanitizes the last on the fly, replacing invalid bytes with '?'.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeForParsing wraps r so that reads return UTF-8 without a BOM.
func DecodeForParsing(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, _ := br.Peek(3)

	switch {
	case len(head) >= 2 && ((head[0] == 0xFF && head[1] == 0xFE) || (head[0] == 0xFE && head[1] == 0xFF)):
		// UseBOM consumes the BOM and picks the byte order from it.
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, dec)
	case bytes.HasPrefix(head, utf8BOM):
		_, _ = br.Discard(len(utf8BOM))
	}
	return NewUTF8Sanitizer(br)
}

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?' while streaming.
// A multi-byte sequence split across two reads is held back until the next
// read completes it.
type UTF8Sanitizer struct {
	reader  io.Reader
	pending []byte
}

// NewUTF8Sanitizer returns a sanitizer reading from r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{reader: r, pending: make([]byte, 0, utf8.UTFMax)}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for {
		n := copy(p, s.pending)
		s.pending = s.pending[:0]

		m, err := s.reader.Read(p[n:])
		n += m
		if n == 0 {
			return 0, err
		}
		// Never report an empty read while only a partial rune is pending.
		if out := s.sanitize(p[:n], err == io.EOF); out > 0 || err != nil || m == 0 || len(p) < utf8.UTFMax {
			return out, err
		}
	}
}

// sanitize rewrites data in place and returns the number of bytes to hand
// out. Unless atEOF, a trailing incomplete rune is moved to pending.
func (s *UTF8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if data[read] < utf8.RuneSelf {
			data[write] = data[read]
			write++
			read++
			continue
		}
		if !atEOF && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}
