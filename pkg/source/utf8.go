package source

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Reader decodes UTF-8 code points from a Buffer. Decoding is lenient:
// continuation bytes that do not follow a lead byte are skipped, and
// truncated or out-of-range sequences decode to utf8.RuneError.
type Reader struct {
	*Buffer
}

// NewReader returns a Reader positioned after the optional byte order mark.
// A stream starting with 0xEF that is not followed by 0xBB 0xBF is rejected
// with ErrBadBOM.
func NewReader(b *Buffer) (*Reader, error) {
	if err := b.Err(); err != nil {
		return nil, err
	}

	start := b.Pos()
	if b.Read() == 0xEF {
		c1 := b.Read()
		c2 := b.Read()
		if c1 != 0xBB || c2 != 0xBF {
			return nil, fmt.Errorf("%w: EF %02X %02X", ErrBadBOM, c1&0xFF, c2&0xFF)
		}
	} else if err := b.SetPos(start); err != nil {
		return nil, err
	}
	return &Reader{Buffer: b}, nil
}

// Read consumes and returns the next code point, or EOF.
func (r *Reader) Read() rune {
	ch := r.Buffer.Read()
	// skip to the next ASCII byte or sequence start (0xxxxxxx or 11xxxxxx)
	for ch >= 0x80 && ch&0xC0 != 0xC0 {
		ch = r.Buffer.Read()
	}

	switch {
	case ch < 0x80: // ASCII or EOF
		return rune(ch)
	case ch&0xF8 == 0xF0:
		return r.decode(ch&0x07, 3)
	case ch&0xF0 == 0xE0:
		return r.decode(ch&0x0F, 2)
	case ch&0xE0 == 0xC0:
		return r.decode(ch&0x1F, 1)
	default:
		return utf8.RuneError
	}
}

// decode completes a multi-byte sequence whose lead byte carried the bits in
// c, reading n continuation bytes.
func (r *Reader) decode(c, n int) rune {
	for i := 0; i < n; i++ {
		pos := r.Pos()
		b := r.Buffer.Read()
		if b == EOF || b&0xC0 != 0x80 {
			// leave the offending byte for the next Read
			if b != EOF {
				if err := r.SetPos(pos); err != nil {
					r.fail(err)
				}
			}
			return utf8.RuneError
		}
		c = c<<6 | b&0x3F
	}
	if !utf8.ValidRune(rune(c)) {
		return utf8.RuneError
	}
	return rune(c)
}

// Peek returns the next code point without consuming it.
func (r *Reader) Peek() rune {
	cur := r.Pos()
	ch := r.Read()
	if err := r.SetPos(cur); err != nil {
		r.fail(err)
	}
	return ch
}

// Slice returns the decoded text between two byte offsets. The cursor is
// restored afterwards.
func (r *Reader) Slice(begin, end int) (string, error) {
	old := r.Pos()
	if err := r.SetPos(begin); err != nil {
		return "", err
	}

	var sb strings.Builder
	for r.Pos() < end {
		ch := r.Read()
		if ch == EOF {
			break
		}
		sb.WriteRune(ch)
	}

	if err := r.SetPos(old); err != nil {
		return "", err
	}
	return sb.String(), nil
}
