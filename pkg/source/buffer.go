// Package source provides a windowed, position-addressable view over query
// input. Seekable streams (files, in-memory readers) are paged through a
// fixed window; forward-only streams (pipes, sockets, decompressors) are
// buffered in full as they are read.
package source

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// EOF is returned by Read and Peek once the stream is exhausted.
const EOF = -1

const (
	minBufferLength = 1024
	maxBufferLength = minBufferLength * 64

	// maxEmptyReads bounds the number of consecutive (0, nil) reads tolerated
	// from a misbehaving io.Reader before the stream is treated as exhausted.
	maxEmptyReads = 100
)

var (
	// ErrOutOfBounds is returned when a position outside the stream is requested.
	ErrOutOfBounds = errors.New("buffer out of bounds access")

	// ErrBadBOM is returned when the stream starts with 0xEF but not with a
	// complete UTF-8 byte order mark.
	ErrBadBOM = errors.New("illegal byte order mark")
)

// Buffer is a byte-level cursor over an input stream.
type Buffer struct {
	buf      []byte
	bufStart int // stream offset of buf[0]
	bufLen   int // number of valid bytes in buf
	bufPos   int // cursor relative to bufStart
	fileLen  int // known stream length; grows for forward-only streams

	stream io.Reader
	seeker io.Seeker // nil for forward-only streams
	closer io.Closer // nil when the caller owns the stream
	eof    bool      // forward-only stream returned io.EOF
	err    error
}

// New wraps r. When owned is true the Buffer closes r (if it is an
// io.Closer) once it is no longer needed; otherwise r stays open and belongs
// to the caller.
//
// Readers that implement io.Seeker and report a length are paged through a
// window of at most 64 KiB. All other readers are consumed on demand.
func New(r io.Reader, owned bool) *Buffer {
	b := &Buffer{stream: r}
	if c, ok := r.(io.Closer); ok && owned {
		b.closer = c
	}

	if s, ok := r.(io.Seeker); ok {
		if n, err := s.Seek(0, io.SeekEnd); err == nil {
			b.seeker = s
			b.fileLen = int(n)
			if _, err := s.Seek(0, io.SeekStart); err != nil {
				b.fail(fmt.Errorf("rewinding input: %w", err))
			}
		}
	}

	if b.seeker != nil {
		b.bufLen = min(b.fileLen, maxBufferLength)
		b.bufStart = math.MaxInt // nothing buffered yet
	}
	size := b.bufLen
	if size == 0 {
		size = minBufferLength
	}
	b.buf = make([]byte, size)

	if b.fileLen > 0 {
		if err := b.SetPos(0); err != nil {
			b.fail(err)
			b.bufStart, b.bufLen, b.fileLen = 0, 0, 0
		}
	} else {
		b.bufStart = 0
		b.bufLen = 0
	}

	// The whole stream fits into the window: the handle is no longer needed.
	if b.seeker != nil && b.bufLen == b.fileLen && b.err == nil {
		b.release()
	}
	return b
}

// NewString returns a Buffer over an in-memory query string.
func NewString(s string) *Buffer {
	return New(strings.NewReader(s), false)
}

// Read consumes and returns the next byte, or EOF.
func (b *Buffer) Read() int {
	if b.bufPos < b.bufLen {
		c := b.buf[b.bufPos]
		b.bufPos++
		return int(c)
	}
	if b.Pos() < b.fileLen {
		// shift the window so that it starts at the current position
		if err := b.SetPos(b.Pos()); err != nil {
			b.fail(err)
			return EOF
		}
		if b.bufPos < b.bufLen {
			c := b.buf[b.bufPos]
			b.bufPos++
			return int(c)
		}
		return EOF
	}
	if b.stream != nil && b.seeker == nil && b.readNextChunk() > 0 {
		c := b.buf[b.bufPos]
		b.bufPos++
		return int(c)
	}
	return EOF
}

// Peek returns the next byte without consuming it.
func (b *Buffer) Peek() int {
	cur := b.Pos()
	c := b.Read()
	if err := b.SetPos(cur); err != nil {
		b.fail(err)
	}
	return c
}

// Pos returns the absolute offset of the cursor from the start of the stream.
func (b *Buffer) Pos() int {
	return b.bufPos + b.bufStart
}

// SetPos moves the cursor to an absolute offset. Offsets past the buffered
// data of a forward-only stream are reached by reading ahead; offsets outside
// [0, length] fail with ErrOutOfBounds.
func (b *Buffer) SetPos(pos int) error {
	if pos >= b.fileLen && b.stream != nil && b.seeker == nil {
		for pos >= b.fileLen && b.readNextChunk() > 0 {
		}
	}

	if pos < 0 || pos > b.fileLen {
		return fmt.Errorf("%w, position: %d", ErrOutOfBounds, pos)
	}

	switch {
	case pos >= b.bufStart && pos < b.bufStart+b.bufLen:
		b.bufPos = pos - b.bufStart
	case b.stream != nil && b.seeker != nil:
		if _, err := b.seeker.Seek(int64(pos), io.SeekStart); err != nil {
			return fmt.Errorf("seeking input: %w", err)
		}
		n, err := io.ReadFull(b.stream, b.buf)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("reading input: %w", err)
		}
		b.bufLen = n
		b.bufStart = pos
		b.bufPos = 0
	default:
		// end of a fully buffered stream
		b.bufPos = b.fileLen - b.bufStart
	}
	return nil
}

// Len returns the number of bytes known to be in the stream. For forward-only
// streams this grows as data is read.
func (b *Buffer) Len() int {
	return b.fileLen
}

// Err returns the first I/O or positioning error encountered while reading.
// Once Err is non-nil the stream is no longer read; only bytes already
// buffered remain available.
func (b *Buffer) Err() error {
	return b.err
}

// Close releases the underlying stream if the Buffer owns it. It is safe to
// call Close more than once.
func (b *Buffer) Close() error {
	return b.release()
}

func (b *Buffer) release() error {
	c := b.closer
	b.closer = nil
	b.stream = nil
	if c == nil {
		return nil
	}
	return c.Close()
}

func (b *Buffer) fail(err error) {
	if b.err == nil {
		b.err = err
	}
	b.stream = nil
}

// readNextChunk appends the next chunk of a forward-only stream to the
// buffer, doubling its capacity when full. It returns the number of bytes read.
func (b *Buffer) readNextChunk() int {
	if b.eof || b.stream == nil {
		return 0
	}
	if len(b.buf)-b.bufLen == 0 {
		grown := make([]byte, len(b.buf)*2)
		copy(grown, b.buf[:b.bufLen])
		b.buf = grown
	}

	for empty := 0; empty < maxEmptyReads; empty++ {
		n, err := b.stream.Read(b.buf[b.bufLen:])
		if n > 0 {
			b.bufLen += n
			b.fileLen = b.bufLen
		}
		if err != nil {
			b.eof = true
			if !errors.Is(err, io.EOF) {
				b.fail(fmt.Errorf("reading input: %w", err))
			}
		}
		if n > 0 || err != nil {
			return n
		}
	}
	b.eof = true
	return 0
}
