package reader

import (
	"encoding/binary"
	"fmt"
	"io"
)

// cursor reads little-endian fields sequentially from a seekable stream of
// known size. Every failure is reported as an *OffsetError.
type cursor struct {
	r    io.ReadSeeker
	pos  int64
	size int64
	buf  [4]byte
}

func newCursor(r io.ReadSeeker) (*cursor, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, &OffsetError{Op: "seek", Offset: 0, Err: err}
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, &OffsetError{Op: "seek", Offset: 0, Err: err}
	}
	return &cursor{r: r, size: size}, nil
}

func (c *cursor) offset() int64 { return c.pos }

func (c *cursor) fail(op string, at int64, err error) error {
	return &OffsetError{Op: op, Offset: at, Err: err}
}

// read fills b completely or fails with ErrTruncated.
func (c *cursor) read(op string, b []byte) error {
	at := c.pos
	n, err := io.ReadFull(c.r, b)
	c.pos += int64(n)
	switch err {
	case nil:
		return nil
	case io.EOF, io.ErrUnexpectedEOF:
		return c.fail(op, at, fmt.Errorf("%w: wanted %d bytes, got %d: %w", ErrTruncated, len(b), n, io.ErrUnexpectedEOF))
	default:
		return c.fail(op, at, err)
	}
}

func (c *cursor) uint8() (uint8, error) {
	if err := c.read("read uint8", c.buf[:1]); err != nil {
		return 0, err
	}
	return c.buf[0], nil
}

func (c *cursor) uint16() (uint16, error) {
	if err := c.read("read uint16", c.buf[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(c.buf[:2]), nil
}

func (c *cursor) uint32() (uint32, error) {
	if err := c.read("read uint32", c.buf[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(c.buf[:4]), nil
}

func (c *cursor) bytes(n int64) ([]byte, error) {
	if n < 0 {
		return nil, c.fail("read bytes", c.pos, fmt.Errorf("%w: negative length %d", ErrFormat, n))
	}
	if n > c.size-c.pos {
		return nil, c.fail("read bytes", c.pos, fmt.Errorf("%w: wanted %d bytes, %d left: %w", ErrTruncated, n, c.size-c.pos, io.ErrUnexpectedEOF))
	}
	b := make([]byte, n)
	if err := c.read("read bytes", b); err != nil {
		return nil, err
	}
	return b, nil
}

// string8 reads a string prefixed by a one byte length.
func (c *cursor) string8() (string, error) {
	n, err := c.uint8()
	if err != nil {
		return "", err
	}
	b, err := c.bytes(int64(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// string16 reads a string prefixed by a two byte length.
func (c *cursor) string16() (string, error) {
	n, err := c.uint16()
	if err != nil {
		return "", err
	}
	b, err := c.bytes(int64(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *cursor) skip(n int64) error {
	if n < 0 {
		return c.fail("skip", c.pos, fmt.Errorf("%w: %d bytes", ErrNegativeSkip, n))
	}
	if c.pos+n > c.size {
		return c.fail("skip", c.pos, fmt.Errorf("%w: skipping %d bytes with %d left: %w", ErrTruncated, n, c.size-c.pos, io.ErrUnexpectedEOF))
	}
	return c.seek(c.pos + n)
}

// skipChunk skips the remainder of a record of chunkSize bytes of which
// consumed bytes were already read.
func (c *cursor) skipChunk(chunkSize uint16, consumed int) error {
	return c.skip(int64(chunkSize) - int64(consumed))
}

func (c *cursor) seek(off int64) error {
	if off < 0 || off > c.size {
		return c.fail("seek", off, fmt.Errorf("%w: offset beyond stream size %d: %w", ErrTruncated, c.size, io.ErrUnexpectedEOF))
	}
	if _, err := c.r.Seek(off, io.SeekStart); err != nil {
		return c.fail("seek", off, err)
	}
	c.pos = off
	return nil
}
