package reader

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCursor(t *testing.T, b []byte) *cursor {
	t.Helper()
	c, err := newCursor(bytes.NewReader(b))
	require.NoError(t, err)
	return c
}

func TestCursorFixedWidth(t *testing.T) {
	c := newTestCursor(t, []byte{0x7f, 0x34, 0x12, 0x78, 0x56, 0x34, 0x12})

	v8, err := c.uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x7f), v8)

	v16, err := c.uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), v16)

	v32, err := c.uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v32)
	assert.Equal(t, int64(7), c.offset())

	_, err = c.uint8()
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestCursorStrings(t *testing.T) {
	c := newTestCursor(t, []byte{
		3, 'a', 'b', 'c',
		4, 0, 'D', 'O', 'C', 'S',
		0,
		0, 0,
	})

	s, err := c.string8()
	require.NoError(t, err)
	assert.Equal(t, "abc", s)

	s, err = c.string16()
	require.NoError(t, err)
	assert.Equal(t, "DOCS", s)

	s, err = c.string8()
	require.NoError(t, err)
	assert.Equal(t, "", s)

	s, err = c.string16()
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestCursorShortString(t *testing.T) {
	c := newTestCursor(t, []byte{5, 'a', 'b'})
	_, err := c.string8()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncated))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	var oe *OffsetError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, int64(1), oe.Offset)
}

func TestCursorPartialRead(t *testing.T) {
	c := newTestCursor(t, []byte{1, 2, 3})
	_, err := c.uint32()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncated))

	var oe *OffsetError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, int64(0), oe.Offset)
	assert.Equal(t, "read uint32", oe.Op)
}

func TestCursorSkip(t *testing.T) {
	c := newTestCursor(t, make([]byte, 10))

	require.NoError(t, c.skip(0))
	require.NoError(t, c.skip(4))
	assert.Equal(t, int64(4), c.offset())

	err := c.skip(-1)
	assert.True(t, errors.Is(err, ErrNegativeSkip))
	assert.True(t, errors.Is(err, ErrFormat))
	assert.Equal(t, int64(4), c.offset())

	err = c.skip(7)
	assert.True(t, errors.Is(err, ErrTruncated))
	assert.Equal(t, int64(4), c.offset())

	require.NoError(t, c.skip(6))
	assert.Equal(t, int64(10), c.offset())
}

func TestCursorSkipChunk(t *testing.T) {
	c := newTestCursor(t, make([]byte, 10))

	require.NoError(t, c.skipChunk(8, 6))
	assert.Equal(t, int64(2), c.offset())

	// 3 - 6 must not wrap around to a huge unsigned count.
	err := c.skipChunk(3, 6)
	assert.True(t, errors.Is(err, ErrNegativeSkip))
}

func TestCursorSeek(t *testing.T) {
	c := newTestCursor(t, []byte{0, 1, 2, 3})

	require.NoError(t, c.seek(2))
	v, err := c.uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(2), v)

	require.NoError(t, c.seek(4))
	assert.True(t, errors.Is(c.seek(5), ErrTruncated))
	assert.Error(t, c.seek(-1))
}

func TestCursorBytesLength(t *testing.T) {
	c := newTestCursor(t, []byte{1, 2, 3, 4})
	require.NoError(t, c.skip(1))

	_, err := c.bytes(-1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormat))
	assert.False(t, errors.Is(err, ErrTruncated))

	// Sizes past 2^31 must be rejected without allocating.
	_, err = c.bytes(math.MaxUint32)
	assert.True(t, errors.Is(err, ErrTruncated))
	_, err = c.bytes(math.MaxInt64)
	assert.True(t, errors.Is(err, ErrTruncated))
	assert.Equal(t, int64(1), c.offset())

	b, err := c.bytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3, 4}, b)
}
