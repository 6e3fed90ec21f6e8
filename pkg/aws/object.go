package aws

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// DefaultBlockSize is the number of bytes fetched per ranged request.
const DefaultBlockSize = 64 * 1024

// ObjectReader reads an S3 object through ranged GET requests. One block of
// BlockSize bytes is cached, so sequential small reads cost one request per
// block. It implements io.ReadSeeker and io.ReaderAt but is not safe for
// concurrent use.
type ObjectReader struct {
	client    *Client
	ctx       context.Context
	bucket    string
	key       string
	size      int64
	blockSize int64

	pos int64

	block      []byte
	blockStart int64
}

// NewObjectReader issues a head request for the object size and returns a
// reader positioned at the start of the object. A blockSize <= 0 selects
// DefaultBlockSize.
func (c *Client) NewObjectReader(ctx context.Context, bucket, key string, blockSize int64) (*ObjectReader, error) {
	head, err := c.HeadObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if head.ContentLength == nil {
		return nil, fmt.Errorf("%w (bucket: %s)(key: %s)", ErrNoContentLength, bucket, key)
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &ObjectReader{
		client:     c,
		ctx:        ctx,
		bucket:     bucket,
		key:        key,
		size:       *head.ContentLength,
		blockSize:  blockSize,
		blockStart: -1,
	}, nil
}

// Size returns the object size reported by S3.
func (o *ObjectReader) Size() int64 { return o.size }

// Read implements io.Reader.
func (o *ObjectReader) Read(p []byte) (int, error) {
	n, err := o.ReadAt(p, o.pos)
	o.pos += int64(n)
	return n, err
}

// Seek implements io.Seeker.
func (o *ObjectReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = o.pos + offset
	case io.SeekEnd:
		abs = o.size + offset
	default:
		return 0, errors.New("aws: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("aws: negative position")
	}
	o.pos = abs
	return abs, nil
}

// ReadAt implements io.ReaderAt.
func (o *ObjectReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("aws: negative offset")
	}
	n := 0
	for n < len(p) {
		at := off + int64(n)
		if at >= o.size {
			return n, io.EOF
		}
		if err := o.fill(at); err != nil {
			return n, err
		}
		n += copy(p[n:], o.block[at-o.blockStart:])
	}
	return n, nil
}

// fill makes sure the cached block contains offset at.
func (o *ObjectReader) fill(at int64) error {
	if o.blockStart >= 0 && at >= o.blockStart && at < o.blockStart+int64(len(o.block)) {
		return nil
	}
	start := at - at%o.blockSize
	end := start + o.blockSize
	if end > o.size {
		end = o.size
	}
	byteRange := fmt.Sprintf("bytes=%d-%d", start, end-1)
	log.WithFields(log.Fields{"bucket": o.bucket, "key": o.key, "range": byteRange}).Debug("aws: fetching block")

	output, err := o.client.GetObjectWithRange(o.ctx, o.bucket, o.key, byteRange)
	if err != nil {
		return err
	}
	defer output.Body.Close()

	block := make([]byte, end-start)
	if _, err := io.ReadFull(output.Body, block); err != nil {
		return fmt.Errorf("aws: reading range %s of s3://%s/%s: %w", byteRange, o.bucket, o.key, err)
	}
	o.block = block
	o.blockStart = start
	return nil
}
