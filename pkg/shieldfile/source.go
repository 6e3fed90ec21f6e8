package shieldfile

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alec-rabold/shieldspy/pkg/aws"
	"github.com/alec-rabold/shieldspy/pkg/reader"
)

// ErrNoSource indicates a Source that names neither a local path nor an S3 object.
var ErrNoSource = errors.New("shieldfile: no archive path or S3 bucket/key given")

// Source says where an archive lives: a local file, or an S3 object.
type Source struct {
	Path string

	Bucket string
	Key    string

	// BlockSize is the size of each ranged S3 request; zero selects aws.DefaultBlockSize.
	BlockSize int64
}

// IsS3 reports whether the archive is read from S3.
func (s Source) IsS3() bool { return s.Path == "" && s.Bucket != "" && s.Key != "" }

func (s Source) String() string {
	if s.IsS3() {
		return fmt.Sprintf("s3://%s/%s", s.Bucket, s.Key)
	}
	return s.Path
}

// Validate checks that the source is complete.
func (s Source) Validate() error {
	if s.Path == "" && (s.Bucket == "" || s.Key == "") {
		return ErrNoSource
	}
	if s.Path != "" && (s.Bucket != "" || s.Key != "") {
		return fmt.Errorf("shieldfile: both a path and an S3 object given (%s, s3://%s/%s)", s.Path, s.Bucket, s.Key)
	}
	return nil
}

// open parses the archive through a fresh handle. The returned Closer
// releases the handle; it is never nil when err is nil.
func (s Source) open(ctx context.Context, client *aws.Client) (*reader.Reader, io.Closer, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}
	if s.IsS3() {
		o, err := client.NewObjectReader(ctx, s.Bucket, s.Key, s.BlockSize)
		if err != nil {
			return nil, nil, err
		}
		z, err := reader.NewReader(o)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", s, err)
		}
		return z, nopCloser{}, nil
	}

	rc, err := reader.Open(s.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", s, err)
	}
	return &rc.Reader, rc, nil
}

// nopCloser stands in for S3 handles, which hold no open resources.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }
