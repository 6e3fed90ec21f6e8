package aws

import (
	"context"
	"errors"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	log "github.com/sirupsen/logrus"
)

// ErrNoContentLength indicates a head request that did not report the object size.
var ErrNoContentLength = errors.New("aws: object has no content length")

// Client is an abstraction layer for interacting with AWS services.
type Client struct {
	s3 s3iface.S3API
}

// NewClient creates a new AWS client, expecting that the environment variables
// and shared config files configure the settings. A non-empty region overrides them.
func NewClient(region string) (*Client, error) {
	cfg := awssdk.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("aws: creating session: %w", err)
	}
	return NewClientWithAPI(s3.New(sess)), nil
}

// NewClientWithAPI wraps an existing S3 API implementation.
func NewClientWithAPI(api s3iface.S3API) *Client {
	return &Client{s3: api}
}

// HeadObject returns the metadata of an S3 object.
func (c *Client) HeadObject(ctx context.Context, bucket, key string) (*s3.HeadObjectOutput, error) {
	output, err := c.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		log.Debugf("error getting S3 head object (bucket: %s)(key: %s), err: %v", bucket, key, err)
		return nil, err
	}
	return output, nil
}

// GetObjectWithRange fetches a byte range ("bytes=first-last") of an S3 object.
func (c *Client) GetObjectWithRange(ctx context.Context, bucket, key, byteRange string) (*s3.GetObjectOutput, error) {
	output, err := c.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Range:  &byteRange,
	})
	if err != nil {
		log.Debugf("error getting S3 object (bucket: %s)(key: %s)(range: %s), err: %v", bucket, key, byteRange, err)
		return nil, err
	}
	return output, nil
}
