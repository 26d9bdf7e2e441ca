package storage

import (
	"context"
	"errors"
	"io"
	"os"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSOpener struct {
	client *gcs.Client
}

func NewGCSOpener(ctx context.Context, opts ...option.ClientOption) (*GCSOpener, error) {
	c, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSOpener{client: c}, nil
}

func (o *GCSOpener) Close() error { return o.client.Close() }

func (o *GCSOpener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, object, err := SplitGCSPath(path)
	if err != nil {
		return nil, err
	}
	r, err := o.client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
		// same shape as a missing local file so the loader reports it uniformly
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}
