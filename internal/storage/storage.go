package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Opener opens a dataset source for reading.
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// LocalOpener reads from the local filesystem.
type LocalOpener struct{}

func (LocalOpener) Open(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// SplitGCSPath parses "gs://bucket/object/name".
func SplitGCSPath(path string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(path, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// path: %q", path)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("malformed gs:// path: %q", path)
	}
	return bucket, object, nil
}

func IsGCSPath(path string) bool { return strings.HasPrefix(path, "gs://") }

// MuxOpener routes gs:// paths to GCS and everything else to Local.
type MuxOpener struct {
	Local Opener
	GCS   Opener
}

func (m MuxOpener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if IsGCSPath(path) {
		if m.GCS == nil {
			return nil, fmt.Errorf("no GCS client configured for %q", path)
		}
		return m.GCS.Open(ctx, path)
	}
	local := m.Local
	if local == nil {
		local = LocalOpener{}
	}
	return local.Open(ctx, path)
}
