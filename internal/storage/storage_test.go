package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitGCSPath(t *testing.T) {
	b, o, err := SplitGCSPath("gs://slife-data/datasets/imoveis.csv")
	require.NoError(t, err)
	assert.Equal(t, "slife-data", b)
	assert.Equal(t, "datasets/imoveis.csv", o)

	for _, bad := range []string{"data/x.csv", "gs://", "gs://bucket", "gs://bucket/", "gs:///obj"} {
		_, _, err := SplitGCSPath(bad)
		assert.Error(t, err, bad)
	}
}

func TestMuxOpener_Local(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o600))

	rc, err := MuxOpener{}.Open(context.Background(), p)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestMuxOpener_GCSWithoutClient(t *testing.T) {
	_, err := MuxOpener{}.Open(context.Background(), "gs://b/o.csv")
	assert.Error(t, err)
}
