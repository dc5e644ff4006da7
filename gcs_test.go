package probamatrix

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseGSPath(t *testing.T) {
	bucket, object, err := ParseGSPath("gs://my-bucket/runs/2022/matrix.db")
	require.NoError(t, err)
	require.Equal(t, "my-bucket", bucket)
	require.Equal(t, "runs/2022/matrix.db", object)

	for _, bad := range []string{
		"matrix.db",
		"gs://",
		"gs://my-bucket",
		"gs://my-bucket/",
		"gs:///matrix.db",
		"gs://my-bucket/runs/",
	} {
		_, _, err := ParseGSPath(bad)
		require.Error(t, err, bad)
	}
}

func TestOpenIndexMaybeGSLocal(t *testing.T) {
	m := New()
	m.AddBranchEntry(1, entryFromProbs([][]float32{{0.2, 0.8}}))
	path := filepath.Join(t.TempDir(), "matrix.db")
	require.NoError(t, WriteIndex(path, m, CompressionDisabled))

	idx, cleanup, err := OpenIndexMaybeGS(context.Background(), path)
	require.NoError(t, err)
	defer cleanup()
	defer idx.Close()

	require.Equal(t, 1, idx.Metadata.NBranches)
}
