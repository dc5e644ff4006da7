package probamatrix

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

const gsPrefix = "gs://"

// ParseGSPath splits a gs://bucket/object path into its bucket and object.
func ParseGSPath(path string) (bucket, object string, err error) {
	if !strings.HasPrefix(path, gsPrefix) {
		return "", "", fmt.Errorf("%s does not begin with %s", path, gsPrefix)
	}

	parts := strings.SplitN(strings.TrimPrefix(path, gsPrefix), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.HasSuffix(parts[1], "/") {
		return "", "", fmt.Errorf("%s is not of the form %sbucket/object", path, gsPrefix)
	}

	return parts[0], parts[1], nil
}

// FetchIndex downloads the matrix index at gsPath into localDir, since SQLite
// needs a local file to open, and returns the local path.
func FetchIndex(ctx context.Context, client *storage.Client, gsPath, localDir string) (string, error) {
	bucket, object, err := ParseGSPath(gsPath)
	if err != nil {
		return "", pfx.Err(err)
	}

	rdr, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return "", pfx.Err(err)
	}
	defer rdr.Close()

	localPath := filepath.Join(localDir, filepath.Base(object))
	f, err := os.Create(localPath)
	if err != nil {
		return "", pfx.Err(err)
	}

	if _, err := io.Copy(f, rdr); err != nil {
		f.Close()
		return "", pfx.Err(err)
	}

	if err := f.Close(); err != nil {
		return "", pfx.Err(err)
	}

	return localPath, nil
}

// OpenIndexMaybeGS opens a local matrix index, or fetches a gs:// one into a
// temporary directory first. The returned cleanup func removes anything that
// was downloaded and should be called after the index is closed.
func OpenIndexMaybeGS(ctx context.Context, path string) (*MatrixIndex, func(), error) {
	noop := func() {}

	if !strings.HasPrefix(path, gsPrefix) {
		idx, err := OpenIndex(path)
		if err != nil {
			return nil, noop, pfx.Err(err)
		}
		return idx, noop, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, noop, pfx.Err(err)
	}
	defer client.Close()

	dir, err := os.MkdirTemp("", "probamatrix")
	if err != nil {
		return nil, noop, pfx.Err(err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	localPath, err := FetchIndex(ctx, client, path, dir)
	if err != nil {
		cleanup()
		return nil, noop, pfx.Err(err)
	}

	idx, err := OpenIndex(localPath)
	if err != nil {
		cleanup()
		return nil, noop, pfx.Err(err)
	}

	return idx, cleanup, nil
}
