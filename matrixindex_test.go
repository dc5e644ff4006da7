package probamatrix

import (
	"bytes"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func populatedMatrix(t *testing.T) *ProbaMatrix {
	t.Helper()

	rng := rand.New(rand.NewSource(3))
	m := New()
	for _, id := range []int{11, 3, 27, 8} {
		require.NoError(t, m.AddValidatedBranchEntry(id, randomEntry(rng, 40, 4)))
	}
	return m
}

func TestWriteIndexRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionDisabled, CompressionZLIB, CompressionZStandard} {
		c := c
		t.Run(c.String(), func(t *testing.T) {
			m := populatedMatrix(t)
			m.Sort()

			path := filepath.Join(t.TempDir(), "matrix.db")
			require.NoError(t, WriteIndex(path, m, c))

			idx, err := OpenIndex(path)
			require.NoError(t, err)
			defer idx.Close()

			require.NotNil(t, idx.Metadata)
			require.True(t, idx.Metadata.Sorted)
			require.Equal(t, c, idx.Metadata.Compression)
			nBranches, nSites, nVariants, err := idx.Dimensions()
			require.NoError(t, err)
			require.Equal(t, 4, nBranches)
			require.Equal(t, 40, nSites)
			require.Equal(t, 4, nVariants)

			loaded, err := idx.Load()
			require.NoError(t, err)
			require.True(t, loaded.Sorted())
			require.Equal(t, m.BranchIDs(), loaded.BranchIDs())
			for _, id := range m.BranchIDs() {
				want, err := m.At(id)
				require.NoError(t, err)
				got, err := loaded.At(id)
				require.NoError(t, err)
				require.Equal(t, want, got)
			}
		})
	}
}

func TestWriteIndexUnsorted(t *testing.T) {
	m := populatedMatrix(t)
	path := filepath.Join(t.TempDir(), "matrix.db")
	require.NoError(t, WriteIndex(path, m, CompressionZStandard))

	idx, err := OpenIndex(path)
	require.NoError(t, err)
	defer idx.Close()

	loaded, err := idx.Load()
	require.NoError(t, err)
	require.False(t, loaded.Sorted())

	entry, err := loaded.At(3)
	require.NoError(t, err)
	require.Equal(t, RowPos{0, 1, 2, 3}, entry[0].Pos)
}

func TestWriteIndexRejectsInconsistentMatrix(t *testing.T) {
	m := New()
	m.AddBranchEntry(1, entryFromProbs([][]float32{{0.5, 0.5}, {0.1, 0.9}}))
	m.AddBranchEntry(2, entryFromProbs([][]float32{{0.5, 0.5}}))

	path := filepath.Join(t.TempDir(), "matrix.db")
	require.Error(t, WriteIndex(path, m, CompressionDisabled))
}

func TestReadBranch(t *testing.T) {
	m := populatedMatrix(t)
	path := filepath.Join(t.TempDir(), "matrix.db")
	require.NoError(t, WriteIndex(path, m, CompressionZLIB))

	idx, err := OpenIndex(path)
	require.NoError(t, err)
	defer idx.Close()

	got, err := idx.ReadBranch(27)
	require.NoError(t, err)
	want, err := m.At(27)
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = idx.ReadBranch(28)
	require.True(t, errors.Is(err, ErrBranchNotFound))
}

func TestBranchReader(t *testing.T) {
	m := populatedMatrix(t)
	path := filepath.Join(t.TempDir(), "matrix.db")
	require.NoError(t, WriteIndex(path, m, CompressionZStandard))

	idx, err := OpenIndex(path)
	require.NoError(t, err)
	defer idx.Close()

	br := idx.NewBranchReader()
	defer br.Close()

	var ids []int
	for {
		id, entry := br.Read()
		if entry == nil {
			break
		}
		require.Len(t, entry, 40)
		ids = append(ids, id)
	}
	require.NoError(t, br.Error())
	require.Equal(t, []int{3, 8, 11, 27}, ids)
	require.Equal(t, 4, br.BranchesSeen)

	// Reading past the end keeps returning nothing.
	_, entry := br.Read()
	require.Nil(t, entry)
}

func TestOpenIndexWithoutMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")

	idx, err := OpenIndex(path)
	require.NoError(t, err)
	defer idx.Close()

	require.Nil(t, idx.Metadata)
	_, _, _, err = idx.Dimensions()
	require.True(t, errors.Is(err, ErrNoIndexMetadata))
}

func TestCompressDecompress(t *testing.T) {
	src := bytes.Repeat([]byte("ACGT"), 1000)
	for _, c := range []Compression{CompressionDisabled, CompressionZLIB, CompressionZStandard} {
		packed, err := Compress(c, src)
		require.NoError(t, err, c.String())

		unpacked, err := Decompress(c, nil, packed)
		require.NoError(t, err, c.String())
		require.Equal(t, src, unpacked, c.String())
	}

	_, err := Compress(Compression(9), src)
	require.Error(t, err)
}

func TestDecodeBranchRejectsShortBlobs(t *testing.T) {
	_, err := decodeBranch(make([]byte, 8), make([]byte, 2), 1, 4)
	require.Error(t, err)
}

func TestWhichSQLiteDriver(t *testing.T) {
	require.Contains(t, []string{"sqlite", "sqlite3"}, WhichSQLiteDriver())
}
