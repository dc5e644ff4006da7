package probamatrix

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Shared zstd coders. Both are safe for concurrent EncodeAll/DecodeAll.
var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// encodeBranch flattens an entry, site-major, into a probability blob of
// little-endian float32 values and a position blob of one byte per value.
func encodeBranch(entry BranchEntry, nVariants int) ([]byte, []byte) {
	probs := make([]byte, 4*nVariants*len(entry))
	pos := make([]byte, nVariants*len(entry))

	offset := 0
	for _, row := range entry {
		for j := 0; j < nVariants; j++ {
			binary.LittleEndian.PutUint32(probs[4*(offset+j):], math.Float32bits(row.Probs[j]))
			pos[offset+j] = row.Pos[j]
		}
		offset += nVariants
	}

	return probs, pos
}

func decodeBranch(probs, pos []byte, nSites, nVariants int) (BranchEntry, error) {
	if len(probs) != 4*nSites*nVariants || len(pos) != nSites*nVariants {
		return nil, pfx.Err(fmt.Errorf("%w: expected %d sites of %d variants, got %d probability bytes and %d position bytes", ErrDimensionMismatch, nSites, nVariants, len(probs), len(pos)))
	}

	entry := make(BranchEntry, nSites)
	offset := 0
	for i := range entry {
		row := Row{
			Probs: make(RowProbs, nVariants),
			Pos:   make(RowPos, nVariants),
		}
		for j := 0; j < nVariants; j++ {
			row.Probs[j] = math.Float32frombits(binary.LittleEndian.Uint32(probs[4*(offset+j):]))
			row.Pos[j] = pos[offset+j]
		}
		entry[i] = row
		offset += nVariants
	}

	return entry, nil
}

// Compress packs src according to c.
func Compress(c Compression, src []byte) ([]byte, error) {
	switch c {
	case CompressionDisabled:
		return src, nil
	case CompressionZLIB:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(src); err != nil {
			return nil, pfx.Err(err)
		}
		if err := w.Close(); err != nil {
			return nil, pfx.Err(err)
		}
		return buf.Bytes(), nil
	case CompressionZStandard:
		return zstdEncoder.EncodeAll(src, make([]byte, 0, len(src))), nil
	}

	return nil, pfx.Err(fmt.Errorf("Compression choice %s is not supported", c))
}

// Decompress reverses Compress. As with zstd.Decompress, dst may be passed to
// avoid an allocation; it is ignored for zlib.
func Decompress(c Compression, dst, src []byte) ([]byte, error) {
	switch c {
	case CompressionDisabled:
		return src, nil
	case CompressionZLIB:
		r, err := zlib.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, pfx.Err(err)
		}
		defer r.Close()

		out, err := io.ReadAll(r)
		if err != nil {
			return nil, pfx.Err(err)
		}
		return out, nil
	case CompressionZStandard:
		out, err := zstdDecoder.DecodeAll(src, dst[:0])
		if err != nil {
			return nil, pfx.Err(err)
		}
		return out, nil
	}

	return nil, pfx.Err(fmt.Errorf("Compression choice %s is not supported", c))
}
