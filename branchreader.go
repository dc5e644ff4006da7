package probamatrix

import (
	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
)

// BranchReader iterates over the branches of a matrix index in ascending
// branch id order.
type BranchReader struct {
	BranchesSeen int
	idx          *MatrixIndex
	rows         *sqlx.Rows
	err          error

	// Cached decompression buffers
	probsBuf []byte
	posBuf   []byte
}

func (b *MatrixIndex) NewBranchReader() *BranchReader {
	return &BranchReader{
		idx: b,
	}
}

func (br *BranchReader) Error() error {
	return br.err
}

// Read returns the next branch id and entry. At the end of the index, or after
// an error, the entry is nil; check Error to tell the two apart.
func (br *BranchReader) Read() (int, BranchEntry) {
	if br.err != nil {
		return 0, nil
	}

	if br.rows == nil {
		rows, err := br.idx.DB.Queryx("SELECT * FROM Branch ORDER BY branch_id ASC")
		if err != nil {
			br.err = pfx.Err(err)
			return 0, nil
		}
		br.rows = rows
	}

	if !br.rows.Next() {
		if err := br.rows.Err(); err != nil {
			br.err = pfx.Err(err)
		}
		br.Close()
		return 0, nil
	}

	var row branchRow
	if err := br.rows.StructScan(&row); err != nil {
		br.err = pfx.Err(err)
		return 0, nil
	}

	entry, err := row.decode(br.probsBuf, br.posBuf)
	if err != nil {
		br.err = pfx.Err(err)
		return 0, nil
	}
	if row.Compression == CompressionZStandard {
		// Keep the grown buffers around for the next branch.
		br.probsBuf = growBuffer(br.probsBuf, 4*row.NSites*row.NVariants)
		br.posBuf = growBuffer(br.posBuf, row.NSites*row.NVariants)
	}

	br.BranchesSeen++

	return row.BranchID, entry
}

// Close releases the underlying cursor. It is safe to call more than once.
func (br *BranchReader) Close() error {
	if br.rows == nil {
		return nil
	}

	return br.rows.Close()
}

func growBuffer(buf []byte, n int) []byte {
	if cap(buf) < n {
		return make([]byte, 0, n)
	}

	return buf
}
