package probamatrix

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE Metadata (
	num_branches INTEGER NOT NULL,
	num_sites INTEGER NOT NULL,
	num_variants INTEGER NOT NULL,
	sorted INTEGER NOT NULL,
	compression INTEGER NOT NULL,
	index_creation_time INTEGER NOT NULL
);
CREATE TABLE Branch (
	branch_id INTEGER PRIMARY KEY,
	num_sites INTEGER NOT NULL,
	num_variants INTEGER NOT NULL,
	compression INTEGER NOT NULL,
	probabilities BLOB,
	positions BLOB
);
`

// MatrixIndex is a SQLite file holding a persisted ProbaMatrix, one row per
// branch.
type MatrixIndex struct {
	DB       *sqlx.DB
	Metadata *IndexMetadata
}

// IndexMetadata conforms to the single row of the SQLite table "Metadata".
type IndexMetadata struct {
	NBranches         int         `db:"num_branches"`
	NSites            int         `db:"num_sites"`
	NVariants         int         `db:"num_variants"`
	Sorted            bool        `db:"sorted"`
	Compression       Compression `db:"compression"`
	IndexCreationTime Time        `db:"index_creation_time"`
}

// branchRow conforms to the rows of the SQLite table "Branch".
type branchRow struct {
	BranchID      int         `db:"branch_id"`
	NSites        int         `db:"num_sites"`
	NVariants     int         `db:"num_variants"`
	Compression   Compression `db:"compression"`
	Probabilities []byte      `db:"probabilities"`
	Positions     []byte      `db:"positions"`
}

func (b *MatrixIndex) Close() error {
	return b.DB.Close()
}

func uriPath(path string) string {
	// URI filenames have to begin with 'file:'; see
	// https://www.sqlite.org/c3ref/open.html . It seems that sqlite3 permitted
	// URI filenames without the file: prefix, but that is not standard.
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	return path
}

// OpenIndex opens the matrix index at path. Metadata is nil if the index has no
// Metadata row.
func OpenIndex(path string) (*MatrixIndex, error) {
	db, err := connectSQLite(uriPath(path))
	if err != nil {
		return nil, pfx.Err(err)
	}

	idx := &MatrixIndex{
		DB:       db,
		Metadata: &IndexMetadata{},
	}

	// Not all index files have metadata; ignore any error
	if err := idx.DB.Get(idx.Metadata, "SELECT * FROM Metadata LIMIT 1"); err != nil {
		idx.Metadata = nil
	}

	return idx, nil
}

// Dimensions reports the matrix shape recorded in the index Metadata.
func (b *MatrixIndex) Dimensions() (nBranches, nSites, nVariants int, err error) {
	if b.Metadata == nil {
		return 0, 0, 0, ErrNoIndexMetadata
	}

	return b.Metadata.NBranches, b.Metadata.NSites, b.Metadata.NVariants, nil
}

// WriteIndex persists m into a new matrix index at path, compressing each
// branch's blobs with c. Every entry must have the matrix's dimensions and
// matching Probs/Pos lengths.
func WriteIndex(path string, m *ProbaMatrix, c Compression) error {
	db, err := connectSQLite(uriPath(path))
	if err != nil {
		return pfx.Err(err)
	}
	defer db.Close()

	nSites, nVariants := m.NumSites(), m.NumVariants()

	tx, err := db.Beginx()
	if err != nil {
		return pfx.Err(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schema); err != nil {
		return pfx.Err(err)
	}

	for _, id := range m.BranchIDs() {
		entry := m.data[id]
		if err := checkShape(id, entry, nSites, nVariants); err != nil {
			return pfx.Err(err)
		}

		probs, pos := encodeBranch(entry, nVariants)
		row := branchRow{
			BranchID:    id,
			NSites:      nSites,
			NVariants:   nVariants,
			Compression: c,
		}
		if row.Probabilities, err = Compress(c, probs); err != nil {
			return pfx.Err(err)
		}
		if row.Positions, err = Compress(c, pos); err != nil {
			return pfx.Err(err)
		}

		if _, err := tx.NamedExec(`INSERT INTO Branch (branch_id, num_sites, num_variants, compression, probabilities, positions)
		VALUES (:branch_id, :num_sites, :num_variants, :compression, :probabilities, :positions)`, row); err != nil {
			return pfx.Err(err)
		}
	}

	meta := IndexMetadata{
		NBranches:         m.NumBranches(),
		NSites:            nSites,
		NVariants:         nVariants,
		Sorted:            m.Sorted(),
		Compression:       c,
		IndexCreationTime: Time(time.Now()),
	}
	if _, err := tx.NamedExec(`INSERT INTO Metadata (num_branches, num_sites, num_variants, sorted, compression, index_creation_time)
	VALUES (:num_branches, :num_sites, :num_variants, :sorted, :compression, :index_creation_time)`, meta); err != nil {
		return pfx.Err(err)
	}

	if err := tx.Commit(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func checkShape(branchID int, entry BranchEntry, nSites, nVariants int) error {
	if len(entry) != nSites {
		return fmt.Errorf("%w: branch %d has %d sites, expected %d", ErrDimensionMismatch, branchID, len(entry), nSites)
	}
	for site, row := range entry {
		if len(row.Probs) != nVariants || len(row.Pos) != nVariants {
			return fmt.Errorf("%w: branch %d site %d has %d probabilities and %d positions, expected %d", ErrDimensionMismatch, branchID, site, len(row.Probs), len(row.Pos), nVariants)
		}
	}

	return nil
}

// ReadBranch reads one branch from the index. If the branch is absent, the
// returned error wraps ErrBranchNotFound.
func (b *MatrixIndex) ReadBranch(branchID int) (BranchEntry, error) {
	var row branchRow
	err := b.DB.Get(&row, "SELECT * FROM Branch WHERE branch_id = ?", branchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrBranchNotFound, branchID)
	} else if err != nil {
		return nil, pfx.Err(err)
	}

	entry, err := row.decode(nil, nil)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return entry, nil
}

// Load reads every branch of the index into a new ProbaMatrix. If the index
// was written from a sorted matrix, the loaded matrix is marked sorted too.
func (b *MatrixIndex) Load() (*ProbaMatrix, error) {
	m := New()

	br := b.NewBranchReader()
	defer br.Close()

	for {
		id, entry := br.Read()
		if entry == nil {
			break
		}
		if err := m.AddValidatedBranchEntry(id, entry); err != nil {
			return nil, pfx.Err(err)
		}
	}
	if err := br.Error(); err != nil {
		return nil, pfx.Err(err)
	}

	m.sorted = b.Metadata != nil && b.Metadata.Sorted

	return m, nil
}

// decode decompresses and unpacks the blobs. probsBuf and posBuf, if not nil,
// are reused as decompression buffers.
func (r *branchRow) decode(probsBuf, posBuf []byte) (BranchEntry, error) {
	probs, err := Decompress(r.Compression, probsBuf, r.Probabilities)
	if err != nil {
		return nil, pfx.Err(err)
	}

	pos, err := Decompress(r.Compression, posBuf, r.Positions)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return decodeBranch(probs, pos, r.NSites, r.NVariants)
}
