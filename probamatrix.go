// Package probamatrix holds the posterior probabilities produced by an
// ancestral sequence reconstruction over a phylogenetic tree.
//
// A ProbaMatrix is a [#branches x #sites x #variants] matrix, where #branches
// is the number of internal (non-leaf) nodes of the tree, #sites is the length
// of the alignment, and #variants is the alphabet size. Variants are plain
// indices; the matrix does not know which alphabet they come from.
package probamatrix

import (
	"fmt"
	"sort"
)

// ProbaMatrix maps a branch (internal tree node) id to its BranchEntry.
//
// A ProbaMatrix is populated by a single writer, optionally sorted once, and
// then read. It performs no locking. Do not copy a ProbaMatrix by value: use
// Move to transfer ownership, or Clone when a deep copy is really needed.
type ProbaMatrix struct {
	data   map[int]BranchEntry
	sorted bool
}

// New returns an empty matrix.
func New() *ProbaMatrix {
	return &ProbaMatrix{
		data: make(map[int]BranchEntry),
	}
}

// Move transfers every stored entry to a new matrix and leaves m empty.
func (m *ProbaMatrix) Move() *ProbaMatrix {
	out := &ProbaMatrix{
		data:   m.data,
		sorted: m.sorted,
	}
	if out.data == nil {
		out.data = make(map[int]BranchEntry)
	}

	m.data = make(map[int]BranchEntry)
	m.sorted = false

	return out
}

// Clone returns a deep copy of m. Matrices can be large, so this is never done
// implicitly.
func (m *ProbaMatrix) Clone() *ProbaMatrix {
	out := &ProbaMatrix{
		data:   make(map[int]BranchEntry, len(m.data)),
		sorted: m.sorted,
	}
	for id, entry := range m.data {
		out.data[id] = entry.Clone()
	}

	return out
}

// NumBranches is the number of distinct branch ids stored.
func (m *ProbaMatrix) NumBranches() int {
	return len(m.data)
}

// NumSites is the alignment length. It is read from one stored entry, since
// all entries share it, and is 0 when nothing has been added.
func (m *ProbaMatrix) NumSites() int {
	entry, ok := m.anyEntry()
	if !ok {
		return 0
	}

	return len(entry)
}

// NumVariants is the alphabet size, read from the first row of one stored
// entry. It is 0 when nothing has been added.
func (m *ProbaMatrix) NumVariants() int {
	entry, ok := m.anyEntry()
	if !ok || len(entry) == 0 {
		return 0
	}

	return entry[0].Len()
}

func (m *ProbaMatrix) anyEntry() (BranchEntry, bool) {
	for _, entry := range m.data {
		return entry, true
	}

	return nil, false
}

// Has reports whether branchID was added.
func (m *ProbaMatrix) Has(branchID int) bool {
	_, exists := m.data[branchID]
	return exists
}

// BranchIDs returns the stored branch ids in ascending order.
func (m *ProbaMatrix) BranchIDs() []int {
	ids := make([]int, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	return ids
}

// At returns a copy of the entry for branchID. If branchID was never added, the
// returned error wraps ErrBranchNotFound.
func (m *ProbaMatrix) At(branchID int) (BranchEntry, error) {
	entry, exists := m.data[branchID]
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrBranchNotFound, branchID)
	}

	return entry.Clone(), nil
}

// AddBranchEntry inserts (or overwrites) the entry for branchID. The entry's
// dimensions are not checked against the stored entries; the caller is
// responsible for consistent input. See AddValidatedBranchEntry.
func (m *ProbaMatrix) AddBranchEntry(branchID int, entry BranchEntry) {
	if m.data == nil {
		m.data = make(map[int]BranchEntry)
	}

	m.data[branchID] = entry.Clone()
	m.sorted = false
}

// AddValidatedBranchEntry is AddBranchEntry, but it first checks that every row
// of entry has matching Probs and Pos lengths, that the alphabet fits in a
// RowPos, and that the site and variant counts agree with the stored entries.
// Overwriting the only stored entry is always allowed.
func (m *ProbaMatrix) AddValidatedBranchEntry(branchID int, entry BranchEntry) error {
	nVariants := 0
	if len(entry) > 0 {
		nVariants = entry[0].Len()
	}
	if nVariants > 256 {
		return fmt.Errorf("%w: branch %d has %d variants, at most 256 are supported", ErrDimensionMismatch, branchID, nVariants)
	}

	for site, row := range entry {
		if row.Len() != nVariants {
			return fmt.Errorf("%w: branch %d site %d has %d variants, expected %d", ErrDimensionMismatch, branchID, site, row.Len(), nVariants)
		}
		if len(row.Pos) != len(row.Probs) {
			return fmt.Errorf("%w: branch %d site %d has %d probabilities but %d positions", ErrDimensionMismatch, branchID, site, len(row.Probs), len(row.Pos))
		}
	}

	for id, stored := range m.data {
		if id == branchID {
			continue
		}
		if len(stored) != len(entry) {
			return fmt.Errorf("%w: branch %d has %d sites, branch %d has %d", ErrDimensionMismatch, branchID, len(entry), id, len(stored))
		}
		if len(stored) > 0 && stored[0].Len() != nVariants {
			return fmt.Errorf("%w: branch %d has %d variants, branch %d has %d", ErrDimensionMismatch, branchID, nVariants, id, stored[0].Len())
		}

		// The invariant guarantees one comparison is enough.
		break
	}

	m.AddBranchEntry(branchID, entry)

	return nil
}
