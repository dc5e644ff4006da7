package probamatrix

import (
	"fmt"
	"sort"
)

// rowSorter sorts a Row by descending probability, moving Pos in lockstep.
type rowSorter Row

func (r rowSorter) Len() int           { return len(r.Probs) }
func (r rowSorter) Less(i, j int) bool { return r.Probs[i] > r.Probs[j] }
func (r rowSorter) Swap(i, j int) {
	r.Probs[i], r.Probs[j] = r.Probs[j], r.Probs[i]
	r.Pos[i], r.Pos[j] = r.Pos[j], r.Pos[i]
}

// Sort ranks every row of every branch: probabilities are put in non-increasing
// order and Pos is permuted alongside, so Pos[i] is the original variant index
// of Probs[i]. The sort is stable, so equal probabilities keep their original
// relative order. Calling Sort again leaves the matrix unchanged.
func (m *ProbaMatrix) Sort() {
	for _, entry := range m.data {
		for i := range entry {
			sortRow(&entry[i])
		}
	}
	m.sorted = true
}

func sortRow(r *Row) {
	if len(r.Pos) != len(r.Probs) {
		r.Pos = make(RowPos, len(r.Probs))
		for i := range r.Pos {
			r.Pos[i] = uint8(i)
		}
	}

	sort.Stable(rowSorter(*r))
}

// Sorted reports whether Sort has been called since the last insertion.
func (m *ProbaMatrix) Sorted() bool {
	return m.sorted
}

// Ranked returns the rank-th most probable variant (rank 0 is the most
// probable) at one site of one branch, along with its probability. The matrix
// must be sorted.
func (m *ProbaMatrix) Ranked(branchID, site, rank int) (uint8, float32, error) {
	if !m.sorted {
		return 0, 0, ErrNotSorted
	}

	entry, exists := m.data[branchID]
	if !exists {
		return 0, 0, fmt.Errorf("%w: %d", ErrBranchNotFound, branchID)
	}

	if site < 0 || site >= len(entry) {
		return 0, 0, fmt.Errorf("%w: site %d of %d", ErrOutOfRange, site, len(entry))
	}

	row := entry[site]
	if rank < 0 || rank >= row.Len() {
		return 0, 0, fmt.Errorf("%w: rank %d of %d", ErrOutOfRange, rank, row.Len())
	}

	return row.Pos[rank], row.Probs[rank], nil
}

// MostProbable returns, for every site of a branch, the most probable variant
// and its probability. The matrix must be sorted.
func (m *ProbaMatrix) MostProbable(branchID int) ([]uint8, []float32, error) {
	if !m.sorted {
		return nil, nil, ErrNotSorted
	}

	entry, exists := m.data[branchID]
	if !exists {
		return nil, nil, fmt.Errorf("%w: %d", ErrBranchNotFound, branchID)
	}

	variants := make([]uint8, 0, len(entry))
	probs := make([]float32, 0, len(entry))
	for site, row := range entry {
		if row.Len() == 0 {
			return nil, nil, fmt.Errorf("%w: branch %d site %d has no variants", ErrOutOfRange, branchID, site)
		}
		variants = append(variants, row.Pos[0])
		probs = append(probs, row.Probs[0])
	}

	return variants, probs, nil
}
