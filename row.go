package probamatrix

// RowProbs holds one posterior probability per variant for a single site at a
// single branch, e.g. [0.1 0.3 0.7 0.1].
type RowProbs []float32

// RowPos records which original variant index each position of a RowProbs
// corresponds to, e.g. [3 0 2 1]. Before sorting it is the identity.
type RowPos []uint8

// Row pairs the probabilities of one site with their original variant
// indices. Probs and Pos always have the same length.
type Row struct {
	Probs RowProbs
	Pos   RowPos
}

// BranchEntry is the collection of rows for every alignment site of one
// branch. Position i is site i.
type BranchEntry []Row

// NewRow copies probs into a Row whose Pos is the identity permutation.
func NewRow(probs []float32) Row {
	r := Row{
		Probs: make(RowProbs, len(probs)),
		Pos:   make(RowPos, len(probs)),
	}
	copy(r.Probs, probs)
	for i := range r.Pos {
		r.Pos[i] = uint8(i)
	}

	return r
}

// Len is the number of variants in the row.
func (r Row) Len() int {
	return len(r.Probs)
}

func (r Row) Clone() Row {
	out := Row{
		Probs: make(RowProbs, len(r.Probs)),
		Pos:   make(RowPos, len(r.Pos)),
	}
	copy(out.Probs, r.Probs)
	copy(out.Pos, r.Pos)

	return out
}

func (e BranchEntry) Clone() BranchEntry {
	if e == nil {
		return nil
	}

	out := make(BranchEntry, len(e))
	for i, row := range e {
		out[i] = row.Clone()
	}

	return out
}
