package probamatrix

import "errors"

var (
	// ErrBranchNotFound is returned when a branch id was never added. A miss
	// means the tree and the populated matrix disagree.
	ErrBranchNotFound = errors.New("probamatrix: branch not found")

	// ErrDimensionMismatch is returned by validated insertion when an entry's
	// site or variant count disagrees with the stored entries.
	ErrDimensionMismatch = errors.New("probamatrix: dimension mismatch")

	// ErrNotSorted is returned by rank queries on a matrix that has not been
	// sorted since its last insertion.
	ErrNotSorted = errors.New("probamatrix: matrix is not sorted")

	ErrOutOfRange = errors.New("probamatrix: index out of range")

	// ErrNoIndexMetadata is returned when a matrix index has no Metadata row.
	ErrNoIndexMetadata = errors.New("probamatrix: index has no metadata")
)
