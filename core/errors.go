package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArticle indicates an Article failed validation.
	ErrInvalidArticle = errors.New("invalid article")

	// ErrInvalidCandidate indicates a fetched Candidate failed validation.
	ErrInvalidCandidate = errors.New("invalid candidate")

	// ErrEmptyURL indicates the URL field is empty.
	ErrEmptyURL = errors.New("url cannot be empty")

	// ErrEmptyCategory indicates the Category field is empty.
	ErrEmptyCategory = errors.New("category cannot be empty")

	// ErrDuplicateArticle indicates an article with the same URL is already stored.
	ErrDuplicateArticle = errors.New("duplicate article")

	// ErrLengthMismatch indicates vectors, payloads and ids were not supplied in lockstep.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrDimensionMismatch indicates a vector does not fit the collection's dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// LengthMismatchError reports an upsert whose batches disagree in length.
// IDs is -1 when the caller let the index generate identifiers.
type LengthMismatchError struct {
	Vectors  int
	Payloads int
	IDs      int
}

func (e *LengthMismatchError) Error() string {
	if e.IDs < 0 {
		return fmt.Sprintf("length mismatch: %d vectors, %d payloads", e.Vectors, e.Payloads)
	}
	return fmt.Sprintf("length mismatch: %d vectors, %d payloads, %d ids", e.Vectors, e.Payloads, e.IDs)
}

func (e *LengthMismatchError) Is(target error) bool {
	return target == ErrLengthMismatch
}

// CheckLengths returns a LengthMismatchError unless vectors, payloads and
// (when non-nil) ids all have the same length.
func CheckLengths(vectors, payloads int, ids []string) error {
	idCount := -1
	if ids != nil {
		idCount = len(ids)
	}
	if vectors != payloads || (idCount >= 0 && idCount != vectors) {
		return &LengthMismatchError{Vectors: vectors, Payloads: payloads, IDs: idCount}
	}
	return nil
}

// DimensionMismatchError reports a vector or collection whose dimension
// disagrees with the configured one. It is a configuration error.
type DimensionMismatchError struct {
	Collection string
	Existing   int
	Requested  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("collection %q has dimension %d, requested %d",
		e.Collection, e.Existing, e.Requested)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
