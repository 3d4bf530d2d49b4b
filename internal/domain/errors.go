package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFitted is returned when an embedding index is queried before a
	// successful fit.
	ErrNotFitted = errors.New("embedding index not fitted")

	// ErrEmptyCorpus is returned when fitting over zero texts; the index is
	// left unfit.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrEmptyDocument is reported when an ingested document yields no
	// usable lines. Recoverable; the corpus simply stays unfit.
	ErrEmptyDocument = errors.New("document contains no usable text")
)

// PersistenceError wraps a knowledge-base read or append failure.
// Recoverable; in-memory state is unchanged when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("knowledge %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IngestionError wraps a document extraction or ingestion failure.
// Recoverable; the previous corpus is intact when it is returned.
type IngestionError struct {
	Path string
	Err  error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Path, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// EncodingError wraps an encoder call failure. The affected retrieval path
// is unavailable for that query; the pipeline falls through to the next
// source instead of crashing.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode: %v", e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
