package services

import "errors"

// Error taxonomy for the ingestion and conversation pipelines. Callers
// classify with errors.Is; wrapped causes carry the detail.
var (
	// ErrNotFound: a referenced chat or file record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedType: no document loader handles the file extension.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrIndex: the embedding backend or vector store failed. No retry
	// happens here; retry policy belongs to the caller.
	ErrIndex = errors.New("vector index error")

	// ErrGeneration: the language-model call failed.
	ErrGeneration = errors.New("generation error")

	// ErrPersistence: a document-store write failed.
	ErrPersistence = errors.New("persistence error")
)
