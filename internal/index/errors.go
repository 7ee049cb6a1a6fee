package index

import "errors"

var (
	ErrIndexUnreachable  = errors.New("vector index unreachable")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrInvalidFilter     = errors.New("invalid filter expression")
)
