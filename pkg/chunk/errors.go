package chunk

import "errors"

var (
	ErrFormatMismatch = errors.New("chunk: format mismatch")
	ErrUnexpectedEnd  = errors.New("chunk: unexpected end of data")
	ErrSizeInvariant  = errors.New("chunk: section size invariant violated")
	ErrCorrupt        = errors.New("chunk: corrupt container")
)
