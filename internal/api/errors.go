package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/flowkit/internal/document"
	"github.com/samcharles93/flowkit/pkg/chunk"
	"github.com/samcharles93/flowkit/pkg/message"
	"github.com/samcharles93/flowkit/pkg/reloc"
	"github.com/samcharles93/flowkit/pkg/script"
)

var ErrBodyTooLarge = errors.New("request body too large")

// classify maps codec errors onto an HTTP status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "request_too_large"
	case errors.Is(err, chunk.ErrUnexpectedEnd), errors.Is(err, reloc.ErrTruncated):
		return http.StatusBadRequest, "truncated_error"
	case errors.Is(err, chunk.ErrFormatMismatch),
		errors.Is(err, chunk.ErrSizeInvariant),
		errors.Is(err, chunk.ErrCorrupt),
		errors.Is(err, message.ErrUnknownKind),
		errors.Is(err, document.ErrUnsupportedTag):
		return http.StatusBadRequest, "format_error"
	case errors.Is(err, script.ErrUnresolvedLabel),
		errors.Is(err, script.ErrDuplicateLabelIndex),
		errors.Is(err, script.ErrLabelName),
		errors.Is(err, script.ErrOperand),
		errors.Is(err, message.ErrName),
		errors.Is(err, document.ErrBody):
		return http.StatusBadRequest, "invalid_document"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
