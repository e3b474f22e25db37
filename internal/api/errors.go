package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/tokbin/internal/corpus"
	"github.com/samcharles93/tokbin/pkg/tokfile"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// classify maps a dataloader error to an HTTP status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, corpus.ErrIndexOutOfRange), errors.Is(err, corpus.ErrConfig):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, corpus.ErrNotPrepared):
		return http.StatusNotFound, "not_found_error"
	case errors.Is(err, corpus.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable_error"
	case errors.Is(err, corpus.ErrSplitTooSmall):
		return http.StatusUnprocessableEntity, "split_too_small_error"
	case errors.Is(err, tokfile.ErrShapeMismatch), errors.Is(err, tokfile.ErrCorruptFile):
		return http.StatusInternalServerError, "corrupt_corpus_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
