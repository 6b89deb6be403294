package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/logger"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// errorMapping pairs a domain error with its status and code.
type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrAlreadyExists, http.StatusConflict, "already_exists"},
	{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "file_too_large"},
	{domain.ErrUnsupportedType, http.StatusUnsupportedMediaType, "unsupported_type"},
	{domain.ErrCapacity, http.StatusServiceUnavailable, "capacity_exhausted"},
	{domain.ErrEmbeddingTransient, http.StatusServiceUnavailable, "embedding_unavailable"},
	{domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, "embedding_unavailable"},
	{domain.ErrGovernorClosed, http.StatusServiceUnavailable, "shutting_down"},
	{domain.ErrEmbeddingPermanent, http.StatusBadGateway, "embedding_rejected"},
}

// statusFor maps err onto an HTTP status and error code.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError writes err as a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)

	detail := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
		detail = "internal server error"
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.RetryAfter.Seconds())))
	}

	writeJSON(w, status, errorBody{Error: code, Detail: detail})
}
