package api

import (
	"encoding/json"
	"net/http"

	"testdesk/domain/core"
	"testdesk/internal/errors"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps domain and application errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case core.IsFileFormatError(err), errors.HasCode(err, errors.CodeFileFormat):
		return http.StatusUnprocessableEntity
	case core.IsNotFoundError(err), errors.HasCode(err, errors.CodeNotFound):
		return http.StatusNotFound
	case core.IsValidationError(err),
		errors.HasCode(err, errors.CodeValidationError),
		errors.HasCode(err, errors.CodeInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorStatus(w, r, statusFor(err), err)
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error("%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		s.log.Debug("%s %s: %v", r.Method, r.URL.Path, err)
	}
	code := ""
	if errors.IsAppError(err) {
		code = errors.GetCode(err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}
