package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/XiaoHuahai/group3/internal/apperr"
)

var errBodyTooLarge = errors.New("request body too large")

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg, RequestID: requestIDFrom(r.Context())})
}

// handleError maps error kinds to status codes. Unknown errors are logged and
// reported without detail.
func (a *API) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	switch apperr.Kind(err) {
	case apperr.ErrInvalidArgument:
		writeError(w, r, http.StatusBadRequest, err.Error())
	case apperr.ErrUnauthorized:
		writeError(w, r, http.StatusUnauthorized, err.Error())
	case apperr.ErrForbidden:
		writeError(w, r, http.StatusForbidden, err.Error())
	case apperr.ErrNotFound:
		writeError(w, r, http.StatusNotFound, err.Error())
	case apperr.ErrInvalidState, apperr.ErrConflict:
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		a.log.Error("request failed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: request body is required", apperr.ErrInvalidArgument)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		return fmt.Errorf("%w: invalid JSON body: %v", apperr.ErrInvalidArgument, err)
	}
	return nil
}
