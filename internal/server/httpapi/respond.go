package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

var (
	errInvalidBody      = common.NewKindError(common.ErrorBadRequest, "invalid request body")
	errNotFound         = common.NewKindError(common.ErrorNotFound, "not found")
	errMethodNotAllowed = common.NewKindError(common.ErrorBadRequest, "method not allowed")
	errOAuthDisabled    = common.NewKindError(common.ErrorNotFound, "oauth provider is not configured")
	errAvatarsDisabled  = common.NewKindError(common.ErrorNotFound, "avatar storage is not configured")
	errMissingCode      = common.NewKindError(common.ErrorBadRequest, "missing authorization code")
)

type errorReply struct {
	Error string `json:"error"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func statusFor(err error) int {
	switch common.Kind(err) {
	case common.ErrorConflict:
		return http.StatusConflict
	case common.ErrorUnauthorized:
		return http.StatusUnauthorized
	case common.ErrorBadRequest:
		return http.StatusBadRequest
	case common.ErrorNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError maps err to a status code. Internal failures are logged
// and answered with a generic message.
func (h *Handler) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = common.ErrorInternal.Error()
	}
	respondWithJSON(w, code, errorReply{Error: msg})
}

// decodeBody fills v from a JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errInvalidBody
}
