package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/credkeeper/internal/common"
)

// maxBodyBytes caps request bodies; every request here is a handful of
// short strings.
const maxBodyBytes = 1 << 16

func statusFor(kind common.Kind) int {
	switch kind {
	case common.KindValidation:
		return http.StatusBadRequest
	case common.KindAuthentication:
		return http.StatusUnauthorized
	case common.KindAuthorization:
		return http.StatusForbidden
	case common.KindConflict:
		return http.StatusConflict
	case common.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

// writeError maps err onto the taxonomy. Anything outside it is logged and
// reported as a generic internal error.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	pub := common.Public(err)
	if pub.Kind == common.KindInternal {
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, statusFor(pub.Kind), errorResponse{Error: pub.Code, Message: pub.Message})
}

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return common.ErrValidation
	}
	if err := h.validate.Struct(dst); err != nil {
		return common.ErrValidation
	}
	return nil
}
