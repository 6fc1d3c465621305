package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/validator"
)

type errorResponse struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Optional interfaces a handler's response value may implement.
type (
	withStatus  interface{ StatusCode() int }
	withMessage interface{ Message() string }
	withMeta    interface{ Meta() map[string]any }
)

// writeError renders err. Anything that is not a *goerror.Error is an
// unclassified failure and its text never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		writeJSON(w, errorResponse{Message: "Internal server error", Code: goerror.CodeInternal.String()}, http.StatusInternalServerError)
		return
	}

	body := errorResponse{Message: gerr.Msg(), Code: gerr.Code().String(), Error: gerr.Fields()}
	var fieldErrs validator.V10ValidationError
	if errors.As(err, &fieldErrs) {
		body.Error = fieldErrs.Values()
	}
	writeJSON(w, body, gerr.StatusCode())
}

// writeSuccess wraps resp in the success envelope. A nil resp, or one that
// reports 204, produces an empty body.
func writeSuccess(w http.ResponseWriter, resp any) {
	status := http.StatusOK
	if s, ok := resp.(withStatus); ok {
		status = s.StatusCode()
	}
	if resp == nil || status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body := successResponse{Message: "request has been successfully", Data: resp}
	if m, ok := resp.(withMessage); ok {
		body.Message = m.Message()
	}
	if m, ok := resp.(withMeta); ok {
		body.Meta = m.Meta()
	}
	writeJSON(w, body, status)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("router: encode response", "error", err)
	}
}
