package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/guildstore/internal/common"
)

// nginx's code for a client that went away before the response.
const statusClientClosedRequest = 499

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrDecodeCorrupt):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, common.ErrRemoteRejected):
		return http.StatusBadGateway
	case errors.Is(err, common.ErrCancelled):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), message, "path", r.URL.Path, "error", err)
	} else {
		h.logger.Warn(r.Context(), message, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Message: message, Error: err.Error()})
}

func notFound(w http.ResponseWriter, kind, id string) {
	writeJSON(w, http.StatusNotFound, errorResponse{Message: fmt.Sprintf("%s %s not found", kind, id)})
}

func badRequest(w http.ResponseWriter, message string, err error) {
	resp := errorResponse{Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Message: "request body too large"})
			return false
		}
		badRequest(w, "invalid request body", err)
		return false
	}
	return true
}
