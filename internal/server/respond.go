package server

import (
	"encoding/json"
	"errors"
	"net/http"

	apierrors "github.com/matzehuels/imagecombiner/pkg/errors"
	"github.com/matzehuels/imagecombiner/pkg/observability"
	"github.com/matzehuels/imagecombiner/pkg/session"
)

// errorResponse is the JSON body of every error response.
type errorResponse struct {
	Code    apierrors.Code `json:"code"`
	Message string         `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err with the status derived from its code.
// Errors without a code are reported as INTERNAL_ERROR and not echoed to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
		err = apierrors.Wrap(apierrors.ErrCodeWorkspaceNotFound, err, "workspace not found")
	}
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)

	code := apierrors.GetCode(err)
	status := apierrors.HTTPStatus(err)
	msg := apierrors.UserMessage(err)
	if code == "" {
		code = apierrors.ErrCodeInternal
		msg = "internal error"
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apierrors.Wrap(apierrors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	return nil
}
