package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "atelier/pkg/domain-errors"
)

// MaxJSONBody bounds request bodies decoded by DecodeJSON. Generation requests
// may carry a base64 reference image, so the bound is generous.
const MaxJSONBody = 12 << 20

// ErrorResponse is the JSON envelope for failed requests.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into a JSON response. Internal errors
// never leak their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	status := dErrors.HTTPStatus(code)
	resp := ErrorResponse{Error: string(code)}
	if status < http.StatusInternalServerError || code == dErrors.CodeUpstreamUnavailable {
		resp.ErrorDescription = dErrors.Message(err)
	}
	WriteJSON(w, status, resp)
}

// DecodeJSON decodes a bounded JSON body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body")
	}
	return nil
}
