package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rendis/flowcost/pkg/schema"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a FlowcostError as {"error": {...}} with the status
// its code maps to.
func writeError(w http.ResponseWriter, err error) {
	var fe *schema.FlowcostError
	if !errors.As(err, &fe) {
		fe = schema.NewError(schema.ErrCodeInternal, err.Error())
	}
	writeJSON(w, statusFor(fe.Code), map[string]any{"error": fe})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case schema.ErrCodeValidation, schema.ErrCodeImport, schema.ErrCodeExpression, schema.ErrCodeBatchLimit:
		return http.StatusBadRequest
	case schema.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// readBody reads the request body up to maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, schema.NewErrorf(schema.ErrCodeValidation, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "read body: %v", err).WithCause(err)
	}
	return body, nil
}

// decodeBody decodes a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return schema.NewErrorf(schema.ErrCodeValidation, "invalid JSON: %v", err).WithCause(err)
	}
	return nil
}

// emptyIfNil keeps list endpoints from answering null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
