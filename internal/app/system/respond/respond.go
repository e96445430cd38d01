// Package respond writes the API's JSON bodies.
//
// Every error body has the shape {"message": "..."}; validation failures add
// an "errors" array of {field, message}.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/standupconnect/internal/app/system/inputval"
)

// MessageBody is the standard error/info envelope.
type MessageBody struct {
	Message string                `json:"message"`
	Errors  []inputval.FieldError `json:"errors,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageBody{Message: msg})
}

// Validation writes a 400 with every field error.
func Validation(w http.ResponseWriter, res *inputval.Result) {
	JSON(w, http.StatusBadRequest, MessageBody{Message: "Validation error", Errors: res.Errors})
}

// Decode reads a JSON request body into dst, rejecting trailing data.
// maxBytes bounds the body; 0 means 1 MiB.
func Decode(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errTrailing
	}
	return nil
}

type decodeError string

func (e decodeError) Error() string { return string(e) }

const errTrailing = decodeError("request body must contain a single JSON object")
