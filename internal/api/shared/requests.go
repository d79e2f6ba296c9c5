package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Global validator instance for reuse
var validate = validator.New()

// maxBodyBytes bounds request bodies; the API only accepts small JSON objects.
const maxBodyBytes = 1 << 20

// DecodeJSON decodes the request body into v. Unknown fields are rejected.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// DecodeOptionalJSON is DecodeJSON for endpoints whose body may be omitted.
// An empty body leaves v untouched.
func DecodeOptionalJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	err := DecodeJSON(r, v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// ValidateRequest validates v with its Validate method if it has one, and
// with its struct tags otherwise.
func ValidateRequest(v any) error {
	if sv, ok := v.(interface{ Validate() error }); ok {
		return sv.Validate()
	}
	return validate.Struct(v)
}
