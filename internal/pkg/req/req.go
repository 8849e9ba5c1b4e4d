/*
Package req decodes request bodies with size limits and maps decoding failures to errs codes.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"lostfound/internal/pkg/errs"
)

const (
	// MaxJSONBody is the default body limit for JSON routes.
	MaxJSONBody int64 = 1 << 20 // 1 MB

	// MaxUploadBody is the body limit for routes carrying a base64 image.
	MaxUploadBody int64 = 10 << 20 // 10 MB
)

// BindJSON decodes the body into dst with the default limit and strict field checking.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	return BindJSONLimit(w, r, dst, MaxJSONBody, true)
}

// BindJSONLimit decodes a single JSON document of at most limit bytes into dst.
// When strict is set, unknown fields are rejected.
func BindJSONLimit(w http.ResponseWriter, r *http.Request, dst any, limit int64, strict bool) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit)

	decoder := json.NewDecoder(r.Body)
	if strict {
		decoder.DisallowUnknownFields()
	}

	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		default:
			return errs.NewError(errs.ErrInvalidJSONFormat)
		}
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// OptionalJSON decodes the body into dst when one is present. An empty body or a
// non-JSON content type leaves dst untouched and is not an error.
func OptionalJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	if r.ContentLength == 0 || !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return nil
	}
	return BindJSONLimit(w, r, dst, MaxJSONBody, false)
}
