/*
Package resp writes the service's JSON response envelope.

Every response body has the shape {"code": 0|<business code>, "message": ..., "data": ...}.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"lostfound/internal/pkg/errs"
	"lostfound/internal/pkg/logx"
)

// JSONResponse is the envelope returned by every API route.
type JSONResponse struct {
	// Code is 0 on success, otherwise an errs code.
	Code int `json:"code"`

	Message string `json:"message"`

	Data any `json:"data,omitempty"`
}

// RespondJSON marshals payload and writes it with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	body, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response", "http_status", httpStatus, "path", r.URL.Path)
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	_, _ = w.Write(body)
}

// RespondSuccess writes a 200 envelope with data.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondStatus(w, r, http.StatusOK, "success", data)
}

// RespondStatus writes a success envelope with a custom status and message,
// e.g. 201 "Subscription saved".
func RespondStatus(w http.ResponseWriter, r *http.Request, httpStatus int, message string, data any) {
	RespondJSON(w, r, httpStatus, JSONResponse{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// RespondError writes the envelope of customErr with its HTTP status.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}
