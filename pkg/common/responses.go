package common

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "conceptgraph-backend/pkg/errors"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// RespondError sends an error response
func RespondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// RespondAppError maps an application error to its HTTP representation.
// Unknown error values become opaque 500s so internals never leak.
func RespondAppError(w http.ResponseWriter, err error) {
	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) {
		code := appErr.Code
		if code == "" {
			code = string(appErr.Type)
		}
		RespondError(w, pkgerrors.GetHTTPStatus(err), code, appErr.Message)
		return
	}
	RespondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// RespondNoContent sends a 204 response
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
