package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/docforensics/forensics-api/pkg/errors"
)

// ErrorBody is the error payload returned to clients
type ErrorBody struct {
	Detail string `json:"detail"`
}

// JSON sends data as a JSON response
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(data)
}

// Error sends an error response. AppErrors keep their status and message;
// anything else becomes a 500 with a generic detail.
func Error(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		JSON(w, appErr.StatusCode, ErrorBody{Detail: appErr.Message})
		return
	}

	JSON(w, http.StatusInternalServerError, ErrorBody{
		Detail: "an unexpected error occurred",
	})
}
