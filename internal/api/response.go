package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
	"github.com/vladimiradmaev/eyecare-tracker/internal/logger"
)

const maxBodyBytes = 1 << 20

// apiResponse is the envelope of every JSON response
type apiResponse struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorInfo `json:"error,omitempty"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// respondError writes err using the status of its AppError type. Errors
// that are not AppErrors never leak their message.
func respondError(w http.ResponseWriter, err error) {
	info := &errorInfo{Code: apperrors.ErrInternalServer.Code, Message: apperrors.ErrInternalServer.Message}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		info = &errorInfo{Code: appErr.Code, Message: appErr.Message}
	} else {
		logger.Error("Unhandled API error", "error", err)
	}
	writeJSON(w, statusFor(err), apiResponse{Error: info})
}

func statusFor(err error) int {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypePermission:
		if appErr.Code == apperrors.ErrUnauthorized.Code {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeOperationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// decodeBody reads a JSON request body into dst
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewValidationError("request body is empty")
		}
		return apperrors.NewValidationError(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}
