package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/SudaisX/DB-Project/pkg/errors"
	"github.com/SudaisX/DB-Project/pkg/logger"
	"github.com/SudaisX/DB-Project/pkg/validator"
)

// maxBodyBytes caps request bodies accepted by DecodeJSON.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Message   string            `json:"message"`
	Code      string            `json:"code,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status code and writes an ErrorResponse. Errors that
// are not AppErrors or known sentinels become 500 and are logged with the
// request-scoped logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Message:   valErr.Error(),
			Code:      "VALIDATION_ERROR",
			Fields:    valErr.Fields(),
			RequestID: requestID,
		})
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logInternal(r, err, fallback)
		}
		WriteJSON(w, appErr.Status, ErrorResponse{
			Message:   appErr.Message,
			Code:      appErr.Code,
			RequestID: requestID,
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	resp := ErrorResponse{RequestID: requestID}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		resp.Code, resp.Message = "NOT_FOUND", "resource not found"
	case errors.Is(err, apperrors.ErrAlreadyExists), errors.Is(err, apperrors.ErrConflict):
		resp.Code, resp.Message = "CONFLICT", err.Error()
	case errors.Is(err, apperrors.ErrInvalidInput):
		resp.Code, resp.Message = "INVALID_INPUT", err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		resp.Code, resp.Message = "UNAUTHORIZED", "not authorized"
	default:
		resp.Code, resp.Message = "INTERNAL_ERROR", "an internal error occurred"
		logInternal(r, err, fallback)
	}

	WriteJSON(w, status, resp)
}

func logInternal(r *http.Request, err error, fallback *slog.Logger) {
	logger.FromContext(r.Context(), fallback).ErrorContext(r.Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// DecodeJSON reads a size-limited JSON body into dst and validates it.
// Malformed bodies yield an InvalidInput AppError; tag violations yield a
// *validator.ValidationError. Both render as 400 through WriteError.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("invalid request body: %v", err))
	}
	return validator.Validate(dst)
}

// ParseUUID validates a path parameter. An invalid id cannot match any row,
// so it is reported as NotFound for resource.
func ParseUUID(param, resource string) (string, error) {
	id, err := uuid.Parse(param)
	if err != nil {
		return "", apperrors.NotFound(resource, param)
	}
	return id.String(), nil
}
