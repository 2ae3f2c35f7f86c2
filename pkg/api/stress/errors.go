package stress

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"liquidity_stress/pkg/core/fundamentals"
	"liquidity_stress/pkg/core/ingest"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: message}
}

// fromRunError maps pipeline failures onto HTTP statuses.
func fromRunError(err error) *APIError {
	var (
		lookupErr  *ingest.LookupError
		dataErr    *fundamentals.DataError
		networkErr *ingest.NetworkError
	)
	switch {
	case errors.As(err, &lookupErr):
		return newAPIError(http.StatusNotFound, "TICKER_NOT_FOUND", lookupErr.Error())
	case errors.As(err, &dataErr):
		return newAPIError(http.StatusUnprocessableEntity, "INSUFFICIENT_DATA", dataErr.Error())
	case errors.As(err, &networkErr):
		return newAPIError(http.StatusBadGateway, "SEC_UNAVAILABLE", networkErr.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return newAPIError(http.StatusGatewayTimeout, "TIMEOUT", "analysis timed out")
	default:
		return newAPIError(http.StatusInternalServerError, "INTERNAL_ERROR", "analysis failed")
	}
}
