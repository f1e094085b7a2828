package errors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// MapTransportError maps HTTP transport errors to AppError instances.
// It handles common client-side failure patterns including:
// - Context timeouts/cancellations → Timeout/Canceled
// - net.Error timeouts → Timeout
// - Any other transport failure → Network
//
// AppErrors pass through unchanged.
func MapTransportError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	// Check for context errors first
	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out. Please try again.",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "Request was canceled.",
			Cause:   err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out. Please try again.",
			Cause:   err,
		}
	}

	return &AppError{
		Code:    ErrCodeNetwork,
		Message: "Unable to reach the server. Check your connection and try again.",
		Cause:   err,
	}
}

// MapStatus maps a non-2xx HTTP status from the protected API to an AppError.
// An empty message is replaced by the standard status text.
func MapStatus(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return NotAuthorized(message)
	case status == http.StatusNotFound:
		return NotFound(message)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity, status == http.StatusConflict:
		return Validation(message)
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return &AppError{Code: ErrCodeTimeout, Message: message}
	default:
		return Internal(message)
	}
}

// ResponseDetail extracts a human-readable message from a JSON error body,
// looking at detail, message and error in that order. FastAPI-style
// validation lists yield their first msg.
func ResponseDetail(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, r := range gjson.GetManyBytes(body, "detail", "message", "error") {
		switch {
		case r.Type == gjson.String && strings.TrimSpace(r.Str) != "":
			return strings.TrimSpace(r.Str)
		case r.IsArray():
			if msg := r.Get("0.msg"); msg.Exists() {
				return msg.String()
			}
		}
	}
	return ""
}
