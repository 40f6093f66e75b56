package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAuthExpired means the access token expired and could not be
	// refreshed. The session has already been cleared when a caller
	// observes it.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrNoRefreshToken means a refresh was requested without a refresh
	// token present; no network call is made in that case.
	ErrNoRefreshToken = errors.New("no refresh token")
)

// APIError is a non-2xx backend response with a human-readable message
// extracted from the body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsValidation reports whether the backend rejected the payload shape or
// semantics.
func (e *APIError) IsValidation() bool {
	return e.Status == http.StatusUnprocessableEntity
}

// validationIssue is one entry of a structured validation error list
// ({"detail": [{"msg": ...}, ...]}).
type validationIssue struct {
	Msg string `json:"msg"`
}

// extractErrorMessage turns a non-2xx response body into the message shown
// to the user. Priority: structured validation issue list, string detail
// field, generic message field, raw string body, status fallback. The
// order is deterministic and shared by every caller.
func extractErrorMessage(body []byte, status int) string {
	trimmed := strings.TrimSpace(string(body))
	fallback := fmt.Sprintf("request failed with status %d", status)

	if trimmed == "" {
		return fallback
	}

	var structured struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}

	if err := json.Unmarshal(body, &structured); err == nil {
		if len(structured.Detail) > 0 {
			var issues []validationIssue
			if err := json.Unmarshal(structured.Detail, &issues); err == nil && len(issues) > 0 && issues[0].Msg != "" {
				return issues[0].Msg
			}

			var detail string
			if err := json.Unmarshal(structured.Detail, &detail); err == nil && detail != "" {
				return detail
			}
		}

		if structured.Message != "" {
			return structured.Message
		}
	}

	var raw string
	if err := json.Unmarshal(body, &raw); err == nil && raw != "" {
		return raw
	}

	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return trimmed
	}

	return fallback
}
