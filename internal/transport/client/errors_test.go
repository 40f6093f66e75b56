package client

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractErrorMessage(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{
			name:   "validation issue list takes priority",
			body:   `{"detail":[{"msg":"field required","loc":["body","email"]},{"msg":"second issue"}]}`,
			status: 422,
			want:   "field required",
		},
		{
			name:   "string detail",
			body:   `{"detail":"Email already in use!"}`,
			status: 400,
			want:   "Email already in use!",
		},
		{
			name:   "generic message field",
			body:   `{"message":"something went wrong"}`,
			status: 500,
			want:   "something went wrong",
		},
		{
			name:   "raw json string body",
			body:   `"plain string body"`,
			status: 502,
			want:   "plain string body",
		},
		{
			name:   "raw text body",
			body:   "Bad Gateway",
			status: 502,
			want:   "Bad Gateway",
		},
		{
			name:   "empty body falls back to status",
			body:   "",
			status: 503,
			want:   "request failed with status 503",
		},
		{
			name:   "unrecognized json object falls back to status",
			body:   `{"code":42}`,
			status: 500,
			want:   "request failed with status 500",
		},
		{
			name:   "detail list without msg falls back through",
			body:   `{"detail":[],"message":"fallback message"}`,
			status: 422,
			want:   "fallback message",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractErrorMessage([]byte(tc.body), tc.status))
		})
	}
}

func TestAPIError_IsValidation(t *testing.T) {
	assert.True(t, (&APIError{Status: http.StatusUnprocessableEntity}).IsValidation())
	assert.False(t, (&APIError{Status: http.StatusBadRequest}).IsValidation())
}
