package metrics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump_ExposesInstruments(t *testing.T) {
	APIRequestsTotal.WithLabelValues("GET", "/user/user", "200").Inc()
	TokenRefreshTotal.WithLabelValues("success").Inc()

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf))

	out := buf.String()
	assert.Contains(t, out, "stockpile_api_requests_total")
	assert.Contains(t, out, "stockpile_token_refresh_total")
	assert.Contains(t, out, `outcome="success"`)
}
