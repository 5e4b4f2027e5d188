package server

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotae-ai/kotae/internal/metrics"
	"github.com/kotae-ai/kotae/internal/model"
)

func TestEndpointLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/healthz", "/healthz"},
		{"/metrics", "/metrics"},
		{"/ask", "/ask"},
		{"/tickets", "/tickets"},
		{"/tickets/abc-123", "/tickets/{id}"},
		{"/ingest", "/ingest"},
		{"/auth/dev-token", "/auth/dev-token"},
		{"/mcp", "/mcp"},
		{"/mcp/session", "/mcp"},
		{"/", "unmatched"},
		{"/admin/../../etc/passwd", "unmatched"},
		{"/askk", "unmatched"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, endpointLabel(tt.path))
		})
	}
}

func TestUnknownPathsShareOneMetricBucket(t *testing.T) {
	env := newTestEnv(t, false)
	tok := env.token(t, "u1", model.RoleUser)

	bucket := metrics.RequestsTotal.WithLabelValues("unmatched", "404")
	before := testutil.ToFloat64(bucket)

	w := env.do(t, http.MethodGet, "/no/such/route", tok, "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodGet, "/another/random/path", tok, "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, before+2, testutil.ToFloat64(bucket))
}
