package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/openidgate/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("TICKET_SECRET", "s3cret")
	t.Setenv("WEBDAV_SERVERS", "static=static.local:8080")
	t.Setenv("RATE_ENABLED", "true")
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestBuild_MemoryStack(t *testing.T) {
	cfg := testConfig(t)
	reg := prometheus.NewRegistry()

	c, err := Build(context.Background(), cfg, reg, reg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	require.NotNil(t, c.WebDAV)
	require.Equal(t, "http://static.local:8080/uploads/x.jpg", c.WebDAV.FullPath("/uploads/x.jpg"))
	require.Equal(t, []string{"loginza"}, c.Brokers.Names())

	rr := httptest.NewRecorder()
	c.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	c.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "http_inflight_requests")
}

func TestEndpoints_SkipsDisabled(t *testing.T) {
	cfg := testConfig(t)
	off := false
	cfg.Brokers = map[string]config.Broker{
		"loginza": {Enabled: &off},
		"rpxnow":  {APIKey: "k", Params: map[string]string{"a": "1"}},
	}
	eps := Endpoints(cfg)
	require.Len(t, eps, 1)
	require.Equal(t, "k", eps["rpxnow"].APIKey)
}
