package node

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larskuhtz/zk-light-clients/log"
	"github.com/larskuhtz/zk-light-clients/zkvm"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	cfg.Server.SetupOnStart = false
	s, err := New(cfg, zkvm.NewLocalBackend(log.Discard()), log.Discard())
	require.NoError(t, err)
	return s
}

func TestServerLifecycle(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	assert.Error(t, s.Start(ctx), "already running")

	base := "http://" + s.Addr().String()
	c, err := gethrpc.DialHTTP(base)
	require.NoError(t, err)
	defer c.Close()

	var healthy bool
	require.NoError(t, c.CallContext(ctx, &healthy, "prover_health"))
	assert.False(t, healthy)

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `zklc_server_requests_total{method="health"} 1`)

	require.NoError(t, s.Stop())
	assert.Nil(t, s.Addr())
	require.NoError(t, s.Stop())
}

func TestServerMetricsDisabled(t *testing.T) {
	s := newTestServer(t)
	s.config.Metrics.Enabled = false
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotContains(t, rec.Body.String(), "zklc_")
}

func TestServerRunStopsOnCancel(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "loud"
	_, err := New(cfg, zkvm.NewLocalBackend(log.Discard()), log.Discard())
	assert.Error(t, err)
}
