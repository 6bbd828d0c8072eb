package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flowgraph/portgraph/internal/demo"
	"github.com/flowgraph/portgraph/internal/infrastructure/logging"
	"github.com/flowgraph/portgraph/pkg/portgraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *workloadManager) {
	t.Helper()
	reg := prometheus.NewRegistry()
	rt := portgraph.NewRuntime(portgraph.Config{Logger: logging.Discard(), Registerer: reg})
	t.Cleanup(rt.Unload)

	board, err := demo.Load(context.Background(), rt, logging.Discard())
	require.NoError(t, err)
	wm := newWorkloadManager(board, time.Millisecond, logging.Discard())
	t.Cleanup(wm.stop)

	srv := httptest.NewServer(newMux(reg, wm))
	t.Cleanup(srv.Close)
	return srv, wm
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	code, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)
}

func TestWorkload_DrivesMetrics(t *testing.T) {
	srv, wm := newTestServer(t)

	code, _ := get(t, srv.URL+"/workload/demo/start?rate_ms=1")
	assert.Equal(t, http.StatusAccepted, code)
	assert.True(t, wm.running())

	code, _ = get(t, srv.URL+"/workload/demo/start")
	assert.Equal(t, http.StatusConflict, code)

	code, _ = get(t, srv.URL+"/workload/demo/start?rate_ms=soon")
	assert.Equal(t, http.StatusBadRequest, code)

	require.Eventually(t, func() bool {
		_, body := get(t, srv.URL+"/metrics")
		return strings.Contains(body, `portgraph_port_deliveries_total{direction="forward"}`)
	}, 2*time.Second, 10*time.Millisecond)

	code, _ = get(t, srv.URL+"/workload/demo/stop")
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, wm.running())

	_, body := get(t, srv.URL+"/metrics")
	assert.Contains(t, body, "portgraph_graph_bindings 3")
	assert.Contains(t, body, "portgraph_graph_nodes 10")
}
