package gateway_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leyiUPM/emotion/pkg/adapter"
	"github.com/leyiUPM/emotion/pkg/service/gateway"
	"github.com/m-mizutani/gt"
)

func TestHealthMonitorCheck(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			_, _ = io.WriteString(w, `{"ok":true,"model_dir":"/model","labels":28}`)
			return
		}
		_, _ = io.WriteString(w, `{"ok":false,"error":"MODEL_DIR does not exist"}`)
	}))
	defer backend.Close()

	monitor := gateway.NewHealthMonitor(adapter.NewModelAPI(backend.URL), time.Minute)
	gt.True(t, monitor.Last() == nil)

	status := monitor.Check(context.Background())
	gt.True(t, status.OK)
	gt.Equal(t, status.Backend.Labels, 28)

	healthy.Store(false)
	status = monitor.Check(context.Background())
	gt.False(t, status.OK)
	gt.Equal(t, status.Error, "MODEL_DIR does not exist")
	gt.Equal(t, monitor.Last(), status)
}

func TestHealthEndpoint(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ok":true,"model_dir":"/model","labels":28}`)
	}))
	defer backend.Close()

	api := adapter.NewModelAPI(backend.URL)
	monitor := gateway.NewHealthMonitor(api, time.Hour)
	mux := http.NewServeMux()
	gateway.NewHandler(api).Register(mux, monitor)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	gt.NoError(t, err)
	resp.Body.Close()
	gt.Equal(t, resp.StatusCode, http.StatusServiceUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gt.NoError(t, monitor.Start(ctx))
	defer monitor.Stop()

	resp, err = http.Get(srv.URL + "/api/health")
	gt.NoError(t, err)
	defer resp.Body.Close()
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var status gateway.HealthStatus
	gt.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	gt.True(t, status.OK)
	gt.Equal(t, status.URL, backend.URL)
}

func TestHealthUnreachable(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	backendURL := backend.URL
	backend.Close()

	status := gateway.NewHealthMonitor(adapter.NewModelAPI(backendURL), 0).Check(context.Background())
	gt.False(t, status.OK)
	gt.NotEqual(t, status.Error, "")
}
