package adapter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leyiUPM/emotion/pkg/adapter"
	"github.com/m-mizutani/gt"
)

func TestSlackWebhookPost(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := adapter.NewSlackWebhook(srv.URL).Post(context.Background(), "anger spike", "*text*: this is awful")
	gt.NoError(t, err)
	gt.Equal(t, payload["text"], any("anger spike"))
	gt.NotNil(t, payload["blocks"])
}

func TestSlackWebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := adapter.NewSlackWebhook(srv.URL).Post(context.Background(), "t", "b")
	gt.Error(t, err)
}
