package gateway_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leyiUPM/emotion/pkg/adapter"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/service/gateway"
	"github.com/leyiUPM/emotion/pkg/usecase/predict"
	"github.com/m-mizutani/gt"
)

func newGateway(t *testing.T, backendURL string, opts ...gateway.Option) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	gateway.NewHandler(adapter.NewModelAPI(backendURL), opts...).Register(mux, nil)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (int, *model.Envelope) {
	t.Helper()
	resp, err := http.Post(url+"/api/predict", "application/json", strings.NewReader(body))
	gt.NoError(t, err)
	defer resp.Body.Close()

	var env model.Envelope
	gt.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, &env
}

func TestForwardSuccess(t *testing.T) {
	var forwarded string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/predict")
		b, _ := io.ReadAll(r.Body)
		forwarded = string(b)
		_, _ = io.WriteString(w, `{"text":"I love this","threshold":0.5,"labels_over_threshold":[],"top":[{"label":"love","score":0.4}]}`)
	}))
	defer backend.Close()

	gw := newGateway(t, backend.URL)
	reqBody := `{"text":"I love this","threshold":0.5,"top_k":3}`
	status, env := post(t, gw.URL, reqBody)

	gt.Equal(t, status, http.StatusOK)
	gt.True(t, env.OK)
	gt.Equal(t, forwarded, reqBody)

	var data model.PredictResponse
	gt.NoError(t, json.Unmarshal(env.Data, &data))
	gt.Equal(t, data.Text, "I love this")
	gt.A(t, data.Top).Length(1)
}

func TestForwardBackendError(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"detail":"Missing label_names.json"}`)
	}))
	defer backend.Close()

	status, env := post(t, newGateway(t, backend.URL).URL, `{"text":"x"}`)
	gt.Equal(t, status, http.StatusBadGateway)
	gt.False(t, env.OK)
	gt.Equal(t, env.Error, `{"detail":"Missing label_names.json"}`)
	gt.Equal(t, env.Detail, "")
}

func TestForwardUnreachable(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	backendURL := backend.URL
	backend.Close()

	status, env := post(t, newGateway(t, backendURL).URL, `{"text":"x"}`)
	gt.Equal(t, status, http.StatusBadGateway)
	gt.False(t, env.OK)
	gt.Equal(t, env.Error, predict.UnreachableMessage)
	gt.NotEqual(t, env.Detail, "")
}

func TestInvalidRequestBody(t *testing.T) {
	called := false
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer backend.Close()

	status, env := post(t, newGateway(t, backend.URL).URL, `{"text":`)
	gt.Equal(t, status, http.StatusBadRequest)
	gt.Equal(t, env.Error, "invalid request body")
	gt.False(t, called)
}

func TestMethodNotAllowed(t *testing.T) {
	gw := newGateway(t, "http://127.0.0.1:1")
	resp, err := http.Get(gw.URL + "/api/predict")
	gt.NoError(t, err)
	defer resp.Body.Close()
	gt.Equal(t, resp.StatusCode, http.StatusMethodNotAllowed)
}

func TestGatewayClientRoundTrip(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"text":"ok","threshold":0.3,"labels_over_threshold":[{"label":"joy","score":0.7}],"top":[{"label":"joy","score":0.7}]}`)
	}))
	defer backend.Close()

	gw := newGateway(t, backend.URL, gateway.WithMaxRPS(100))
	uc := predict.New(adapter.NewGatewayClient(gw.URL, nil), nil)

	p, err := uc.Predict(context.Background(), "ok", 0.3, 5)
	gt.NoError(t, err)
	gt.Equal(t, p.LabelsOverThreshold, []model.LabelScore{{Label: "joy", Score: 0.7}})
}

func TestGatewayClientSeesUnreachableMessage(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	backendURL := backend.URL
	backend.Close()

	gw := newGateway(t, backendURL)
	_, err := predict.New(adapter.NewGatewayClient(gw.URL, nil), nil).Predict(context.Background(), "x", 0.5, 5)
	gt.Error(t, err)
	gt.Equal(t, predict.Message(err), predict.UnreachableMessage)
}
