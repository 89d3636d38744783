package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leyiUPM/emotion/pkg/interfaces"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultModelAPIURL = "http://127.0.0.1:8000"
	DefaultHTTPTimeout = 30 * time.Second

	maxResponseBytes = 4 << 20
)

var (
	ErrBackendUnreachable = goerr.New("model API is unreachable")
	ErrBackendStatus      = goerr.New("model API returned an error status")
	ErrInvalidResponse    = goerr.New("model API returned an invalid response")
)

// BackendError describes a failed exchange with a prediction endpoint. StatusCode is 0
// when no response was received.
type BackendError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("could not reach %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("%s returned %d: %s", e.URL, e.StatusCode, e.Body)
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool {
	if e.StatusCode == 0 {
		return target == ErrBackendUnreachable
	}
	return target == ErrBackendStatus
}

// ModelAPI talks to the model server directly
type ModelAPI interface {
	interfaces.Predictor

	// Forward posts body to /predict unchanged and returns the successful response body
	Forward(ctx context.Context, body []byte) (json.RawMessage, error)

	// Health calls GET /health
	Health(ctx context.Context) (*model.BackendHealth, error)

	BaseURL() string
}

type modelAPIClient struct {
	baseURL string
	client  *http.Client
}

type ModelAPIOption func(*modelAPIClient)

// WithHTTPClient replaces the default client whose timeout is DefaultHTTPTimeout
func WithHTTPClient(client *http.Client) ModelAPIOption {
	return func(m *modelAPIClient) {
		m.client = client
	}
}

func NewModelAPI(baseURL string, opts ...ModelAPIOption) ModelAPI {
	if baseURL == "" {
		baseURL = DefaultModelAPIURL
	}

	m := &modelAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *modelAPIClient) BaseURL() string {
	return m.baseURL
}

func (m *modelAPIClient) Forward(ctx context.Context, body []byte) (json.RawMessage, error) {
	return postJSON(ctx, m.client, m.baseURL+"/predict", body)
}

func (m *modelAPIClient) Predict(ctx context.Context, req *model.PredictRequest) (*model.PredictResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal predict request")
	}

	raw, err := m.Forward(ctx, body)
	if err != nil {
		return nil, err
	}

	return decodePredictResponse(m.baseURL+"/predict", raw)
}

func (m *modelAPIClient) Health(ctx context.Context) (*model.BackendHealth, error) {
	url := m.baseURL + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create health request", goerr.V("url", url))
	}

	raw, err := do(m.client, req)
	if err != nil {
		return nil, err
	}

	var health model.BackendHealth
	if err := json.Unmarshal(raw, &health); err != nil {
		return nil, goerr.Wrap(ErrInvalidResponse, "failed to decode health response",
			goerr.V("url", url), goerr.V("error", err.Error()))
	}
	return &health, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request", goerr.V("url", url))
	}
	req.Header.Set("Content-Type", "application/json")

	return do(client, req)
}

// do sends req and returns the body of a 2xx response that holds valid JSON
func do(client *http.Client, req *http.Request) (json.RawMessage, error) {
	url := req.URL.String()

	resp, err := client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(&BackendError{URL: url, Err: err}, "request failed", goerr.V("url", url))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, goerr.Wrap(&BackendError{URL: url, Err: err}, "failed to read response", goerr.V("url", url))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, goerr.Wrap(&BackendError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}, "unexpected status", goerr.V("url", url), goerr.V("status", resp.StatusCode))
	}

	if !json.Valid(raw) {
		return nil, goerr.Wrap(ErrInvalidResponse, "response is not JSON",
			goerr.V("url", url), goerr.V("status", resp.StatusCode))
	}

	return raw, nil
}

func decodePredictResponse(url string, raw []byte) (*model.PredictResponse, error) {
	var resp model.PredictResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, goerr.Wrap(ErrInvalidResponse, "failed to decode predict response",
			goerr.V("url", url), goerr.V("error", err.Error()))
	}
	return &resp, nil
}
