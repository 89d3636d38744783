package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/leyiUPM/emotion/pkg/interfaces"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// ErrEnvelopeFailed is returned when the forwarding boundary answers with ok=false
var ErrEnvelopeFailed = goerr.New("gateway reported a failed prediction")

// EnvelopeError carries the error text of a failed envelope
type EnvelopeError struct {
	Message string
	Detail  string
}

func (e *EnvelopeError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return e.Message + " (" + e.Detail + ")"
}

func (e *EnvelopeError) Is(target error) bool {
	return target == ErrEnvelopeFailed
}

// GatewayClient predicts through the forwarding boundary (POST /api/predict)
type GatewayClient struct {
	baseURL string
	client  *http.Client
}

var _ interfaces.Predictor = (*GatewayClient)(nil)

func NewGatewayClient(baseURL string, client *http.Client) *GatewayClient {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &GatewayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (g *GatewayClient) Predict(ctx context.Context, req *model.PredictRequest) (*model.PredictResponse, error) {
	url := g.baseURL + "/api/predict"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal predict request")
	}

	raw, err := postJSON(ctx, g.client, url, body)
	if err != nil {
		// a failed envelope comes back with a 502 status but still carries the message
		env, ok := envelopeFromError(err)
		if !ok {
			return nil, err
		}
		return nil, goerr.Wrap(&EnvelopeError{Message: env.Error, Detail: env.Detail},
			"gateway rejected prediction", goerr.V("url", url))
	}

	var env model.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, goerr.Wrap(ErrInvalidResponse, "failed to decode envelope",
			goerr.V("url", url), goerr.V("error", err.Error()))
	}
	if !env.OK {
		return nil, goerr.Wrap(&EnvelopeError{Message: env.Error, Detail: env.Detail},
			"gateway rejected prediction", goerr.V("url", url))
	}

	return decodePredictResponse(url, env.Data)
}

func envelopeFromError(err error) (*model.Envelope, bool) {
	var be *BackendError
	if !errors.As(err, &be) || be.StatusCode == 0 {
		return nil, false
	}

	// any {"ok": false, ...} body is an envelope, with or without an error text
	var head struct {
		OK *bool `json:"ok"`
	}
	if json.Unmarshal([]byte(be.Body), &head) != nil || head.OK == nil || *head.OK {
		return nil, false
	}

	var env model.Envelope
	if err := json.Unmarshal([]byte(be.Body), &env); err != nil {
		return nil, false
	}
	return &env, true
}
