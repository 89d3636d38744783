package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/leyiUPM/emotion/pkg/adapter"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/usecase/predict"
	"github.com/leyiUPM/emotion/pkg/utils/logging"
	"golang.org/x/time/rate"
)

const maxRequestBytes = 1 << 20

// Handler serves POST /api/predict by forwarding the body to the model API and wrapping
// the outcome in an Envelope
type Handler struct {
	api     adapter.ModelAPI
	limiter *rate.Limiter
}

// Option is a functional option for Handler
type Option func(*Handler)

// WithMaxRPS bounds forwarded requests per second. 0 or less disables the limit.
func WithMaxRPS(rps float64) Option {
	return func(h *Handler) {
		if rps > 0 {
			h.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			h.limiter = rate.NewLimiter(rate.Inf, 1)
		}
	}
}

func NewHandler(api adapter.ModelAPI, opts ...Option) *Handler {
	h := &Handler{
		api:     api,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the gateway routes on mux. monitor may be nil.
func (h *Handler) Register(mux *http.ServeMux, monitor *HealthMonitor) {
	mux.Handle("POST /api/predict", h)
	if monitor != nil {
		mux.Handle("GET /api/health", monitor)
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.From(ctx)
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil || !json.Valid(body) {
		writeEnvelope(w, http.StatusBadRequest, &model.Envelope{Error: "invalid request body"})
		return
	}

	if err := h.limiter.Wait(ctx); err != nil {
		writeEnvelope(w, http.StatusBadGateway, &model.Envelope{
			Error:  "request cancelled while waiting for the model API",
			Detail: err.Error(),
		})
		return
	}

	data, err := h.api.Forward(ctx, body)
	if err != nil {
		env := failureEnvelope(err)
		logger.Warn("forward failed",
			"url", h.api.BaseURL(),
			"latency", time.Since(start),
			"error", err,
		)
		writeEnvelope(w, http.StatusBadGateway, env)
		return
	}

	logger.Info("forwarded prediction",
		"status", http.StatusOK,
		"latency", time.Since(start),
		"bytes", len(data),
	)
	writeEnvelope(w, http.StatusOK, &model.Envelope{OK: true, Data: data})
}

func failureEnvelope(err error) *model.Envelope {
	var be *adapter.BackendError
	if errors.As(err, &be) {
		if be.StatusCode != 0 {
			return &model.Envelope{Error: be.Body}
		}
		env := &model.Envelope{Error: predict.UnreachableMessage}
		if be.Err != nil {
			env.Detail = be.Err.Error()
		}
		return env
	}

	if errors.Is(err, adapter.ErrInvalidResponse) {
		return &model.Envelope{Error: "The model API returned an invalid response.", Detail: err.Error()}
	}

	return &model.Envelope{Error: predict.UnreachableMessage, Detail: err.Error()}
}

func writeEnvelope(w http.ResponseWriter, status int, env *model.Envelope) {
	writeJSON(w, status, env)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
