package predict

import (
	"context"
	"time"

	"github.com/leyiUPM/emotion/pkg/history"
	"github.com/leyiUPM/emotion/pkg/interfaces"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/utils/logging"
)

const (
	DefaultThreshold = 0.5
	DefaultTopK      = 5
)

// UseCase turns text into Prediction records through a model endpoint
type UseCase struct {
	predictor interfaces.Predictor
	store     *history.Store
	now       func() time.Time
	progress  func(done, total int)
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithClock replaces time.Now as the source of CreatedAt
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// WithProgress registers fn to be called after every completed batch line
func WithProgress(fn func(done, total int)) Option {
	return func(uc *UseCase) {
		uc.progress = fn
	}
}

// New creates a predict UseCase. store may be nil when only Predict and Batch are used.
func New(predictor interfaces.Predictor, store *history.Store, opts ...Option) *UseCase {
	uc := &UseCase{
		predictor: predictor,
		store:     store,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Predict sends one request and builds a new record from the response. The store is not
// touched.
func (u *UseCase) Predict(ctx context.Context, text string, threshold float64, topK int) (*model.Prediction, error) {
	resp, err := u.predictor.Predict(ctx, &model.PredictRequest{
		Text:      text,
		Threshold: threshold,
		TopK:      topK,
	})
	if err != nil {
		return nil, &Failure{Err: err}
	}

	p := &model.Prediction{
		ID:                  model.NewPredictionID(),
		Text:                resp.Text,
		CreatedAt:           u.now(),
		Threshold:           resp.Threshold,
		Top:                 nonNil(resp.Top),
		LabelsOverThreshold: nonNil(resp.LabelsOverThreshold),
	}

	logging.From(ctx).Debug("prediction completed",
		"id", p.ID,
		"detected", len(p.LabelsOverThreshold),
		"latency_ms", resp.LatencyMS,
	)
	return p, nil
}

// Submit predicts text and prepends the result to the store
func (u *UseCase) Submit(ctx context.Context, text string, threshold float64, topK int) (*model.Prediction, error) {
	p, err := u.Predict(ctx, text, threshold, topK)
	if err != nil {
		return nil, err
	}

	u.store.Add(ctx, p)
	return p, nil
}

func nonNil(labels []model.LabelScore) []model.LabelScore {
	if labels == nil {
		return []model.LabelScore{}
	}
	return labels
}
