package interfaces

import (
	"context"

	"github.com/leyiUPM/emotion/pkg/model"
)

// HistoryRepository persists the whole prediction history as one collection
type HistoryRepository interface {
	// LoadPredictions returns the persisted history, newest first.
	// Missing data is not an error and yields an empty slice.
	LoadPredictions(ctx context.Context) ([]*model.Prediction, error)

	// SavePredictions replaces the persisted history with preds
	SavePredictions(ctx context.Context, preds []*model.Prediction) error
}

// Predictor sends a single request to a model endpoint
type Predictor interface {
	Predict(ctx context.Context, req *model.PredictRequest) (*model.PredictResponse, error)
}
