package repository

import (
	"bytes"
	"encoding/json"

	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultKey is the storage key the history is persisted under
const DefaultKey = "emotion_demo_predictions_v1"

var ErrCorruptHistory = goerr.New("persisted history is corrupt")

// Encode serializes the history as a JSON array
func Encode(preds []*model.Prediction) ([]byte, error) {
	if preds == nil {
		preds = []*model.Prediction{}
	}
	data, err := json.Marshal(preds)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal predictions")
	}
	return data, nil
}

// Decode parses a persisted history. Empty input and JSON null yield an empty history;
// anything that is not an array of predictions is ErrCorruptHistory.
func Decode(data []byte) ([]*model.Prediction, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []*model.Prediction{}, nil
	}
	if trimmed[0] != '[' {
		return nil, goerr.Wrap(ErrCorruptHistory, "history is not an array")
	}

	var preds []*model.Prediction
	if err := json.Unmarshal(trimmed, &preds); err != nil {
		return nil, goerr.Wrap(ErrCorruptHistory, "failed to unmarshal predictions", goerr.V("error", err.Error()))
	}

	out := make([]*model.Prediction, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}
