package model

import "encoding/json"

// PredictRequest is the body sent to the model backend and to the gateway
type PredictRequest struct {
	Text      string  `json:"text"`
	Threshold float64 `json:"threshold"`
	TopK      int     `json:"top_k"`
}

// PredictResponse is the body returned by the model backend on success
type PredictResponse struct {
	Text                string       `json:"text"`
	Threshold           float64      `json:"threshold"`
	LabelsOverThreshold []LabelScore `json:"labels_over_threshold"`
	Top                 []LabelScore `json:"top"`
	LatencyMS           float64      `json:"latency_ms,omitempty"`
}

// Envelope wraps gateway responses. OK is false when the backend could not serve the request.
type Envelope struct {
	OK     bool            `json:"ok"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
	Detail string          `json:"detail,omitempty"`
}

// BackendHealth is the result of GET /health on the model backend
type BackendHealth struct {
	OK       bool   `json:"ok"`
	ModelDir string `json:"model_dir,omitempty"`
	Labels   int    `json:"labels,omitempty"`
	Error    string `json:"error,omitempty"`
}
