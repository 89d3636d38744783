package model

import (
	"time"

	"github.com/google/uuid"
)

type PredictionID string

// NewPredictionID generates a new unique PredictionID
func NewPredictionID() PredictionID {
	return PredictionID(uuid.New().String())
}

// LabelScore is a single emotion label with the probability assigned by the model
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Prediction is one analyzed comment. It is never modified after creation.
type Prediction struct {
	ID        PredictionID `json:"id"`
	Text      string       `json:"text"`
	CreatedAt time.Time    `json:"createdAt"`
	Threshold float64      `json:"threshold"`

	// Top holds the K highest scoring labels regardless of threshold, descending.
	Top []LabelScore `json:"top"`
	// LabelsOverThreshold keeps the order returned by the model.
	LabelsOverThreshold []LabelScore `json:"labelsOverThreshold"`
}

// MaxScore returns the highest score over threshold, or 0 when nothing was detected
func (p *Prediction) MaxScore() float64 {
	var max float64
	for _, l := range p.LabelsOverThreshold {
		if l.Score > max {
			max = l.Score
		}
	}
	return max
}

// TopScore returns the score of the highest ranked label in Top
func (p *Prediction) TopScore() float64 {
	if len(p.Top) == 0 {
		return 0
	}
	return p.Top[0].Score
}

// HasLabel reports whether label was detected with at least minScore
func (p *Prediction) HasLabel(label string, minScore float64) bool {
	for _, l := range p.LabelsOverThreshold {
		if l.Label == label && l.Score >= minScore {
			return true
		}
	}
	return false
}
