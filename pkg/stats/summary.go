package stats

import "github.com/leyiUPM/emotion/pkg/model"

// ScoreSpread describes how confident the model was about its top label
type ScoreSpread struct {
	Mean float64 `json:"mean"`
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
}

// SummaryOptions controls the sizes used by Summarize. Zero values use defaults.
type SummaryOptions struct {
	TopEmotions       int
	DistributionLimit int
	TrendWindow       int
}

// Summary holds everything the dashboard shows for a history snapshot
type Summary struct {
	Total        int          `json:"total"`
	TopEmotions  []LabelCount `json:"top_emotions"`
	Distribution []LabelCount `json:"distribution"`
	TrendLabels  []string     `json:"trend_labels"`
	Trend        []TrendPoint `json:"trend"`
	StrongShare  float64      `json:"strong_share"`
	AvgDetected  float64      `json:"avg_detected"`
	TopScore     ScoreSpread  `json:"top_score"`
	Labels       []string     `json:"labels"`
}

// ScoreSpreadOf summarizes the top-1 score of each prediction
func ScoreSpreadOf(preds []*model.Prediction) ScoreSpread {
	scores := make([]float64, 0, len(preds))
	for _, p := range preds {
		if len(p.Top) > 0 {
			scores = append(scores, p.TopScore())
		}
	}
	return ScoreSpread{
		Mean: Mean(scores),
		P50:  Percentile(scores, 50),
		P90:  Percentile(scores, 90),
	}
}

// Summarize derives the dashboard view of preds. The trend follows the most common
// detected emotions.
func Summarize(preds []*model.Prediction, opts SummaryOptions) *Summary {
	if opts.TopEmotions <= 0 {
		opts.TopEmotions = DefaultTopEmotions
	}
	if opts.DistributionLimit <= 0 {
		opts.DistributionLimit = DefaultDistributionLimit
	}
	if opts.TrendWindow <= 0 {
		opts.TrendWindow = DefaultTrendWindow
	}

	top := TopEmotions(preds, opts.TopEmotions)
	labels := make([]string, len(top))
	for i, lc := range top {
		labels[i] = lc.Label
	}

	dist := EmotionDistribution(preds)
	if len(dist) > opts.DistributionLimit {
		dist = dist[:opts.DistributionLimit]
	}

	return &Summary{
		Total:        len(preds),
		TopEmotions:  top,
		Distribution: dist,
		TrendLabels:  labels,
		Trend:        RollingTrend(preds, labels, opts.TrendWindow),
		StrongShare:  StrongShare(preds),
		AvgDetected:  AvgDetected(preds),
		TopScore:     ScoreSpreadOf(preds),
		Labels:       UniqueLabels(preds),
	}
}
