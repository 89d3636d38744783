package stats

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/leyiUPM/emotion/pkg/model"
)

const (
	DefaultTrendWindow       = 10
	DefaultTopEmotions       = 6
	DefaultDistributionLimit = 12
)

// LabelCount is the number of times a label was observed
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TrendPoint is one position of the rolling trend. Counts has an entry for every requested label.
type TrendPoint struct {
	Index  int
	Counts map[string]int
}

// MarshalJSON flattens the point into {"i": n, "<label>": count, ...} for chart consumers
func (p TrendPoint) MarshalJSON() ([]byte, error) {
	out := make(map[string]int, len(p.Counts)+1)
	for label, count := range p.Counts {
		// "i" is reserved for the index; a label with that name is dropped
		if label == "i" {
			continue
		}
		out[label] = count
	}
	out["i"] = p.Index
	return json.Marshal(out)
}

// Mean returns the arithmetic mean of xs, or 0 when xs is empty
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Percentile returns the nearest-rank percentile p (0-100) of xs, or 0 when xs is empty.
// xs is not modified.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	idx := int(math.Floor((p / 100) * float64(len(sorted))))
	idx = max(0, min(len(sorted)-1, idx))
	return sorted[idx]
}

// TopEmotions counts how many predictions detected each label over threshold and returns
// the topN most frequent. Ties keep the order in which labels were first seen.
// topN <= 0 returns every label.
func TopEmotions(preds []*model.Prediction, topN int) []LabelCount {
	c := newCounter()
	for _, p := range preds {
		for _, l := range p.LabelsOverThreshold {
			c.add(l.Label)
		}
	}

	counts := c.sorted()
	if topN > 0 && len(counts) > topN {
		counts = counts[:topN]
	}
	return counts
}

// EmotionDistribution counts labels across all Top entries, regardless of threshold,
// so the chart stays populated even when few predictions pass it.
func EmotionDistribution(preds []*model.Prediction) []LabelCount {
	c := newCounter()
	for _, p := range preds {
		for _, l := range p.Top {
			c.add(l.Label)
		}
	}
	return c.sorted()
}

// RollingTrend orders predictions by creation time and emits one point per prediction,
// counting detections of each requested label over the trailing window ending at it.
func RollingTrend(preds []*model.Prediction, labels []string, windowSize int) []TrendPoint {
	if windowSize < 1 {
		windowSize = DefaultTrendWindow
	}

	wanted := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		wanted[label] = struct{}{}
	}

	ordered := make([]*model.Prediction, len(preds))
	copy(ordered, preds)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	out := make([]TrendPoint, 0, len(ordered))
	for i := range ordered {
		start := max(0, i-windowSize+1)

		point := TrendPoint{
			Index:  i + 1,
			Counts: make(map[string]int, len(wanted)),
		}
		for label := range wanted {
			point.Counts[label] = 0
		}
		for _, p := range ordered[start : i+1] {
			for _, l := range p.LabelsOverThreshold {
				if _, ok := wanted[l.Label]; ok {
					point.Counts[l.Label]++
				}
			}
		}
		out = append(out, point)
	}
	return out
}

// UniqueLabels returns every label seen in Top, sorted alphabetically
func UniqueLabels(preds []*model.Prediction) []string {
	seen := make(map[string]struct{})
	for _, p := range preds {
		for _, l := range p.Top {
			seen[l.Label] = struct{}{}
		}
	}

	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// StrongShare returns the percentage of predictions with at least one label over threshold
func StrongShare(preds []*model.Prediction) float64 {
	if len(preds) == 0 {
		return 0
	}
	var hits int
	for _, p := range preds {
		if len(p.LabelsOverThreshold) > 0 {
			hits++
		}
	}
	return float64(hits) / float64(len(preds)) * 100
}

// AvgDetected returns the mean number of labels over threshold per prediction
func AvgDetected(preds []*model.Prediction) float64 {
	xs := make([]float64, len(preds))
	for i, p := range preds {
		xs[i] = float64(len(p.LabelsOverThreshold))
	}
	return Mean(xs)
}

// counter tallies labels and remembers first-seen order for stable tie breaking
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(label string) {
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

func (c *counter) sorted() []LabelCount {
	out := make([]LabelCount, 0, len(c.order))
	for _, label := range c.order {
		out = append(out, LabelCount{Label: label, Count: c.counts[label]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}
