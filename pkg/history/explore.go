package history

import (
	"sort"
	"strings"

	"github.com/leyiUPM/emotion/pkg/model"
)

type SortOrder string

const (
	SortNewest  SortOrder = "newest"
	SortHighest SortOrder = "highest"
)

// ExploreOptions filters a history snapshot. Zero values disable each filter.
type ExploreOptions struct {
	Query    string
	Label    string
	MinScore float64
	Sort     SortOrder
	// Limit caps the result; 0 or less returns every match
	Limit int
}

// ParseSortOrder maps user input to a SortOrder, defaulting to SortNewest
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortHighest:
		return SortHighest
	default:
		return SortNewest
	}
}

// Explore returns the predictions of items that match opts. items is not modified.
func Explore(items []*model.Prediction, opts ExploreOptions) []*model.Prediction {
	query := strings.ToLower(strings.TrimSpace(opts.Query))
	label := strings.TrimSpace(opts.Label)

	matched := make([]*model.Prediction, 0, len(items))
	for _, p := range items {
		if query != "" && !strings.Contains(strings.ToLower(p.Text), query) {
			continue
		}
		if label != "" && !p.HasLabel(label, opts.MinScore) {
			continue
		}
		matched = append(matched, p)
	}

	switch opts.Sort {
	case SortHighest:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].MaxScore() > matched[j].MaxScore()
		})
	default:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
	}

	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched
}
