package dashboard_test

import (
	"bytes"
	"testing"

	"github.com/leyiUPM/emotion/pkg/service/dashboard"
	"github.com/leyiUPM/emotion/pkg/stats"
	"github.com/m-mizutani/gt"
)

func TestRenderDistribution(t *testing.T) {
	var buf bytes.Buffer
	err := dashboard.RenderDistribution(&buf, []stats.LabelCount{{Label: "joy", Count: 1}})
	gt.NoError(t, err)
	gt.True(t, buf.Len() > 0)

	gt.Error(t, dashboard.RenderDistribution(&bytes.Buffer{}, nil))
}

func TestRenderTrendSinglePoint(t *testing.T) {
	var buf bytes.Buffer
	points := []stats.TrendPoint{{Index: 1, Counts: map[string]int{"joy": 1}}}
	gt.NoError(t, dashboard.RenderTrend(&buf, []string{"joy"}, points))
	gt.True(t, buf.Len() > 0)

	gt.Error(t, dashboard.RenderTrend(&bytes.Buffer{}, nil, points))
}
