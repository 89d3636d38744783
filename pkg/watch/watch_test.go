package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leyiUPM/emotion/pkg/history"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/repository"
	"github.com/leyiUPM/emotion/pkg/watch"
	"github.com/m-mizutani/gt"
)

const angerRule = `package watch

notice contains {
	"rule": "anger",
	"message": sprintf("anger detected at %.2f", [l.score]),
	"severity": "high",
} if {
	some l in input.labels_over_threshold
	l.label == "anger"
	l.score >= 0.8
}

notice contains {
	"rule": "empty",
	"message": "nothing over threshold",
} if {
	count(input.labels_over_threshold) == 0
}
`

type recorder struct {
	mu      sync.Mutex
	notices []*watch.Notice
}

func (r *recorder) Notify(_ context.Context, n *watch.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

func writeRule(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "watch.rego"), []byte(body), 0644))
	return dir
}

func prediction(text string, labels ...model.LabelScore) *model.Prediction {
	if labels == nil {
		labels = []model.LabelScore{}
	}
	return &model.Prediction{
		ID:                  model.NewPredictionID(),
		Text:                text,
		CreatedAt:           time.Now(),
		Threshold:           0.5,
		Top:                 labels,
		LabelsOverThreshold: labels,
	}
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	engine, err := watch.New(ctx, writeRule(t, angerRule))
	gt.NoError(t, err)
	gt.True(t, engine.Enabled())

	t.Run("matching prediction", func(t *testing.T) {
		p := prediction("so furious", model.LabelScore{Label: "anger", Score: 0.91})
		notices, err := engine.Evaluate(ctx, p)
		gt.NoError(t, err)
		gt.A(t, notices).Length(1)
		gt.Equal(t, notices[0].Rule, "anger")
		gt.Equal(t, notices[0].Message, "anger detected at 0.91")
		gt.Equal(t, notices[0].Severity, "high")
		gt.Equal(t, notices[0].PredictionID, p.ID)
		gt.Equal(t, notices[0].Text, "so furious")
	})

	t.Run("below rule score", func(t *testing.T) {
		p := prediction("a bit annoyed", model.LabelScore{Label: "anger", Score: 0.6})
		notices, err := engine.Evaluate(ctx, p)
		gt.NoError(t, err)
		gt.A(t, notices).Length(0)
	})

	t.Run("default severity", func(t *testing.T) {
		notices, err := engine.Evaluate(ctx, prediction("meh"))
		gt.NoError(t, err)
		gt.A(t, notices).Length(1)
		gt.Equal(t, notices[0].Rule, "empty")
		gt.Equal(t, notices[0].Severity, "info")
	})
}

func TestNoRuleFiles(t *testing.T) {
	ctx := context.Background()
	engine, err := watch.New(ctx, t.TempDir())
	gt.NoError(t, err)
	gt.False(t, engine.Enabled())

	notices, err := engine.Evaluate(ctx, prediction("anything"))
	gt.NoError(t, err)
	gt.A(t, notices).Length(0)
}

func TestInvalidRule(t *testing.T) {
	_, err := watch.New(context.Background(), writeRule(t, "package watch\n\nnotice contains {"))
	gt.Error(t, err)
}

func TestAttach(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	engine, err := watch.New(ctx, writeRule(t, angerRule), watch.WithNotifier(rec))
	gt.NoError(t, err)

	store := history.New(ctx, repository.NewMemory())
	detach := engine.Attach(ctx, store)

	store.AddMany(ctx, []*model.Prediction{
		prediction("calm", model.LabelScore{Label: "joy", Score: 0.7}),
		prediction("rage", model.LabelScore{Label: "anger", Score: 0.95}),
	})
	store.Clear(ctx)
	gt.A(t, rec.notices).Length(1)
	gt.Equal(t, rec.notices[0].Text, "rage")

	detach()
	store.Add(ctx, prediction("rage again", model.LabelScore{Label: "anger", Score: 0.99}))
	gt.A(t, rec.notices).Length(1)
}
