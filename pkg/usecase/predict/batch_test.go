package predict_test

import (
	"context"
	"errors"
	"testing"

	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/usecase/predict"
	"github.com/m-mizutani/gt"
)

func TestBatchIsSequentialAndTrimmed(t *testing.T) {
	fp := &fakePredictor{}
	var progress [][2]int
	uc := predict.New(fp, newStore(t), predict.WithProgress(func(done, total int) {
		progress = append(progress, [2]int{done, total})
	}))

	results, err := uc.Batch(context.Background(), []string{"  first ", "", "   ", "second", "third"}, 0.5, 5)
	gt.NoError(t, err)

	gt.Equal(t, fp.calls, []string{"first", "second", "third"})
	gt.A(t, results).Length(3)
	gt.Equal(t, results[0].Text, "first")
	gt.Equal(t, results[2].Text, "third")
	gt.Equal(t, progress, [][2]int{{1, 3}, {2, 3}, {3, 3}})
}

func TestBatchOnlyBlankLines(t *testing.T) {
	fp := &fakePredictor{}
	uc := predict.New(fp, newStore(t))

	results, err := uc.SubmitBatch(context.Background(), []string{"", "  ", "\t"}, 0.5, 5)
	gt.NoError(t, err)
	gt.A(t, results).Length(0)
	gt.A(t, fp.calls).Length(0)
}

func TestSubmitBatchCommitsInOrder(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	store.Add(ctx, &model.Prediction{ID: model.NewPredictionID(), Text: "older"})

	uc := predict.New(&fakePredictor{}, store)
	_, err := uc.SubmitBatch(ctx, predict.SplitLines("A\nB\r\nC"), 0.5, 5)
	gt.NoError(t, err)

	var got []string
	for _, p := range store.Items() {
		got = append(got, p.Text)
	}
	gt.Equal(t, got, []string{"C", "B", "A", "older"})
}

func TestSubmitBatchFailureCommitsNothing(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	fp := &fakePredictor{failOn: "B", err: errors.New("status 500")}
	uc := predict.New(fp, store)

	results, err := uc.SubmitBatch(ctx, []string{"A", "", "B", "C"}, 0.5, 5)
	gt.True(t, results == nil)
	gt.True(t, errors.Is(err, predict.ErrPredictionFailed))

	var failure *predict.Failure
	gt.True(t, errors.As(err, &failure))
	gt.Equal(t, failure.Line, 3)
	gt.Equal(t, failure.Completed, 1)

	gt.Equal(t, fp.calls, []string{"A", "B"})
	gt.Equal(t, store.Len(), 0)
	gt.S(t, predict.Message(err)).Contains("line 3")
}
