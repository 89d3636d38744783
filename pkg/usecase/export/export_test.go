package export_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/usecase/export"
	"github.com/m-mizutani/gt"
)

type mockBigQuery struct {
	ensured   int
	schema    bigquery.Schema
	rows      []bigquery.ValueSaver
	insertErr error
}

func (m *mockBigQuery) EnsureTable(ctx context.Context, datasetID, tableID string, schema bigquery.Schema) error {
	m.ensured++
	m.schema = schema
	return nil
}

func (m *mockBigQuery) Insert(ctx context.Context, datasetID, tableID string, rows []bigquery.ValueSaver) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.rows = append(m.rows, rows...)
	return nil
}

var exportedAt = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func samplePrediction() *model.Prediction {
	return &model.Prediction{
		ID:        model.NewPredictionID(),
		Text:      "I love this",
		CreatedAt: exportedAt.Add(-time.Hour),
		Threshold: 0.5,
		Top: []model.LabelScore{
			{Label: "love", Score: 0.9},
			{Label: "joy", Score: 0.3},
		},
		LabelsOverThreshold: []model.LabelScore{{Label: "love", Score: 0.9}},
	}
}

func TestNewRow(t *testing.T) {
	p := samplePrediction()
	row := export.NewRow(p, exportedAt)

	gt.Equal(t, row.ID, string(p.ID))
	gt.Equal(t, row.TopLabel, "love")
	gt.Equal(t, row.TopScore, 0.9)
	gt.A(t, row.Top).Length(2)
	gt.Equal(t, row.LabelsOverThreshold, []export.LabelRow{{Label: "love", Score: 0.9}})
	gt.Equal(t, row.ExportedAt, exportedAt)
}

func TestSchema(t *testing.T) {
	schema, err := export.Schema()
	gt.NoError(t, err)

	names := map[string]bool{}
	for _, f := range schema {
		names[f.Name] = true
	}
	gt.True(t, names["created_at"])
	gt.True(t, names["labels_over_threshold"])
}

func TestExport(t *testing.T) {
	bq := &mockBigQuery{}
	uc := export.New(bq, "emotion", "predictions", export.WithClock(func() time.Time { return exportedAt }))

	items := []*model.Prediction{samplePrediction(), samplePrediction()}
	n, err := uc.Export(context.Background(), items)
	gt.NoError(t, err)
	gt.Equal(t, n, 2)
	gt.Equal(t, bq.ensured, 1)
	gt.A(t, bq.rows).Length(2)

	saver, ok := bq.rows[0].(*bigquery.StructSaver)
	gt.True(t, ok)
	gt.Equal(t, saver.InsertID, string(items[0].ID))
}

func TestExportEmpty(t *testing.T) {
	bq := &mockBigQuery{}
	n, err := export.New(bq, "emotion", "predictions").Export(context.Background(), nil)
	gt.NoError(t, err)
	gt.Equal(t, n, 0)
	gt.Equal(t, bq.ensured, 0)
}

func TestExportRequiresTarget(t *testing.T) {
	_, err := export.New(&mockBigQuery{}, "", "predictions").Export(context.Background(), []*model.Prediction{samplePrediction()})
	gt.Error(t, err)
}

func TestExportInsertError(t *testing.T) {
	bq := &mockBigQuery{insertErr: errors.New("quota exceeded")}
	n, err := export.New(bq, "emotion", "predictions").Export(context.Background(), []*model.Prediction{samplePrediction()})
	gt.Error(t, err)
	gt.Equal(t, n, 0)
}
