package export

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/leyiUPM/emotion/pkg/adapter"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// LabelRow is one label/score pair in an exported row
type LabelRow struct {
	Label string  `bigquery:"label"`
	Score float64 `bigquery:"score"`
}

// Row is the BigQuery shape of a Prediction
type Row struct {
	ID                  string     `bigquery:"id"`
	Text                string     `bigquery:"text"`
	CreatedAt           time.Time  `bigquery:"created_at"`
	Threshold           float64    `bigquery:"threshold"`
	TopLabel            string     `bigquery:"top_label"`
	TopScore            float64    `bigquery:"top_score"`
	Top                 []LabelRow `bigquery:"top"`
	LabelsOverThreshold []LabelRow `bigquery:"labels_over_threshold"`
	ExportedAt          time.Time  `bigquery:"exported_at"`
}

// NewRow converts p into a Row stamped with exportedAt
func NewRow(p *model.Prediction, exportedAt time.Time) *Row {
	row := &Row{
		ID:                  string(p.ID),
		Text:                p.Text,
		CreatedAt:           p.CreatedAt,
		Threshold:           p.Threshold,
		TopScore:            p.TopScore(),
		Top:                 labelRows(p.Top),
		LabelsOverThreshold: labelRows(p.LabelsOverThreshold),
		ExportedAt:          exportedAt,
	}
	if len(p.Top) > 0 {
		row.TopLabel = p.Top[0].Label
	}
	return row
}

func labelRows(labels []model.LabelScore) []LabelRow {
	rows := make([]LabelRow, len(labels))
	for i, l := range labels {
		rows[i] = LabelRow{Label: l.Label, Score: l.Score}
	}
	return rows
}

// Schema returns the table schema inferred from Row
func Schema() (bigquery.Schema, error) {
	schema, err := bigquery.InferSchema(Row{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to infer export schema")
	}
	return schema, nil
}

// UseCase streams history snapshots into a BigQuery table
type UseCase struct {
	bq        adapter.BigQuery
	datasetID string
	tableID   string
	now       func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithClock replaces time.Now as the source of exported_at
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

func New(bq adapter.BigQuery, datasetID, tableID string, opts ...Option) *UseCase {
	uc := &UseCase{
		bq:        bq,
		datasetID: datasetID,
		tableID:   tableID,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Export creates the table when missing and inserts items. Rows use the prediction ID
// as insert ID, so repeating an export does not duplicate recent rows.
func (u *UseCase) Export(ctx context.Context, items []*model.Prediction) (int, error) {
	if strings.TrimSpace(u.datasetID) == "" || strings.TrimSpace(u.tableID) == "" {
		return 0, goerr.New("dataset and table are required",
			goerr.V("dataset", u.datasetID), goerr.V("table", u.tableID))
	}
	if len(items) == 0 {
		return 0, nil
	}

	schema, err := Schema()
	if err != nil {
		return 0, err
	}

	if err := u.bq.EnsureTable(ctx, u.datasetID, u.tableID, schema); err != nil {
		return 0, err
	}

	exportedAt := u.now()
	rows := make([]bigquery.ValueSaver, len(items))
	for i, p := range items {
		rows[i] = &bigquery.StructSaver{
			Struct:   NewRow(p, exportedAt),
			Schema:   schema,
			InsertID: string(p.ID),
		}
	}

	if err := u.bq.Insert(ctx, u.datasetID, u.tableID, rows); err != nil {
		return 0, err
	}

	logging.From(ctx).Info("history exported",
		"dataset", u.datasetID, "table", u.tableID, "rows", len(rows))
	return len(rows), nil
}
