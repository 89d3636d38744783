package adapter

import (
	"context"
	"errors"
	"net/http"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/googleapi"
)

// insertChunkSize bounds the rows sent in one streaming insert call
const insertChunkSize = 500

// BigQuery is an interface for BigQuery operations
type BigQuery interface {
	// EnsureTable creates the table with schema unless it already exists
	EnsureTable(ctx context.Context, datasetID, tableID string, schema bigquery.Schema) error

	// Insert streams rows into the table
	Insert(ctx context.Context, datasetID, tableID string, rows []bigquery.ValueSaver) error
}

type bigqueryClient struct {
	client *bigquery.Client
}

// NewBigQuery creates a new BigQuery client
func NewBigQuery(ctx context.Context, projectID string) (BigQuery, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client", goerr.V("project", projectID))
	}

	return &bigqueryClient{client: client}, nil
}

func (bq *bigqueryClient) EnsureTable(ctx context.Context, datasetID, tableID string, schema bigquery.Schema) error {
	table := bq.client.Dataset(datasetID).Table(tableID)

	_, err := table.Metadata(ctx)
	if err == nil {
		return nil
	}
	if !isHTTPStatus(err, http.StatusNotFound) {
		return goerr.Wrap(err, "failed to get table metadata",
			goerr.V("dataset", datasetID), goerr.V("table", tableID))
	}

	err = table.Create(ctx, &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: "created_at",
		},
	})
	// another exporter may have created it in between
	if err != nil && !isHTTPStatus(err, http.StatusConflict) {
		return goerr.Wrap(err, "failed to create table",
			goerr.V("dataset", datasetID), goerr.V("table", tableID))
	}

	return nil
}

func (bq *bigqueryClient) Insert(ctx context.Context, datasetID, tableID string, rows []bigquery.ValueSaver) error {
	inserter := bq.client.Dataset(datasetID).Table(tableID).Inserter()

	for start := 0; start < len(rows); start += insertChunkSize {
		end := min(start+insertChunkSize, len(rows))
		if err := inserter.Put(ctx, rows[start:end]); err != nil {
			return goerr.Wrap(err, "failed to insert rows",
				goerr.V("dataset", datasetID), goerr.V("table", tableID),
				goerr.V("offset", start), goerr.V("count", end-start))
		}
	}

	return nil
}

func isHTTPStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}
