package repository

import (
	"context"
	"errors"
	"io"

	"github.com/leyiUPM/emotion/pkg/adapter"
	"github.com/leyiUPM/emotion/pkg/interfaces"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Object persists the history as a single JSON object in an object store
type Object struct {
	storage adapter.Storage
	key     string
}

var _ interfaces.HistoryRepository = (*Object)(nil)

// NewObject stores the history at "<key>.json"
func NewObject(storage adapter.Storage, key string) *Object {
	if key == "" {
		key = DefaultKey
	}
	return &Object{storage: storage, key: key + ".json"}
}

func (o *Object) LoadPredictions(ctx context.Context) ([]*model.Prediction, error) {
	reader, err := o.storage.Get(ctx, o.key)
	if errors.Is(err, adapter.ErrObjectNotFound) {
		return []*model.Prediction{}, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open history object", goerr.V("key", o.key))
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read history object", goerr.V("key", o.key))
	}

	return Decode(data)
}

func (o *Object) SavePredictions(ctx context.Context, preds []*model.Prediction) error {
	data, err := Encode(preds)
	if err != nil {
		return err
	}

	writer, err := o.storage.Put(ctx, o.key)
	if err != nil {
		return goerr.Wrap(err, "failed to create storage writer", goerr.V("key", o.key))
	}

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return goerr.Wrap(err, "failed to write history object", goerr.V("key", o.key))
	}

	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to close storage writer", goerr.V("key", o.key))
	}
	return nil
}
