package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/leyiUPM/emotion/pkg/interfaces"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultCollection = "emotion_history"

// Firestore keeps the serialized history in one document. A document is limited to
// 1 MiB, which is a few thousand predictions.
type Firestore struct {
	client     *firestore.Client
	collection string
	key        string
}

var _ interfaces.HistoryRepository = (*Firestore)(nil)

// FirestoreOption is a functional option for the Firestore repository
type FirestoreOption func(*Firestore)

// WithCollection overrides the collection that holds the history document
func WithCollection(name string) FirestoreOption {
	return func(f *Firestore) {
		f.collection = name
	}
}

// NewFirestore connects to the given project and database
func NewFirestore(ctx context.Context, projectID, databaseID, key string, opts ...FirestoreOption) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	if key == "" {
		key = DefaultKey
	}
	f := &Firestore{
		client:     client,
		collection: defaultCollection,
		key:        key,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Firestore) LoadPredictions(ctx context.Context) ([]*model.Prediction, error) {
	snap, err := f.client.Collection(f.collection).Doc(f.key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return []*model.Prediction{}, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get history document",
			goerr.V("collection", f.collection), goerr.V("key", f.key))
	}

	value, err := snap.DataAt("value")
	if err != nil {
		return nil, goerr.Wrap(ErrCorruptHistory, "history document has no value", goerr.V("key", f.key))
	}
	raw, ok := value.(string)
	if !ok {
		return nil, goerr.Wrap(ErrCorruptHistory, "history value is not a string", goerr.V("key", f.key))
	}

	return Decode([]byte(raw))
}

func (f *Firestore) SavePredictions(ctx context.Context, preds []*model.Prediction) error {
	data, err := Encode(preds)
	if err != nil {
		return err
	}

	_, err = f.client.Collection(f.collection).Doc(f.key).Set(ctx, map[string]any{
		"value":      string(data),
		"count":      len(preds),
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to set history document",
			goerr.V("collection", f.collection), goerr.V("key", f.key))
	}
	return nil
}

// Close releases the underlying client
func (f *Firestore) Close() error {
	return f.client.Close()
}
