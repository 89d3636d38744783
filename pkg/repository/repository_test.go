package repository_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leyiUPM/emotion/pkg/adapter"
	"github.com/leyiUPM/emotion/pkg/interfaces"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func samplePredictions() []*model.Prediction {
	base := time.Date(2026, 3, 4, 5, 6, 7, 8000000, time.UTC)
	return []*model.Prediction{
		{
			ID:        model.NewPredictionID(),
			Text:      "I love this",
			CreatedAt: base.Add(time.Minute),
			Threshold: 0.5,
			Top: []model.LabelScore{
				{Label: "joy", Score: 0.9},
				{Label: "admiration", Score: 0.6},
				{Label: "neutral", Score: 0.2},
			},
			LabelsOverThreshold: []model.LabelScore{
				{Label: "joy", Score: 0.9},
				{Label: "admiration", Score: 0.6},
			},
		},
		{
			ID:                  model.NewPredictionID(),
			Text:                "  spaces and \"quotes\" are kept\n",
			CreatedAt:           base,
			Threshold:           0.25,
			Top:                 []model.LabelScore{{Label: "neutral", Score: 0.1}},
			LabelsOverThreshold: []model.LabelScore{},
		},
	}
}

// memoryStorage is an in-memory adapter.Storage
type memoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{data: make(map[string][]byte)}
}

type memoryWriter struct {
	*bytes.Buffer
	storage *memoryStorage
	key     string
}

func (w *memoryWriter) Close() error {
	w.storage.mu.Lock()
	defer w.storage.mu.Unlock()
	w.storage.data[w.key] = w.Buffer.Bytes()
	return nil
}

func (m *memoryStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	return &memoryWriter{Buffer: &bytes.Buffer{}, storage: m, key: key}, nil
}

func (m *memoryStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, goerr.Wrap(adapter.ErrObjectNotFound, "not found", goerr.V("key", key))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func newSQLite(t *testing.T, key string) *repository.SQLite {
	repo, err := repository.NewSQLite(filepath.Join(t.TempDir(), "history.db"), key)
	gt.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRoundTrip(t *testing.T) {
	testCases := map[string]func(t *testing.T) interfaces.HistoryRepository{
		"memory": func(t *testing.T) interfaces.HistoryRepository {
			return repository.NewMemory()
		},
		"sqlite": func(t *testing.T) interfaces.HistoryRepository {
			return newSQLite(t, "")
		},
		"object": func(t *testing.T) interfaces.HistoryRepository {
			return repository.NewObject(newMemoryStorage(), "")
		},
	}

	for name, newRepo := range testCases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)

			empty, err := repo.LoadPredictions(ctx)
			gt.NoError(t, err)
			gt.A(t, empty).Length(0)

			want := samplePredictions()
			gt.NoError(t, repo.SavePredictions(ctx, want))

			got, err := repo.LoadPredictions(ctx)
			gt.NoError(t, err)
			gt.Equal(t, got, want)

			// last write wins
			gt.NoError(t, repo.SavePredictions(ctx, want[1:]))
			got, err = repo.LoadPredictions(ctx)
			gt.NoError(t, err)
			gt.A(t, got).Length(1)
			gt.Equal(t, got[0].ID, want[1].ID)

			gt.NoError(t, repo.SavePredictions(ctx, nil))
			got, err = repo.LoadPredictions(ctx)
			gt.NoError(t, err)
			gt.A(t, got).Length(0)
		})
	}
}

func TestDecode(t *testing.T) {
	for _, raw := range []string{"", "   ", "null", "[]"} {
		preds, err := repository.Decode([]byte(raw))
		gt.NoError(t, err)
		gt.A(t, preds).Length(0)
	}

	for _, raw := range []string{"{}", `"text"`, "[1,2", "42", `[{"id": 5}]`} {
		_, err := repository.Decode([]byte(raw))
		gt.Error(t, err)
		gt.True(t, errors.Is(err, repository.ErrCorruptHistory))
	}

	preds, err := repository.Decode([]byte(`[null, {"id":"a","text":"x","createdAt":"2026-01-01T00:00:00Z","threshold":0.5,"top":[],"labelsOverThreshold":[]}]`))
	gt.NoError(t, err)
	gt.A(t, preds).Length(1)
	gt.Equal(t, preds[0].ID, model.PredictionID("a"))
}

func TestEncodeUsesPredictionShape(t *testing.T) {
	data, err := repository.Encode(samplePredictions()[:1])
	gt.NoError(t, err)
	for _, field := range []string{`"id"`, `"text"`, `"createdAt"`, `"threshold"`, `"top"`, `"labelsOverThreshold"`} {
		gt.S(t, string(data)).Contains(field)
	}

	empty, err := repository.Encode(nil)
	gt.NoError(t, err)
	gt.Equal(t, string(empty), "[]")
}

func TestSQLiteKeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	a, err := repository.NewSQLite(path, "a")
	gt.NoError(t, err)
	defer a.Close()
	gt.NoError(t, a.SavePredictions(ctx, samplePredictions()))

	b, err := repository.NewSQLite(path, "b")
	gt.NoError(t, err)
	defer b.Close()

	got, err := b.LoadPredictions(ctx)
	gt.NoError(t, err)
	gt.A(t, got).Length(0)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	first, err := repository.NewSQLite(path, "")
	gt.NoError(t, err)
	want := samplePredictions()
	gt.NoError(t, first.SavePredictions(ctx, want))
	gt.NoError(t, first.Close())

	second, err := repository.NewSQLite(path, "")
	gt.NoError(t, err)
	defer second.Close()

	got, err := second.LoadPredictions(ctx)
	gt.NoError(t, err)
	gt.Equal(t, got, want)
}

func TestDefaultDBPathHonorsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	gt.Equal(t, repository.DefaultDBPath(), filepath.Join(dir, "emotion", "history.db"))
}

func TestMemoryCorruptData(t *testing.T) {
	repo := repository.NewMemoryWithData([]byte("not json"))
	_, err := repo.LoadPredictions(context.Background())
	gt.True(t, errors.Is(err, repository.ErrCorruptHistory))
}
