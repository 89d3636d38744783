package cli_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/leyiUPM/emotion/pkg/cli"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/repository"
	"github.com/leyiUPM/emotion/pkg/usecase/predict"
	"github.com/m-mizutani/gt"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&model.PredictResponse{
			Text:                req.Text,
			Threshold:           req.Threshold,
			LabelsOverThreshold: []model.LabelScore{{Label: "joy", Score: 0.9}},
			Top:                 []model.LabelScore{{Label: "joy", Score: 0.9}, {Label: "love", Score: 0.3}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) {
	t.Helper()
	if err := cli.Run(context.Background(), append([]string{"emotion"}, args...)); err != nil {
		t.Fatalf("emotion %v: %s", args, err.Message)
	}
}

func runFails(t *testing.T, args ...string) *cli.Error {
	t.Helper()
	err := cli.Run(context.Background(), append([]string{"emotion"}, args...))
	if err == nil {
		t.Fatalf("emotion %v: expected an error", args)
	}
	return err
}

func loadHistory(t *testing.T, dbPath string) []*model.Prediction {
	t.Helper()
	repo, err := repository.NewSQLite(dbPath, "")
	gt.NoError(t, err)
	defer repo.Close()

	preds, err := repo.LoadPredictions(context.Background())
	gt.NoError(t, err)
	return preds
}

func TestPredictAndBatch(t *testing.T) {
	backend := newBackend(t)
	dbPath := filepath.Join(t.TempDir(), "history.db")

	run(t, "predict",
		"--db-path", dbPath,
		"--model-api-url", backend.URL,
		"--threshold", "0.4",
		"I love this",
	)

	preds := loadHistory(t, dbPath)
	gt.A(t, preds).Length(1)
	gt.Equal(t, preds[0].Text, "I love this")
	gt.Equal(t, preds[0].Threshold, 0.4)

	input := filepath.Join(t.TempDir(), "comments.txt")
	gt.NoError(t, os.WriteFile(input, []byte("first\n\nsecond\nthird\n"), 0644))

	run(t, "batch",
		"--db-path", dbPath,
		"--model-api-url", backend.URL,
		"--input", input,
	)

	preds = loadHistory(t, dbPath)
	gt.A(t, preds).Length(4)
	gt.Equal(t, preds[0].Text, "third")
	gt.Equal(t, preds[1].Text, "second")
	gt.Equal(t, preds[2].Text, "first")
	gt.Equal(t, preds[3].Text, "I love this")
}

func TestPredictNoSave(t *testing.T) {
	backend := newBackend(t)
	dbPath := filepath.Join(t.TempDir(), "history.db")

	run(t, "predict",
		"--db-path", dbPath,
		"--model-api-url", backend.URL,
		"--no-save",
		"just looking",
	)
	gt.A(t, loadHistory(t, dbPath)).Length(0)
}

func TestPredictUnreachable(t *testing.T) {
	backend := newBackend(t)
	url := backend.URL
	backend.Close()

	err := runFails(t, "predict",
		"--storage", "memory",
		"--model-api-url", url,
		"hello",
	)
	gt.Equal(t, err.Code, 1)
	gt.Equal(t, err.Message, predict.UnreachableMessage)
}

func TestClear(t *testing.T) {
	backend := newBackend(t)
	dbPath := filepath.Join(t.TempDir(), "history.db")

	run(t, "predict", "--db-path", dbPath, "--model-api-url", backend.URL, "hi")

	runFails(t, "clear", "--db-path", dbPath)
	gt.A(t, loadHistory(t, dbPath)).Length(1)

	run(t, "clear", "--db-path", dbPath, "--force")
	gt.A(t, loadHistory(t, dbPath)).Length(0)
}

func TestInvalidSettings(t *testing.T) {
	t.Run("unknown storage", func(t *testing.T) {
		runFails(t, "stats", "--storage", "floppy")
	})

	t.Run("threshold out of range", func(t *testing.T) {
		runFails(t, "predict", "--storage", "memory", "--threshold", "1.5", "hi")
	})

	t.Run("missing text", func(t *testing.T) {
		runFails(t, "predict", "--storage", "memory")
	})
}
