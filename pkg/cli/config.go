package cli

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/leyiUPM/emotion/pkg/adapter"
	"github.com/leyiUPM/emotion/pkg/history"
	"github.com/leyiUPM/emotion/pkg/interfaces"
	"github.com/leyiUPM/emotion/pkg/profile"
	"github.com/leyiUPM/emotion/pkg/repository"
	"github.com/leyiUPM/emotion/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const (
	storageSQLite    = "sqlite"
	storageGCS       = "gcs"
	storageFirestore = "firestore"
	storageMemory    = "memory"
)

// config holds configuration values
type config struct {
	logLevel    string
	profilePath string

	// Storage
	storage    string
	dbPath     string
	storageKey string
	bucket     string

	// Prediction
	modelAPIURL string
	gatewayURL  string
	httpTimeout time.Duration
	threshold   float64
	topK        int64

	// Google Cloud
	project   string
	database  string
	bqProject string
	dataset   string
	table     string

	// LLM
	geminiProject  string
	geminiLocation string
	geminiModel    string
}

// globalFlags returns flags shared by every command
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("EMOTION_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "profile",
			Usage:       "Path to a dashboard profile (YAML)",
			Sources:     cli.EnvVars("EMOTION_PROFILE"),
			Destination: &cfg.profilePath,
		},
	}
}

// storageFlags returns flags selecting where the history is persisted
func storageFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage",
			Usage:       "History storage (sqlite, gcs, firestore, memory)",
			Value:       storageSQLite,
			Sources:     cli.EnvVars("EMOTION_STORAGE"),
			Destination: &cfg.storage,
		},
		&cli.StringFlag{
			Name:        "db-path",
			Usage:       "SQLite database path",
			Value:       repository.DefaultDBPath(),
			Sources:     cli.EnvVars("EMOTION_DB_PATH"),
			Destination: &cfg.dbPath,
		},
		&cli.StringFlag{
			Name:        "storage-key",
			Usage:       "Key the history is stored under",
			Value:       repository.DefaultKey,
			Sources:     cli.EnvVars("EMOTION_STORAGE_KEY"),
			Destination: &cfg.storageKey,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for gcs storage",
			Sources:     cli.EnvVars("EMOTION_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
	}
}

// predictFlags returns flags for reaching the model and shaping requests
func predictFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model-api-url",
			Usage:       "Base URL of the model API",
			Value:       adapter.DefaultModelAPIURL,
			Sources:     cli.EnvVars("MODEL_API_URL"),
			Destination: &cfg.modelAPIURL,
		},
		&cli.StringFlag{
			Name:        "gateway-url",
			Usage:       "Send predictions through a running gateway instead of the model API",
			Sources:     cli.EnvVars("EMOTION_GATEWAY_URL"),
			Destination: &cfg.gatewayURL,
		},
		&cli.DurationFlag{
			Name:        "http-timeout",
			Usage:       "Timeout of a single model request",
			Value:       adapter.DefaultHTTPTimeout,
			Sources:     cli.EnvVars("EMOTION_HTTP_TIMEOUT"),
			Destination: &cfg.httpTimeout,
		},
		&cli.FloatFlag{
			Name:        "threshold",
			Aliases:     []string{"t"},
			Usage:       "Score a label needs to count as detected (default from profile)",
			Value:       -1,
			Sources:     cli.EnvVars("EMOTION_THRESHOLD"),
			Destination: &cfg.threshold,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Aliases:     []string{"k"},
			Usage:       "Number of labels returned per comment (default from profile)",
			Sources:     cli.EnvVars("EMOTION_TOP_K"),
			Destination: &cfg.topK,
		},
	}
}

// cloudFlags returns flags for the BigQuery export
func cloudFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bigquery-project",
			Usage:       "Google Cloud project ID for BigQuery (defaults to --project)",
			Sources:     cli.EnvVars("BIGQUERY_PROJECT_ID"),
			Destination: &cfg.bqProject,
		},
		&cli.StringFlag{
			Name:        "dataset",
			Usage:       "BigQuery dataset ID",
			Sources:     cli.EnvVars("EMOTION_BIGQUERY_DATASET"),
			Destination: &cfg.dataset,
		},
		&cli.StringFlag{
			Name:        "table",
			Usage:       "BigQuery table ID",
			Value:       "predictions",
			Sources:     cli.EnvVars("EMOTION_BIGQUERY_TABLE"),
			Destination: &cfg.table,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
	}
}

// setup installs the logger selected by --log-level into ctx
func (cfg *config) setup(ctx context.Context) context.Context {
	return logging.Setup(ctx, cfg.logLevel, nil)
}

// loadProfile reads the profile and applies --threshold and --top-k on top of it
func (cfg *config) loadProfile() (*profile.Profile, error) {
	prof, err := profile.Load(cfg.profilePath)
	if err != nil {
		return nil, err
	}

	if cfg.threshold >= 0 {
		prof.Threshold = cfg.threshold
	}
	if cfg.topK > 0 {
		prof.TopK = int(cfg.topK)
	}
	if err := prof.Validate(); err != nil {
		return nil, err
	}
	return prof, nil
}

// newRepository creates the repository selected by --storage. The returned closer is never nil.
func (cfg *config) newRepository(ctx context.Context) (interfaces.HistoryRepository, func(), error) {
	nop := func() {}

	switch cfg.storage {
	case storageSQLite, "":
		path := cfg.dbPath
		if path == "" {
			path = repository.DefaultDBPath()
		}
		repo, err := repository.NewSQLite(filepath.Clean(path), cfg.storageKey)
		if err != nil {
			return nil, nop, goerr.Wrap(err, "failed to create sqlite repository")
		}
		return repo, func() { _ = repo.Close() }, nil

	case storageGCS:
		storage, err := cfg.newStorage(ctx)
		if err != nil {
			return nil, nop, err
		}
		return repository.NewObject(storage, cfg.storageKey), nop, nil

	case storageFirestore:
		if cfg.project == "" {
			return nil, nop, goerr.New("project is required for firestore storage")
		}
		repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database, cfg.storageKey)
		if err != nil {
			return nil, nop, goerr.Wrap(err, "failed to create firestore repository")
		}
		return repo, func() { _ = repo.Close() }, nil

	case storageMemory:
		return repository.NewMemory(), nop, nil

	default:
		return nil, nop, goerr.New("unknown storage", goerr.V("storage", cfg.storage))
	}
}

// newStore opens the repository and loads the history from it
func (cfg *config) newStore(ctx context.Context) (*history.Store, func(), error) {
	repo, closer, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, closer, err
	}
	return history.New(ctx, repo), closer, nil
}

// newStorage creates a new Storage adapter instance
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, goerr.New("bucket name is required")
	}

	storage, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

func (cfg *config) httpClient() *http.Client {
	return &http.Client{Timeout: cfg.httpTimeout}
}

// newModelAPI creates a direct client of the model backend
func (cfg *config) newModelAPI() adapter.ModelAPI {
	return adapter.NewModelAPI(cfg.modelAPIURL, adapter.WithHTTPClient(cfg.httpClient()))
}

// newPredictor returns the gateway client when --gateway-url is set and the model API otherwise
func (cfg *config) newPredictor() interfaces.Predictor {
	if cfg.gatewayURL != "" {
		return adapter.NewGatewayClient(cfg.gatewayURL, cfg.httpClient())
	}
	return cfg.newModelAPI()
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	client, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, adapter.WithGenerativeModel(cfg.geminiModel))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return client, nil
}

// newBigQuery creates a new BigQuery adapter instance
func (cfg *config) newBigQuery(ctx context.Context) (adapter.BigQuery, error) {
	project := cfg.bqProject
	if project == "" {
		project = cfg.project
	}
	if project == "" {
		return nil, goerr.New("project is required for bigquery")
	}
	if cfg.dataset == "" {
		return nil, goerr.New("dataset is required")
	}

	bq, err := adapter.NewBigQuery(ctx, project)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create bigquery client")
	}
	return bq, nil
}
