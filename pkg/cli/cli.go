package cli

import (
	"context"
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/leyiUPM/emotion/pkg/usecase/predict"
	"github.com/leyiUPM/emotion/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Version is overwritten at build time
var Version = "dev"

type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Run(ctx context.Context, argv []string) *Error {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.From(ctx).Warn("failed to load .env", "error", err)
	}

	cmd := &cli.Command{
		Name:    "emotion",
		Usage:   "Multi-label emotion prediction dashboard",
		Version: Version,
		Commands: []*cli.Command{
			serveCommand(),
			predictCommand(),
			batchCommand(),
			analyzeCommand(),
			statsCommand(),
			historyCommand(),
			clearCommand(),
			exportCommand(),
			insightCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		msg := err.Error()
		if errors.Is(err, predict.ErrPredictionFailed) {
			msg = predict.Message(err)
		}
		logging.Default().Error(msg, "error", err)

		return &Error{
			Code:    1,
			Message: msg,
		}
	}

	return nil
}
