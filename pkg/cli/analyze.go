package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leyiUPM/emotion/pkg/repository"
	"github.com/leyiUPM/emotion/pkg/stats"
	"github.com/leyiUPM/emotion/pkg/usecase/predict"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func analyzeCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, storageFlags(&cfg)...)
	flags = append(flags, predictFlags(&cfg)...)

	return &cli.Command{
		Name:  "analyze",
		Usage: "Interactively analyze comments, one per line",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			prof, err := cfg.loadProfile()
			if err != nil {
				return err
			}

			store, closer, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}
			defer closer()

			uc := predict.New(cfg.newPredictor(), store)

			dataDir := repository.DefaultDataDir()
			if err := os.MkdirAll(dataDir, 0755); err != nil {
				return goerr.Wrap(err, "failed to create data directory", goerr.V("path", dataDir))
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "emotion> ",
				HistoryFile:     filepath.Join(dataDir, "analyze_history"),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return goerr.Wrap(err, "failed to start readline")
			}
			defer rl.Close()

			w := rl.Stdout()
			fmt.Fprintln(w, mutedStyle.Render("Type a comment to analyze. Commands: :stats, :clear, exit"))

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						return nil
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				line = strings.TrimSpace(line)
				switch line {
				case "":
					continue
				case "exit", "quit":
					return nil
				case ":stats":
					renderSummary(w, stats.Summarize(store.Items(), prof.SummaryOptions()))
					continue
				case ":clear":
					store.Clear(ctx)
					fmt.Fprintln(w, mutedStyle.Render("History cleared."))
					continue
				}

				p, err := uc.Submit(ctx, line, prof.Threshold, prof.TopK)
				if err != nil {
					fmt.Fprintln(w, errorStyle.Render(predict.Message(err)))
					continue
				}
				renderPrediction(w, p)
			}
		},
	}
}
