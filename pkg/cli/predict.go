package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/leyiUPM/emotion/pkg/usecase/predict"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func predictCommand() *cli.Command {
	var (
		cfg    config
		noSave bool
		asJSON bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "no-save",
			Usage:       "Do not add the prediction to the history",
			Destination: &noSave,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the prediction as JSON",
			Destination: &asJSON,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)
	flags = append(flags, predictFlags(&cfg)...)

	return &cli.Command{
		Name:      "predict",
		Usage:     "Predict the emotions of one comment",
		ArgsUsage: "<text>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			text := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(text) == "" {
				return goerr.New("text is required")
			}

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

			run := uc.Submit
			if noSave {
				run = uc.Predict
			}
			p, err := run(ctx, text, prof.Threshold, prof.TopK)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}
			renderPrediction(w, p)
			return nil
		},
	}
}

func batchCommand() *cli.Command {
	var (
		cfg       config
		inputPath string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "File with one comment per line (default: stdin)",
			Sources:     cli.EnvVars("EMOTION_BATCH_INPUT"),
			Destination: &inputPath,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)
	flags = append(flags, predictFlags(&cfg)...)

	return &cli.Command{
		Name:  "batch",
		Usage: "Predict one comment per line and add them to the history when all succeed",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			var in io.Reader = os.Stdin
			if inputPath != "" {
				f, err := os.Open(inputPath)
				if err != nil {
					return goerr.Wrap(err, "failed to open input file", goerr.V("path", inputPath))
				}
				defer f.Close()
				in = f
			}

			raw, err := io.ReadAll(in)
			if err != nil {
				return goerr.Wrap(err, "failed to read input")
			}

			prof, err := cfg.loadProfile()
			if err != nil {
				return err
			}

			store, closer, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}
			defer closer()

			spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			spin.Suffix = " predicting"
			progress := func(done, total int) {
				spin.Lock()
				spin.Suffix = fmt.Sprintf(" predicting %d/%d", done, total)
				spin.Unlock()
			}

			uc := predict.New(cfg.newPredictor(), store, predict.WithProgress(progress))

			spin.Start()
			added, err := uc.SubmitBatch(ctx, predict.SplitLines(string(raw)), prof.Threshold, prof.TopK)
			spin.Stop()
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if len(added) == 0 {
				fmt.Fprintln(w, mutedStyle.Render("No comments in input."))
				return nil
			}

			fmt.Fprintf(w, "Added %d predictions (history: %d)\n", len(added), store.Len())
			renderHistory(w, store.Items()[:len(added)])
			return nil
		},
	}
}
