package cli

import (
	"context"
	"fmt"

	"github.com/leyiUPM/emotion/pkg/usecase/insight"
	"github.com/urfave/cli/v3"
)

func insightCommand() *cli.Command {
	var (
		cfg      config
		language string
		recent   int64
		dryRun   bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "language",
			Usage:       "Language of the report",
			Value:       "English",
			Sources:     cli.EnvVars("EMOTION_INSIGHT_LANGUAGE"),
			Destination: &language,
		},
		&cli.IntFlag{
			Name:        "recent",
			Usage:       "Number of recent comments quoted to the model",
			Value:       10,
			Destination: &recent,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Print the prompt instead of calling Gemini",
			Destination: &dryRun,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "insight",
		Usage: "Ask Gemini for a short narrative of the emotional trend",
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

			opts := []insight.Option{
				insight.WithLanguage(language),
				insight.WithRecent(int(recent)),
				insight.WithSummaryOptions(prof.SummaryOptions()),
			}

			if dryRun {
				prompt, err := insight.New(nil, opts...).BuildPrompt(store.Items())
				if err != nil {
					return err
				}
				fmt.Fprintln(c.Root().Writer, prompt)
				return nil
			}

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			report, err := insight.New(gemini, opts...).Generate(ctx, store.Items())
			if err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, headerStyle.Render("Insight"))
			fmt.Fprintln(c.Root().Writer, report)
			return nil
		},
	}
}
