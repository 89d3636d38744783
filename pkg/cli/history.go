package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/leyiUPM/emotion/pkg/history"
	"github.com/leyiUPM/emotion/pkg/stats"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "failed to encode output")
	}
	return nil
}

func statsCommand() *cli.Command {
	var (
		cfg    config
		asJSON bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the summary as JSON",
			Destination: &asJSON,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "stats",
		Usage: "Show aggregated emotions of the history",
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

			summary := stats.Summarize(store.Items(), prof.SummaryOptions())
			if asJSON {
				return writeJSON(c.Root().Writer, summary)
			}
			renderSummary(c.Root().Writer, summary)
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	var (
		cfg      config
		query    string
		label    string
		minScore float64
		sortBy   string
		limit    int64
		asJSON   bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Only comments containing this text (case-insensitive)",
			Destination: &query,
		},
		&cli.StringFlag{
			Name:        "label",
			Usage:       "Only comments where this label was detected",
			Destination: &label,
		},
		&cli.FloatFlag{
			Name:        "min-score",
			Usage:       "Minimum score of --label",
			Value:       0.5,
			Destination: &minScore,
		},
		&cli.StringFlag{
			Name:        "sort",
			Usage:       "Sort order (newest, highest)",
			Value:       string(history.SortNewest),
			Destination: &sortBy,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of comments (default from profile)",
			Sources:     cli.EnvVars("EMOTION_HISTORY_LIMIT"),
			Destination: &limit,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the comments as JSON",
			Destination: &asJSON,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "history",
		Usage: "List and filter past predictions",
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

			n := int(limit)
			if n <= 0 {
				n = prof.ExploreLimit
			}

			items := history.Explore(store.Items(), history.ExploreOptions{
				Query:    query,
				Label:    label,
				MinScore: minScore,
				Sort:     history.ParseSortOrder(sortBy),
				Limit:    n,
			})

			if asJSON {
				return writeJSON(c.Root().Writer, items)
			}
			renderHistory(c.Root().Writer, items)
			return nil
		},
	}
}

func clearCommand() *cli.Command {
	var (
		cfg   config
		force bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "force",
			Aliases:     []string{"f"},
			Usage:       "Confirm clearing the whole history",
			Destination: &force,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "clear",
		Usage: "Delete every prediction in the history",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			if !force {
				return goerr.New("refusing to clear the history without --force")
			}

			store, closer, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}
			defer closer()

			n := store.Len()
			store.Clear(ctx)
			fmt.Fprintf(c.Root().Writer, "Cleared %d predictions\n", n)
			return nil
		},
	}
}
