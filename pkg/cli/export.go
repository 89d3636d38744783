package cli

import (
	"context"
	"fmt"

	"github.com/leyiUPM/emotion/pkg/usecase/export"
	"github.com/urfave/cli/v3"
)

func exportCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, storageFlags(&cfg)...)
	flags = append(flags, cloudFlags(&cfg)...)

	return &cli.Command{
		Name:  "export",
		Usage: "Export the history to a BigQuery table",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			store, closer, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}
			defer closer()

			bq, err := cfg.newBigQuery(ctx)
			if err != nil {
				return err
			}

			n, err := export.New(bq, cfg.dataset, cfg.table).Export(ctx, store.Items())
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Exported %d predictions to %s.%s\n", n, cfg.dataset, cfg.table)
			return nil
		},
	}
}
