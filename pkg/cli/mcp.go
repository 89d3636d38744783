package cli

import (
	"context"

	"github.com/leyiUPM/emotion/pkg/service/mcp"
	"github.com/leyiUPM/emotion/pkg/usecase/predict"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, storageFlags(&cfg)...)
	flags = append(flags, predictFlags(&cfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve prediction and history tools over MCP (stdio)",
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
			return mcp.NewServer(uc, store, prof, Version).RunStdio(ctx)
		},
	}
}
