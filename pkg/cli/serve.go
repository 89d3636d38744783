package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leyiUPM/emotion/pkg/adapter"
	"github.com/leyiUPM/emotion/pkg/service/dashboard"
	"github.com/leyiUPM/emotion/pkg/service/gateway"
	"github.com/leyiUPM/emotion/pkg/service/mcp"
	"github.com/leyiUPM/emotion/pkg/usecase/predict"
	"github.com/leyiUPM/emotion/pkg/utils/logging"
	"github.com/leyiUPM/emotion/pkg/watch"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	var (
		cfg             config
		addr            string
		maxRPS          float64
		healthInterval  time.Duration
		watchDir        string
		slackWebhookURL string
		mcpHTTP         bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Aliases:     []string{"a"},
			Usage:       "Listen address",
			Value:       ":3000",
			Sources:     cli.EnvVars("EMOTION_ADDR"),
			Destination: &addr,
		},
		&cli.FloatFlag{
			Name:        "max-rps",
			Usage:       "Maximum requests per second forwarded to the model API (0 = unlimited)",
			Sources:     cli.EnvVars("EMOTION_MAX_RPS"),
			Destination: &maxRPS,
		},
		&cli.DurationFlag{
			Name:        "health-interval",
			Usage:       "Interval of the model API health probe (default from profile)",
			Sources:     cli.EnvVars("EMOTION_HEALTH_INTERVAL"),
			Destination: &healthInterval,
		},
		&cli.StringFlag{
			Name:        "watch-dir",
			Usage:       "Directory of .rego watch rules evaluated on every new prediction",
			Sources:     cli.EnvVars("EMOTION_WATCH_DIR"),
			Destination: &watchDir,
		},
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook for watch notices",
			Sources:     cli.EnvVars("EMOTION_SLACK_WEBHOOK_URL"),
			Destination: &slackWebhookURL,
		},
		&cli.BoolFlag{
			Name:        "mcp-http",
			Usage:       "Also serve the MCP tools over streamable HTTP at /mcp",
			Sources:     cli.EnvVars("EMOTION_MCP_HTTP"),
			Destination: &mcpHTTP,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)
	flags = append(flags, predictFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the dashboard and the forwarding gateway",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)
			logger := logging.From(ctx)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			prof, err := cfg.loadProfile()
			if err != nil {
				return err
			}
			if healthInterval > 0 {
				prof.HealthInterval = healthInterval
			}

			store, closer, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}
			defer closer()

			if watchDir != "" {
				var opts []watch.Option
				if slackWebhookURL != "" {
					opts = append(opts, watch.WithNotifier(watch.NewSlackNotifier(adapter.NewSlackWebhook(slackWebhookURL))))
				}
				engine, err := watch.New(ctx, watchDir, opts...)
				if err != nil {
					return err
				}
				if engine.Enabled() {
					defer engine.Attach(ctx, store)()
				}
			}

			modelAPI := cfg.newModelAPI()
			monitor := gateway.NewHealthMonitor(modelAPI, prof.HealthInterval)
			if err := monitor.Start(ctx); err != nil {
				return err
			}
			defer monitor.Stop()

			uc := predict.New(cfg.newPredictor(), store)

			mux := http.NewServeMux()
			gateway.NewHandler(modelAPI, gateway.WithMaxRPS(maxRPS)).Register(mux, monitor)
			dashboard.New(uc, store, prof).Register(mux)
			if mcpHTTP {
				mux.Handle("/mcp", mcp.NewServer(uc, store, prof, Version).HTTPHandler())
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           logging.Middleware(mux),
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(net.Listener) context.Context {
					return context.WithoutCancel(ctx)
				},
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server started",
					"addr", addr,
					"model_api", modelAPI.BaseURL(),
					"storage", cfg.storage,
					"history", store.Len(),
				)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "server stopped", goerr.V("addr", addr))
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shut down server")
			}
			return nil
		},
	}
}
