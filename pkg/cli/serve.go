package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/flyboard/agentd/pkg/server"
	"github.com/flyboard/agentd/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       ":8080",
			Sources:     cli.EnvVars("AGENTD_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, agentFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the agent router HTTP service",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := cfg.newLogger()
			logging.SetDefault(logger)
			ctx = logging.With(ctx, logger)

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			engine := cfg.newEngine()
			registry, err := cfg.newRegistry(engine)
			if err != nil {
				return err
			}

			runner := cfg.newRunner(gemini, registry)

			// Pre-warm the index when the document changes; searches stay
			// correct without it via the mtime check
			go func() {
				if err := engine.Watch(ctx); err != nil {
					logger.Warn("knowledge base watcher stopped", "error", err)
				}
			}()

			return server.New(runner, engine, logger, addr).Run(ctx)
		},
	}
}
