package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flyboard/agentd/pkg/usecase/agent"
	"github.com/flyboard/agentd/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func runCommand() *cli.Command {
	var (
		cfg        config
		task       string
		customerID string
		language   string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "task",
			Aliases:     []string{"t"},
			Usage:       "Task for the agent to perform",
			Destination: &task,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "customer-id",
			Usage:       "Customer identifier appended as task context",
			Destination: &customerID,
		},
		&cli.StringFlag{
			Name:        "language",
			Usage:       "Preferred answer language",
			Destination: &language,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, agentFlags(&cfg)...)

	return &cli.Command{
		Name:  "run",
		Usage: "Run a single task and print the result as JSON",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := cfg.newLogger()
			logging.SetDefault(logger)
			ctx = logging.With(ctx, logger)

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			engine := cfg.newEngine()
			registry, err := cfg.newRegistry(engine)
			if err != nil {
				return err
			}

			result, err := cfg.newRunner(gemini, registry).Run(ctx, agent.RunInput{
				Task:       task,
				CustomerID: customerID,
				Language:   language,
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to marshal run result")
			}

			fmt.Fprintln(c.Root().Writer, string(out))
			return nil
		},
	}
}
