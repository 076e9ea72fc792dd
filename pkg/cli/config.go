package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/flyboard/agentd/pkg/adapter"
	"github.com/flyboard/agentd/pkg/kb"
	"github.com/flyboard/agentd/pkg/model"
	"github.com/flyboard/agentd/pkg/recorder"
	"github.com/flyboard/agentd/pkg/tool"
	"github.com/flyboard/agentd/pkg/tool/followup"
	"github.com/flyboard/agentd/pkg/tool/searchkb"
	"github.com/flyboard/agentd/pkg/tool/ticket"
	"github.com/flyboard/agentd/pkg/usecase/agent"
	"github.com/flyboard/agentd/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Reasoning engine
	geminiProject  string
	geminiLocation string
	geminiModel    string

	// Knowledge base and recorders
	kbPath  string
	kbTopK  int64
	dataDir string

	// Task bounds
	maxSeconds    int64
	maxIterations int64
	traceLogs     bool

	logLevel string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("AGENTD_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.BoolFlag{
			Name:        "trace-logs",
			Usage:       "Log tool arguments and results at debug level",
			Sources:     cli.EnvVars("AGENTD_TRACE_LOGS"),
			Destination: &cfg.traceLogs,
		},
	}
}

// geminiFlags returns flags for the reasoning engine with destination config
func geminiFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
	}
}

// agentFlags returns flags for the task loop, knowledge base and recorders
func agentFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "kb-path",
			Usage:       "Path to the knowledge base document (.json, .yaml)",
			Value:       "kb.json",
			Sources:     cli.EnvVars("AGENTD_KB_PATH"),
			Destination: &cfg.kbPath,
		},
		&cli.IntFlag{
			Name:        "kb-top-k",
			Usage:       "Default number of knowledge base search results",
			Value:       5,
			Sources:     cli.EnvVars("AGENTD_KB_TOP_K"),
			Destination: &cfg.kbTopK,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory for ticket and follow-up logs",
			Value:       "data",
			Sources:     cli.EnvVars("AGENTD_DATA_DIR"),
			Destination: &cfg.dataDir,
		},
		&cli.IntFlag{
			Name:        "max-seconds",
			Usage:       "Maximum wall-clock seconds per task",
			Value:       60,
			Sources:     cli.EnvVars("AGENTD_MAX_SECONDS"),
			Destination: &cfg.maxSeconds,
		},
		&cli.IntFlag{
			Name:        "max-iterations",
			Usage:       "Maximum tool-calling iterations per task",
			Value:       6,
			Sources:     cli.EnvVars("AGENTD_MAX_ITERATIONS"),
			Destination: &cfg.maxIterations,
		},
	}
}

// newLogger creates the process logger honoring --log-level
func (cfg *config) newLogger() *slog.Logger {
	return logging.New(cfg.logLevel, os.Stdout)
}

// newGemini creates the reasoning engine client
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.Wrap(model.ErrConfiguration, "gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.Wrap(model.ErrConfiguration, "gemini-location is required")
	}

	gemini, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, adapter.WithModel(cfg.geminiModel))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return gemini, nil
}

// newEngine creates the retrieval engine over the knowledge base document
func (cfg *config) newEngine() *kb.Engine {
	return kb.New(cfg.kbPath, kb.WithDefaultTopK(int(cfg.kbTopK)))
}

// newRegistry builds the fixed tool catalog
func (cfg *config) newRegistry(engine *kb.Engine) (*tool.Registry, error) {
	tickets, err := recorder.New(cfg.dataDir, "tickets", "TICK")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create ticket recorder")
	}

	followups, err := recorder.New(cfg.dataDir, "followups", "FUP")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create follow-up recorder")
	}

	return tool.New(
		searchkb.New(engine),
		ticket.New(tickets),
		followup.New(followups),
	), nil
}

// newRunner wires the orchestration loop
func (cfg *config) newRunner(gemini adapter.Gemini, registry *tool.Registry) *agent.Runner {
	return agent.New(gemini, registry, agent.Config{
		MaxDuration:       time.Duration(cfg.maxSeconds) * time.Second,
		MaxToolIterations: int(cfg.maxIterations),
		TraceLogs:         cfg.traceLogs,
	})
}
