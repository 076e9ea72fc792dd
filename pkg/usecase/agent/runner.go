package agent

import (
	"context"
	"strings"
	"time"

	"github.com/flyboard/agentd/pkg/adapter"
	"github.com/flyboard/agentd/pkg/model"
	"github.com/flyboard/agentd/pkg/tool"
	"github.com/flyboard/agentd/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// fallbackAnswer is returned when the terminal model turn has no text
const fallbackAnswer = "I couldn't generate a final answer. Please try again."

// Config bounds one task execution. Both limits are checked on every turn,
// so a loop that keeps requesting tools stays bounded in wall-clock time
// and call count.
type Config struct {
	MaxDuration       time.Duration
	MaxToolIterations int
	TraceLogs         bool
}

// Runner drives the bounded multi-turn exchange between the reasoning
// engine and the tool catalog
type Runner struct {
	gemini   adapter.Gemini
	registry *tool.Registry
	cfg      Config
}

func New(gemini adapter.Gemini, registry *tool.Registry, cfg Config) *Runner {
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = 60 * time.Second
	}
	if cfg.MaxToolIterations <= 0 {
		cfg.MaxToolIterations = 6
	}

	return &Runner{
		gemini:   gemini,
		registry: registry,
		cfg:      cfg,
	}
}

// RunInput carries one task submission
type RunInput struct {
	Task       string
	CustomerID string
	Language   string
}

// Run executes the tool-calling loop: call the reasoning engine, execute
// any requested tools, feed the outputs back, and stop once a turn carries
// no tool requests.
func (r *Runner) Run(ctx context.Context, input RunInput) (*model.RunResult, error) {
	task := strings.TrimSpace(input.Task)
	if task == "" {
		return nil, goerr.Wrap(model.ErrValidation, "task must be a non-empty string")
	}

	traceID := model.NewTraceID()
	start := time.Now()
	deadline := start.Add(r.cfg.MaxDuration)

	logger := logging.From(ctx).With("trace_id", traceID)
	logger.Info("task started", "model", r.gemini.ModelName())

	userText := task
	if input.CustomerID != "" {
		userText += "\n\n(customer_id: " + input.CustomerID + ")"
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(r.systemPrompt(ctx, input.Language), ""),
		Tools:             r.registry.Specs(),
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		},
	}

	contents := []*genai.Content{
		genai.NewContentFromText(userText, genai.RoleUser),
	}

	modelCalls := 0
	toolIterations := 0
	records := make([]model.ToolCallRecord, 0)

	for {
		if time.Now().After(deadline) {
			err := goerr.Wrap(model.ErrDeadlineExceeded, "no final answer before the task deadline",
				goerr.V("trace_id", traceID),
				goerr.V("max_duration", r.cfg.MaxDuration.String()),
			)
			logger.Error("task deadline exceeded", "error", err)
			return nil, err
		}

		resp, err := r.gemini.GenerateContent(ctx, contents, config)
		modelCalls++
		if err != nil {
			wrapped := goerr.Wrap(model.ErrUpstream, "reasoning engine request failed",
				goerr.V("trace_id", traceID),
				goerr.V("cause", err.Error()),
			)
			logger.Error("upstream model error", "error", wrapped)
			return nil, wrapped
		}

		calls := functionCalls(resp)
		if len(calls) == 0 {
			answer := responseText(resp)
			if answer == "" {
				answer = fallbackAnswer
			}

			latency := time.Since(start).Milliseconds()
			logger.Info("task completed",
				"latency_ms", latency,
				"model_calls", modelCalls,
				"tool_calls", len(records),
			)

			return &model.RunResult{
				TraceID:     traceID,
				FinalAnswer: answer,
				ToolCalls:   records,
				Metrics: model.RunMetrics{
					LatencyMS:  latency,
					Model:      r.gemini.ModelName(),
					ModelCalls: modelCalls,
				},
			}, nil
		}

		toolIterations++
		if toolIterations > r.cfg.MaxToolIterations {
			err := goerr.Wrap(model.ErrIterationLimit, "tool calling did not converge",
				goerr.V("trace_id", traceID),
				goerr.V("max_iterations", r.cfg.MaxToolIterations),
			)
			logger.Error("tool iteration cap exceeded", "error", err)
			return nil, err
		}

		// Append the model turn (including its tool requests) before the
		// responses, keeping the transcript in call order
		for _, candidate := range resp.Candidates {
			if candidate.Content != nil {
				contents = append(contents, candidate.Content)
			}
		}

		for _, fc := range calls {
			args := fc.Args
			if args == nil {
				// A malformed argument payload degrades to an empty one;
				// the tool rejects it with its own validation error
				args = map[string]any{}
			}

			toolStart := time.Now()
			funcResp, err := r.registry.Execute(ctx, genai.FunctionCall{ID: fc.ID, Name: fc.Name, Args: args})
			if err != nil {
				wrapped := goerr.Wrap(err, "tool execution failed", goerr.V("trace_id", traceID), goerr.V("tool", fc.Name))
				logger.Error("tool execution failed", "error", wrapped)
				return nil, wrapped
			}

			records = append(records, model.ToolCallRecord{
				Name:      fc.Name,
				Arguments: args,
				Result:    funcResp.Response,
			})

			logger.Info("tool executed", "tool", fc.Name, "duration_ms", time.Since(toolStart).Milliseconds())
			if r.cfg.TraceLogs {
				logger.Debug("tool trace", "tool", fc.Name, "args", args, "result", funcResp.Response)
			}

			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{FunctionResponse: funcResp}},
			})
		}
	}
}

// functionCalls extracts tool invocation requests from the response in the
// order the model produced them
func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil {
		return nil
	}

	var calls []genai.FunctionCall
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.FunctionCall != nil {
				calls = append(calls, *part.FunctionCall)
			}
		}
	}
	return calls
}

// responseText collects the text parts of a terminal turn
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var texts []string
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if t := strings.TrimSpace(part.Text); t != "" {
				texts = append(texts, t)
			}
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n"))
}
