package searchkb

import (
	"context"
	"errors"

	"github.com/flyboard/agentd/pkg/kb"
	"github.com/flyboard/agentd/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Tool exposes the knowledge base retrieval engine as the search_kb tool
type Tool struct {
	engine *kb.Engine
}

func New(engine *kb.Engine) *Tool {
	return &Tool{engine: engine}
}

// Spec returns the tool specification for Gemini function calling
func (t *Tool) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "search_kb",
				Description: "Search the internal knowledge base for relevant entries.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"query": {
							Type:        genai.TypeString,
							Description: "Free-text search query",
						},
						"top_k": {
							Type:        genai.TypeInteger,
							Description: "Number of results to return (default 5, max 10)",
						},
					},
					Required: []string{"query"},
				},
			},
		},
	}
}

// Execute runs the search. Bad arguments and empty queries come back as an
// error response the model can react to; an unreadable or malformed
// knowledge base document is an infrastructure failure and aborts the loop
// instead of letting the model retry against it.
func (t *Tool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	if fc.Name != "search_kb" {
		return nil, goerr.New("unknown function", goerr.V("name", fc.Name))
	}

	query, _ := fc.Args["query"].(string)
	topK := intArg(fc.Args, "top_k")

	results, err := t.engine.Search(ctx, query, topK, nil)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			return errorResponse(fc, err.Error()), nil
		}
		return nil, goerr.Wrap(err, "knowledge base search failed")
	}

	return &genai.FunctionResponse{
		ID:   fc.ID,
		Name: fc.Name,
		Response: map[string]any{
			"results": results,
		},
	}, nil
}

// Prompt returns additional information to be added to the system prompt
func (t *Tool) Prompt(ctx context.Context) string {
	return "Use search_kb to look up the local knowledge base before answering product questions."
}

func errorResponse(fc genai.FunctionCall, msg string) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:   fc.ID,
		Name: fc.Name,
		Response: map[string]any{
			"error": msg,
		},
	}
}

// intArg reads an integer argument; function call payloads decode numbers
// as float64
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}
