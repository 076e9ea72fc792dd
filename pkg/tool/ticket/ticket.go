package ticket

import (
	"context"
	"strings"
	"time"

	"github.com/flyboard/agentd/pkg/recorder"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

var severities = map[string]struct{}{
	"low":    {},
	"medium": {},
	"high":   {},
}

// Tool persists support tickets via the shared append-only recorder
type Tool struct {
	rec *recorder.Recorder
}

func New(rec *recorder.Recorder) *Tool {
	return &Tool{rec: rec}
}

// Spec returns the tool specification for Gemini function calling
func (t *Tool) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "create_ticket",
				Description: "Create a support ticket for the customer.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"customer_id": {
							Type:        genai.TypeString,
							Description: "Identifier of the customer the ticket is for",
						},
						"title": {
							Type:        genai.TypeString,
							Description: "Short ticket title",
						},
						"description": {
							Type:        genai.TypeString,
							Description: "Detailed description of the problem",
						},
						"severity": {
							Type:        genai.TypeString,
							Description: "Ticket severity (default medium)",
							Enum:        []string{"low", "medium", "high"},
						},
					},
					Required: []string{"customer_id", "title", "description"},
				},
			},
		},
	}
}

// Execute validates the arguments and appends one ticket record. Validation
// failures surface as an error response turn, not a loop failure.
func (t *Tool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	if fc.Name != "create_ticket" {
		return nil, goerr.New("unknown function", goerr.V("name", fc.Name))
	}

	customerID := strings.TrimSpace(stringArg(fc.Args, "customer_id"))
	title := strings.TrimSpace(stringArg(fc.Args, "title"))
	description := strings.TrimSpace(stringArg(fc.Args, "description"))
	severity := strings.TrimSpace(stringArg(fc.Args, "severity"))

	if customerID == "" {
		return errorResponse(fc, "customer_id must be a non-empty string"), nil
	}
	if title == "" {
		return errorResponse(fc, "title must be a non-empty string"), nil
	}
	if description == "" {
		return errorResponse(fc, "description must be a non-empty string"), nil
	}
	if severity == "" {
		severity = "medium"
	}
	if _, ok := severities[severity]; !ok {
		return errorResponse(fc, "severity must be one of: low, medium, high"), nil
	}

	ticketID, err := t.rec.Append(map[string]any{
		"customer_id": customerID,
		"title":       title,
		"description": description,
		"severity":    severity,
		"status":      "created",
		"created_at":  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to record ticket")
	}

	return &genai.FunctionResponse{
		ID:   fc.ID,
		Name: fc.Name,
		Response: map[string]any{
			"ticket_id": ticketID,
			"status":    "created",
		},
	}, nil
}

// Prompt returns additional information to be added to the system prompt
func (t *Tool) Prompt(ctx context.Context) string {
	return ""
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

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
