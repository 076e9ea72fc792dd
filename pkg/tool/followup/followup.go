package followup

import (
	"context"
	"strings"
	"time"

	"github.com/flyboard/agentd/pkg/recorder"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

var channels = map[string]struct{}{
	"email":    {},
	"phone":    {},
	"whatsapp": {},
}

// timeFormats are the accepted shapes for the "when" argument, tried in
// order. Formats without a zone parse as UTC.
var timeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Tool persists customer follow-ups via the shared append-only recorder
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
				Name:        "schedule_followup",
				Description: "Schedule a follow-up with the customer.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"customer_id": {
							Type:        genai.TypeString,
							Description: "Identifier of the customer to follow up with",
						},
						"when": {
							Type:        genai.TypeString,
							Description: "When to follow up, as an ISO-8601 timestamp such as 2026-09-01T10:00:00Z",
						},
						"notes": {
							Type:        genai.TypeString,
							Description: "Optional notes for the follow-up",
						},
						"channel": {
							Type:        genai.TypeString,
							Description: "Contact channel (default email)",
							Enum:        []string{"email", "phone", "whatsapp"},
						},
					},
					Required: []string{"customer_id", "when"},
				},
			},
		},
	}
}

// Execute validates the arguments and appends one follow-up record
func (t *Tool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	if fc.Name != "schedule_followup" {
		return nil, goerr.New("unknown function", goerr.V("name", fc.Name))
	}

	customerID := strings.TrimSpace(stringArg(fc.Args, "customer_id"))
	when := strings.TrimSpace(stringArg(fc.Args, "when"))
	notes := strings.TrimSpace(stringArg(fc.Args, "notes"))
	channel := strings.TrimSpace(stringArg(fc.Args, "channel"))

	if customerID == "" {
		return errorResponse(fc, "customer_id must be a non-empty string"), nil
	}

	at, err := parseWhen(when)
	if err != nil {
		return errorResponse(fc, "when must be a parseable timestamp, e.g. 2026-09-01T10:00:00Z"), nil
	}

	if channel == "" {
		channel = "email"
	}
	if _, ok := channels[channel]; !ok {
		return errorResponse(fc, "channel must be one of: email, phone, whatsapp"), nil
	}

	followupID, err := t.rec.Append(map[string]any{
		"customer_id": customerID,
		"when":        at.Format(time.RFC3339),
		"notes":       notes,
		"channel":     channel,
		"created_at":  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to record follow-up")
	}

	return &genai.FunctionResponse{
		ID:   fc.ID,
		Name: fc.Name,
		Response: map[string]any{
			"scheduled":   true,
			"followup_id": followupID,
		},
	}, nil
}

// Prompt returns additional information to be added to the system prompt
func (t *Tool) Prompt(ctx context.Context) string {
	return ""
}

func parseWhen(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, goerr.New("empty timestamp")
	}

	var lastErr error
	for _, layout := range timeFormats {
		at, err := time.Parse(layout, s)
		if err == nil {
			return at, nil
		}
		lastErr = err
	}
	return time.Time{}, goerr.Wrap(lastErr, "unparseable timestamp", goerr.V("when", s))
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
