package tool

import (
	"context"

	"google.golang.org/genai"
)

// Tool is a named action the reasoning engine may request. Execution and
// the result are owned by this service, not the engine.
type Tool interface {
	// Spec returns the tool specification for Gemini function calling
	Spec() *genai.Tool

	// Execute runs the tool with the given function call. Validation
	// failures are returned inside the response under an "error" key so
	// the model can recover; a non-nil error means the loop itself is
	// broken and the task fails.
	Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error)

	// Prompt returns additional information to be added to the system
	// prompt, or empty string
	Prompt(ctx context.Context) string
}
