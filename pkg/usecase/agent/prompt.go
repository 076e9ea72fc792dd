package agent

import (
	"context"
	"strings"
)

// systemPrompt builds the fixed operating rules for the agent router, with
// an optional language directive and any tool-specific guidance from the
// registry.
func (r *Runner) systemPrompt(ctx context.Context, language string) string {
	var sb strings.Builder
	sb.WriteString("You are a reliable internal agent router for Flyboard.\n")
	sb.WriteString("You must decide when to use tools and when to answer from the knowledge base.\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Do NOT browse the web. Use only the local knowledge base via tools.\n")
	sb.WriteString("- If the knowledge base doesn't contain the information, say you don't know and offer to create a ticket.\n")
	if language != "" {
		sb.WriteString("- Respond in this language if possible: " + language + "\n")
	}
	sb.WriteString("- When the user asks to open a ticket or schedule follow-up, use the tools.\n")
	sb.WriteString("- Be concise and accurate.\n")
	sb.WriteString("- Always end with a concrete checklist and a recommended next action.\n")
	sb.WriteString("- Do not ask the user questions unless required to proceed.\n")

	if prompts := r.registry.Prompts(ctx); prompts != "" {
		sb.WriteString("\n")
		sb.WriteString(prompts)
		sb.WriteString("\n")
	}

	return sb.String()
}
