package model

import (
	"encoding/hex"

	"github.com/google/uuid"
)

type TraceID string

// NewTraceID generates a new unique TraceID for correlating logs and
// error responses of one task execution
func NewTraceID() TraceID {
	u := uuid.New()
	return TraceID("trace_" + hex.EncodeToString(u[:]))
}

// ToolCallRecord is an immutable audit entry for one executed tool
// invocation, appended in execution order
type ToolCallRecord struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Result    map[string]any `json:"result"`
}

type RunMetrics struct {
	LatencyMS  int64  `json:"latency_ms"`
	Model      string `json:"model"`
	ModelCalls int    `json:"model_calls"`
}

// RunResult is the response envelope of one task execution
type RunResult struct {
	TraceID     TraceID          `json:"trace_id"`
	FinalAnswer string           `json:"final_answer"`
	ToolCalls   []ToolCallRecord `json:"tool_calls"`
	Metrics     RunMetrics       `json:"metrics"`
}
