package model_test

import (
	"strings"
	"testing"

	"github.com/flyboard/agentd/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestNewTraceID(t *testing.T) {
	id := model.NewTraceID()
	gt.True(t, strings.HasPrefix(string(id), "trace_"))

	// "trace_" plus 32 hex characters
	gt.V(t, len(id)).Equal(38)

	gt.V(t, model.NewTraceID() == id).Equal(false)
}
