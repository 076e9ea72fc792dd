package cli_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/flyboard/agentd/pkg/cli"
	"github.com/flyboard/agentd/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestSearchCommand(t *testing.T) {
	entries := []*model.Entry{
		{ID: "kb-1", Title: "Billing exports", Content: "export invoices as csv"},
	}
	data, err := json.Marshal(entries)
	gt.NoError(t, err)

	path := filepath.Join(t.TempDir(), "kb.json")
	gt.NoError(t, os.WriteFile(path, data, 0o644))

	cliErr := cli.Run(context.Background(), []string{
		"agentd", "search", "--query", "billing", "--kb-path", path,
	})
	gt.True(t, cliErr == nil)
}

func TestSearchCommandEmptyQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.json")
	gt.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	cliErr := cli.Run(context.Background(), []string{
		"agentd", "search", "--query", "  ", "--kb-path", path,
	})
	gt.True(t, cliErr != nil)
}

func TestRunCommandRequiresProject(t *testing.T) {
	cliErr := cli.Run(context.Background(), []string{
		"agentd", "run", "--task", "help me", "--gemini-project", "",
	})
	gt.True(t, cliErr != nil)
}
