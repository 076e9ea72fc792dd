package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flyboard/agentd/pkg/model"
	"github.com/flyboard/agentd/pkg/server"
	"github.com/flyboard/agentd/pkg/usecase/agent"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

type mockRunner struct {
	result *model.RunResult
	err    error
	input  agent.RunInput
}

func (m *mockRunner) Run(ctx context.Context, input agent.RunInput) (*model.RunResult, error) {
	m.input = input
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockSearcher struct {
	results []model.ScoredResult
	err     error
	query   string
	topK    int
	filters *model.SearchFilters
}

func (m *mockSearcher) Search(ctx context.Context, query string, topK int, filters *model.SearchFilters) ([]model.ScoredResult, error) {
	m.query = query
	m.topK = topK
	m.filters = filters
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	handler := server.New(&mockRunner{}, &mockSearcher{}, nil, ":0").Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	gt.V(t, w.Code).Equal(http.StatusOK)
	gt.V(t, decodeBody(t, w)["status"]).Equal("ok")
}

func TestAgentRun(t *testing.T) {
	runner := &mockRunner{result: &model.RunResult{
		TraceID:     "trace_abc",
		FinalAnswer: "done",
		ToolCalls:   []model.ToolCallRecord{},
		Metrics:     model.RunMetrics{LatencyMS: 12, Model: "gemini-test", ModelCalls: 1},
	}}
	handler := server.New(runner, &mockSearcher{}, nil, ":0").Handler()

	w := postJSON(t, handler, "/v1/agent/run", `{"task":"help","customer_id":"cus_1","language":"en"}`)
	gt.V(t, w.Code).Equal(http.StatusOK)

	body := decodeBody(t, w)
	gt.V(t, body["trace_id"]).Equal("trace_abc")
	gt.V(t, body["final_answer"]).Equal("done")
	gt.V(t, runner.input.Task).Equal("help")
	gt.V(t, runner.input.CustomerID).Equal("cus_1")
	gt.V(t, runner.input.Language).Equal("en")
}

func TestAgentRunBadBody(t *testing.T) {
	handler := server.New(&mockRunner{}, &mockSearcher{}, nil, ":0").Handler()

	w := postJSON(t, handler, "/v1/agent/run", `{"task":`)
	gt.V(t, w.Code).Equal(http.StatusBadRequest)
	gt.V(t, decodeBody(t, w)["error"]).Equal("validation_error")
}

func TestAgentRunErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "validation",
			err:        goerr.Wrap(model.ErrValidation, "empty task"),
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_error",
		},
		{
			name: "upstream",
			err: goerr.Wrap(model.ErrUpstream, "engine failed",
				goerr.V("trace_id", model.TraceID("trace_up"))),
			wantStatus: http.StatusBadGateway,
			wantError:  "upstream_error",
		},
		{
			name: "iteration limit",
			err: goerr.Wrap(model.ErrIterationLimit, "did not converge",
				goerr.V("trace_id", model.TraceID("trace_it")),
				goerr.V("max_iterations", 6)),
			wantStatus: http.StatusBadGateway,
			wantError:  "iteration_limit",
		},
		{
			name: "deadline",
			err: goerr.Wrap(model.ErrDeadlineExceeded, "too slow",
				goerr.V("trace_id", model.TraceID("trace_dl"))),
			wantStatus: http.StatusGatewayTimeout,
			wantError:  "timeout",
		},
		{
			name:       "unexpected",
			err:        goerr.New("something else"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := server.New(&mockRunner{err: tc.err}, &mockSearcher{}, nil, ":0").Handler()

			w := postJSON(t, handler, "/v1/agent/run", `{"task":"anything"}`)
			gt.V(t, w.Code).Equal(tc.wantStatus)

			body := decodeBody(t, w)
			gt.V(t, body["error"]).Equal(tc.wantError)

			if strings.HasPrefix(tc.name, "upstream") {
				gt.V(t, body["trace_id"]).Equal("trace_up")
			}
			if tc.name == "iteration limit" {
				gt.V(t, body["trace_id"]).Equal("trace_it")
				gt.V(t, body["max_iterations"]).Equal(float64(6))
			}
		})
	}
}

func TestKBSearch(t *testing.T) {
	searcher := &mockSearcher{results: []model.ScoredResult{
		{ID: "kb-1", Title: "Billing", Score: 1.0, Snippet: "billing guide"},
	}}
	handler := server.New(&mockRunner{}, searcher, nil, ":0").Handler()

	w := postJSON(t, handler, "/v1/kb/search", `{"query":"billing","top_k":3,"filters":{"audience":"internal","tags":["ops"]}}`)
	gt.V(t, w.Code).Equal(http.StatusOK)

	gt.V(t, searcher.query).Equal("billing")
	gt.V(t, searcher.topK).Equal(3)
	gt.V(t, searcher.filters.Audience).Equal("internal")
	gt.V(t, searcher.filters.Tags).Equal([]string{"ops"})

	body := decodeBody(t, w)
	results := gt.Cast[[]any](t, body["results"])
	gt.V(t, len(results)).Equal(1)
}

func TestKBSearchValidation(t *testing.T) {
	searcher := &mockSearcher{err: goerr.Wrap(model.ErrValidation, "empty query")}
	handler := server.New(&mockRunner{}, searcher, nil, ":0").Handler()

	w := postJSON(t, handler, "/v1/kb/search", `{"query":""}`)
	gt.V(t, w.Code).Equal(http.StatusBadRequest)
	gt.V(t, decodeBody(t, w)["error"]).Equal("validation_error")
}

func TestKBSearchFailure(t *testing.T) {
	searcher := &mockSearcher{err: goerr.New("document unreadable")}
	handler := server.New(&mockRunner{}, searcher, nil, ":0").Handler()

	w := postJSON(t, handler, "/v1/kb/search", `{"query":"billing"}`)
	gt.V(t, w.Code).Equal(http.StatusInternalServerError)
	gt.V(t, decodeBody(t, w)["error"]).Equal("internal_error")
}
