package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/agent"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/dialogue"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

type stubFlow struct {
	last *agent.Request
	resp *agent.Response
	err  error
}

func (f *stubFlow) Invoke(ctx context.Context, input *agent.Request) (*agent.Response, error) {
	f.last = input
	return f.resp, f.err
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChat(t *testing.T) {
	flow := &stubFlow{resp: &agent.Response{
		Text:      "Yatırımı hangi ilde yapmayı planlıyorsunuz?",
		Citations: []dialogue.Citation{{DocumentID: "doc-1", Title: "Rehber"}},
		Decision:  types.DecisionStartCollection,
	}}
	s := New(flow, WithDefaultCorpus("default-corpus"))

	rec := post(t, s, `{"sessionId":" chat-1 ","messages":[{"role":"assistant","content":"Merhaba"},{"role":"user","content":"çorap üretimi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ChatResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, flow.resp.Text, resp.Text)
	assert.Equal(t, types.DecisionStartCollection, resp.Decision)
	require.Len(t, resp.Citations, 1)

	require.NotNil(t, flow.last)
	assert.Equal(t, "chat-1", flow.last.SessionID)
	assert.Equal(t, "default-corpus", flow.last.CorpusID)
	require.Len(t, flow.last.Messages, 2)
	assert.Equal(t, "çorap üretimi", flow.last.Messages[1].Content)
}

func TestChatBadRequests(t *testing.T) {
	s := New(&stubFlow{err: agent.ErrNoUserMessage})

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{"messages":`},
		{name: "unknown role", body: `{"messages":[{"role":"tool","content":"x"}]}`},
		{name: "no user message", body: `{"messages":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, s, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp ErrorResponse
			require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}

	rec := post(t, New(&stubFlow{}, WithMaxBodyBytes(8)), `{"messages":[{"role":"user","content":"long"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatInternalError(t *testing.T) {
	rec := post(t, New(&stubFlow{err: errors.New("boom")}), `{"messages":[{"role":"user","content":"x"}]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := agent.NewMetrics(reg)
	metrics.TurnsTotal.WithLabelValues("bypass").Inc()
	s := New(&stubFlow{}, WithMetrics(reg))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `intake_turns_total{decision="bypass"} 1`)

	rec = httptest.NewRecorder()
	New(&stubFlow{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerWithIntakeFlow(t *testing.T) {
	flow, err := agent.NewIntakeFlow(agent.NewMemorySessionStore(), dialogue.NewLocalGenerator(dialogue.Prompts{}))
	require.NoError(t, err)
	s := New(flow)

	rec := post(t, s, `{"sessionId":"chat-1","messages":[{"role":"user","content":"çorap üretimi yapacağım"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.DecisionStartCollection, resp.Decision)
	assert.Equal(t, dialogue.DefaultPrompts().Province, resp.Text)

	rec = post(t, s, `{"sessionId":"chat-1","messages":[{"role":"user","content":"çorap üretimi yapacağım"},{"role":"assistant","content":"?"},{"role":"user","content":"Adana'da"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.DecisionSlotFilled, resp.Decision)
	assert.Equal(t, dialogue.DefaultPrompts().District, resp.Text)
}
