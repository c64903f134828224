// Package testutil holds fakes for the eino collaborators so tests can run
// without a live model or document index.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

// ChatModel is a scripted model.ToolCallingChatModel.
type ChatModel struct {
	mu    sync.Mutex
	calls [][]*schema.Message
	// Reply builds the response. When nil the model answers "ok".
	Reply func(input []*schema.Message, opts *model.Options) (*schema.Message, error)
}

var _ model.ToolCallingChatModel = (*ChatModel)(nil)

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.calls = append(m.calls, input)
	reply := m.Reply
	m.mu.Unlock()
	if reply == nil {
		return schema.AssistantMessage("ok", nil), nil
	}
	return reply(input, model.GetCommonOptions(nil, opts...))
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

// Calls returns every prompt the model has seen, oldest first.
func (m *ChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]*schema.Message, len(m.calls))
	copy(out, m.calls)
	return out
}

// Text returns a model that always answers with text.
func Text(text string) *ChatModel {
	return &ChatModel{Reply: func([]*schema.Message, *model.Options) (*schema.Message, error) {
		return schema.AssistantMessage(text, nil), nil
	}}
}

// Failing returns a model whose every call fails.
func Failing(err error) *ChatModel {
	if err == nil {
		err = errors.New("model unavailable")
	}
	return &ChatModel{Reply: func([]*schema.Message, *model.Options) (*schema.Message, error) {
		return nil, err
	}}
}

// ToolCall returns a model that answers every call with one tool call.
func ToolCall(name, arguments string) *ChatModel {
	return &ChatModel{Reply: func([]*schema.Message, *model.Options) (*schema.Message, error) {
		return ToolCallMessage(name, arguments), nil
	}}
}

func ToolCallMessage(name, arguments string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			ID:       "call_1",
			Function: schema.FunctionCall{Name: name, Arguments: arguments},
		}},
	}
}

// Retriever is a scripted retriever.Retriever.
type Retriever struct {
	mu      sync.Mutex
	queries []string
	Docs    []*schema.Document
	Err     error
}

var _ retriever.Retriever = (*Retriever)(nil)

func (r *Retriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Docs, nil
}

func (r *Retriever) Queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}
