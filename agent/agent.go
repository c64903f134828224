package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
)

var _ adk.Agent = (*Agent)(nil)

// Agent runs intake turns for an adk.Runner. Each run is one chat turn over
// the whole conversation in the input; the chat session id comes from the
// run context (WithSessionKey). The event carries the reply as an assistant
// message and the full *Response, with decision and citations, as
// CustomizedOutput.
type Agent struct {
	name        string
	description string
	flow        *IntakeFlow
	corpusID    string
}

// NewAgent answers from corpusID, the index documents are retrieved from.
func NewAgent(name, description string, flow *IntakeFlow, corpusID string) *Agent {
	return &Agent{name: name, description: description, flow: flow, corpusID: corpusID}
}

func (a *Agent) Name(ctx context.Context) string {
	return a.name
}

func (a *Agent) Description(ctx context.Context) string {
	return a.description
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			if e := recover(); e != nil {
				gen.Send(&adk.AgentEvent{Err: fmt.Errorf("intake turn panicked: %v", e)})
			}
			gen.Close()
		}()
		gen.Send(a.turn(ctx, input))
	}()
	return iter
}

func (a *Agent) turn(ctx context.Context, input *adk.AgentInput) *adk.AgentEvent {
	if input == nil || len(input.Messages) == 0 {
		return &adk.AgentEvent{Err: errors.New("no messages in input")}
	}
	resp, err := a.flow.Invoke(ctx, &Request{Messages: input.Messages, CorpusID: a.corpusID})
	if err != nil {
		return &adk.AgentEvent{Err: fmt.Errorf("intake turn failed: %w", err)}
	}
	return &adk.AgentEvent{
		Output: &adk.AgentOutput{
			MessageOutput: &adk.MessageVariant{
				Message: schema.AssistantMessage(resp.Text, nil),
				Role:    schema.Assistant,
			},
			CustomizedOutput: resp,
		},
	}
}
