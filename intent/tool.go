package intent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/structured"
)

const (
	startCollectionToolName        = "classify_incentive_intent"
	startCollectionToolDescription = "Decide whether the user message opens an investment incentive enquiry."
)

// DefaultIntentSystemPromptTemplate may contain one "%s" placeholder for the tool name.
const DefaultIntentSystemPromptTemplate = `You screen messages sent to an investment incentive help desk.

Decide whether the user's message starts an enquiry about investment incentives, state support, grants, tax reductions or a planned production investment.
- Return start=true when the user describes an investment, a product they plan to manufacture, or asks which incentives apply to them.
- Return start=false for greetings, general questions about documents or announcements, and anything unrelated to a planned investment.

Call the '%s' tool with the result.`

type startCollectionArgs struct {
	Start bool `json:"start" jsonschema:"required,description=True when the message opens an investment incentive enquiry"`
}

type toolOptions struct {
	systemPromptTemplate string
}

type ToolOption func(*toolOptions)

func WithIntentSystemPromptTemplate(tpl string) ToolOption {
	return func(o *toolOptions) {
		o.systemPromptTemplate = tpl
	}
}

// ToolBasedRecognizer asks the chat model through a forced tool call.
type ToolBasedRecognizer struct {
	chain *structured.Chain[string, startCollectionArgs]
}

func NewToolBasedRecognizer(chatModel model.ToolCallingChatModel, opts ...ToolOption) (*ToolBasedRecognizer, error) {
	options := toolOptions{systemPromptTemplate: DefaultIntentSystemPromptTemplate}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	systemPrompt := fmt.Sprintf(options.systemPromptTemplate, startCollectionToolName)
	chain, err := structured.NewChain[string, startCollectionArgs](
		chatModel,
		func(ctx context.Context, utterance string) ([]*schema.Message, error) {
			return []*schema.Message{
				schema.SystemMessage(systemPrompt),
				schema.UserMessage(utterance),
			}, nil
		},
		startCollectionToolName,
		startCollectionToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedRecognizer{chain: chain}, nil
}

func (r *ToolBasedRecognizer) ShouldStartCollection(ctx context.Context, utterance string) (bool, error) {
	result, err := r.chain.Invoke(ctx, utterance)
	if err != nil {
		return false, fmt.Errorf("classify intent: %w", err)
	}
	return result.Start, nil
}
