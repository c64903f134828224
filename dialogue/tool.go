package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

const defaultTopK = 5

type generatorOptions struct {
	retriever retriever.Retriever
	topK      int
}

type GeneratorOption func(*generatorOptions)

// WithRetriever attaches a document retriever. The request's corpus id is
// passed to it as the index.
func WithRetriever(r retriever.Retriever) GeneratorOption {
	return func(o *generatorOptions) {
		o.retriever = r
	}
}

func WithTopK(k int) GeneratorOption {
	return func(o *generatorOptions) {
		o.topK = k
	}
}

// RAGGenerator answers with a chat model, grounding it on documents fetched
// for the latest user message.
type RAGGenerator struct {
	chatModel model.BaseChatModel
	retriever retriever.Retriever
	topK      int
}

func NewRAGGenerator(chatModel model.BaseChatModel, opts ...GeneratorOption) (*RAGGenerator, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	options := generatorOptions{topK: defaultTopK}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.topK <= 0 {
		options.topK = defaultTopK
	}
	return &RAGGenerator{
		chatModel: chatModel,
		retriever: options.retriever,
		topK:      options.topK,
	}, nil
}

func (g *RAGGenerator) Generate(ctx context.Context, req *GenerateRequest) (*Answer, error) {
	docs := g.retrieve(ctx, req)

	messages := g.buildPrompt(req, docs)
	response, err := g.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	if response == nil {
		return nil, errors.New("LLM returned no message")
	}
	return &Answer{
		Text:      response.Content,
		Citations: citationsFrom(docs),
	}, nil
}

// retrieve never fails the turn; without documents the model still answers
// from the instruction alone.
func (g *RAGGenerator) retrieve(ctx context.Context, req *GenerateRequest) []*schema.Document {
	if g.retriever == nil {
		return nil
	}
	query := retrievalQuery(req)
	if query == "" {
		return nil
	}
	opts := []retriever.Option{retriever.WithTopK(g.topK)}
	if req.CorpusID != "" {
		opts = append(opts, retriever.WithIndex(req.CorpusID))
	}
	docs, err := g.retriever.Retrieve(ctx, query, opts...)
	if err != nil {
		slog.Warn("Document retrieval failed", "corpus", req.CorpusID, "error", err)
		return nil
	}
	slog.Debug("Retrieved documents", "corpus", req.CorpusID, "count", len(docs))
	return docs
}

// retrievalQuery asks about the collected investment on handoff and about the
// latest user message otherwise.
func retrievalQuery(req *GenerateRequest) string {
	question := latestUserContent(req.Messages)
	if req.Decision != types.DecisionHandoff || req.Slots.IsEmpty() {
		return question
	}
	parts := make([]string, 0, len(types.SlotOrder)+1)
	for _, slot := range types.SlotOrder {
		if v := req.Slots.Get(slot); v != "" {
			parts = append(parts, v)
		}
	}
	if question != "" {
		parts = append(parts, question)
	}
	return strings.Join(parts, " ")
}

func (g *RAGGenerator) buildPrompt(req *GenerateRequest, docs []*schema.Document) []*schema.Message {
	system := req.Instruction
	if s := formatDocumentsSection(docs); s != "" {
		system += "\n\n" + s
	}
	messages := make([]*schema.Message, 0, len(req.Messages)+1)
	messages = append(messages, schema.SystemMessage(system))
	for _, m := range req.Messages {
		if m == nil || m.Role == schema.System {
			continue
		}
		messages = append(messages, m)
	}
	return messages
}
