package sqlitestore

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/agent"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/dialogue"
)

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, req *dialogue.GenerateRequest) (*dialogue.Answer, error) {
	return &dialogue.Answer{Text: "ok"}, nil
}

func requestFor(sessionID string, utterances []string) *agent.Request {
	messages := make([]*schema.Message, 0, len(utterances))
	for _, u := range utterances {
		messages = append(messages, schema.UserMessage(u))
	}
	return &agent.Request{SessionID: sessionID, Messages: messages}
}
