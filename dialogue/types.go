package dialogue

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

type GenerateRequest struct {
	Instruction string
	Messages    []*schema.Message
	CorpusID    string

	// Decision and NextSlot let offline generators pick a canned reply.
	Decision types.DecisionKind
	NextSlot types.SlotName
	// Slots are the collected answers; on handoff they drive retrieval.
	Slots types.Slots
}

type Citation struct {
	DocumentID string  `json:"documentId"`
	Title      string  `json:"title,omitempty"`
	URI        string  `json:"uri,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

type Answer struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations,omitempty"`
}

// Generator is the retrieval-augmented generation service.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (*Answer, error)
}
