package dialogue

import (
	"context"
	"errors"
	"fmt"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

const (
	localHandoffReply = "Bilgileriniz kayıt altına alındı. Ayrıntılı destek hesaplaması için lütfen yatırım destek ofisiyle iletişime geçin."
	localGeneralReply = "Sorunuzu aldım, ancak şu anda ayrıntılı yanıt veremiyorum. Lütfen daha sonra tekrar deneyin."
)

// LocalGenerator answers without any model, from the fixed prompts. It keeps
// the chat usable when no generation service is configured.
type LocalGenerator struct {
	Prompts Prompts
}

func NewLocalGenerator(prompts Prompts) *LocalGenerator {
	return &LocalGenerator{Prompts: prompts.WithDefaults()}
}

func (g *LocalGenerator) Generate(ctx context.Context, req *GenerateRequest) (*Answer, error) {
	switch req.Decision {
	case types.DecisionStartCollection, types.DecisionSlotFilled, types.DecisionNoSlotExtracted:
		if q := g.Prompts.ForSlot(req.NextSlot); q != "" {
			return &Answer{Text: q}, nil
		}
		return &Answer{Text: g.Prompts.Sector}, nil
	case types.DecisionHandoff:
		return &Answer{Text: localHandoffReply}, nil
	default:
		return &Answer{Text: localGeneralReply}, nil
	}
}

type FailbackGenerator struct {
	generators []Generator
}

func NewFailbackGenerator(generators ...Generator) *FailbackGenerator {
	return &FailbackGenerator{generators: generators}
}

func (g *FailbackGenerator) Generate(ctx context.Context, req *GenerateRequest) (*Answer, error) {
	if len(g.generators) == 0 {
		return nil, errors.New("no generator configured")
	}
	var lastErr error
	for _, generator := range g.generators {
		answer, err := generator.Generate(ctx, req)
		if err == nil {
			return answer, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all generators failed: %w", lastErr)
}
