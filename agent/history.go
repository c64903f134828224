package agent

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type Trimmer interface {
	Trim(history []*schema.Message) []*schema.Message
}

// KeepSystemLastNTrimmer keeps every system message plus the last N others.
// N <= 0 keeps only the system messages.
type KeepSystemLastNTrimmer struct {
	N int
}

func (t KeepSystemLastNTrimmer) Trim(history []*schema.Message) []*schema.Message {
	keep := make([]bool, len(history))
	budget := t.N
	for i := len(history) - 1; i >= 0; i-- {
		switch {
		case history[i] == nil:
		case history[i].Role == schema.System:
			keep[i] = true
		case budget > 0:
			keep[i] = true
			budget--
		}
	}
	out := make([]*schema.Message, 0, len(history))
	for i, m := range history {
		if keep[i] {
			out = append(out, m)
		}
	}
	return out
}

// HistoryStore keeps the chat transcript of each session key for callers
// that, like the terminal chat, do not resend the conversation themselves.
// The flow finds the opening message of a session in it.
type HistoryStore struct {
	record  conversationRecord[[]*schema.Message]
	trimmer Trimmer
}

func NewHistoryStore(core Cache[[]*schema.Message], trimmer Trimmer) *HistoryStore {
	return &HistoryStore{
		record:  newConversationRecord(core, historyNamespace),
		trimmer: trimmer,
	}
}

func NewMemoryHistoryStore(trimmer Trimmer) *HistoryStore {
	return NewHistoryStore(NewMemoryCache[[]*schema.Message](), trimmer)
}

func (s *HistoryStore) Load(ctx context.Context) ([]*schema.Message, error) {
	return s.record.load(ctx)
}

func (s *HistoryStore) Clear(ctx context.Context) error {
	return s.record.clear(ctx)
}

// Append adds msgs to the stored transcript, dropping nil messages and
// exact repeats of the previous message, and returns the trimmed result.
func (s *HistoryStore) Append(ctx context.Context, msgs ...*schema.Message) ([]*schema.Message, error) {
	history, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		if n := len(history); n > 0 && history[n-1].Role == msg.Role && history[n-1].Content == msg.Content {
			continue
		}
		history = append(history, msg)
	}
	if s.trimmer != nil {
		history = s.trimmer.Trim(history)
	}
	if err := s.record.save(ctx, history); err != nil {
		return nil, err
	}
	return history, nil
}
