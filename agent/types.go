package agent

import (
	"github.com/cloudwego/eino/schema"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/dialogue"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

type Request struct {
	// SessionID routes the intake session. When empty the key is taken from
	// the context; without either the caller is treated as stateless.
	SessionID string            `json:"sessionId,omitempty"`
	Messages  []*schema.Message `json:"messages"`
	CorpusID  string            `json:"corpusId,omitempty"`
}

type Response struct {
	Text      string               `json:"text"`
	Citations []dialogue.Citation  `json:"citations,omitempty"`
	Decision  types.DecisionKind   `json:"decision"`
	Session   *types.IntakeSession `json:"-"`
	Metadata  map[string]string    `json:"metadata,omitempty"`
}

// Turn is what Decide needs to know about the conversation.
type Turn struct {
	// Utterance is the latest user message, trimmed.
	Utterance string
	// Earlier holds the user messages before Utterance, oldest first.
	Earlier []string
	// Persistent is false for callers without a session key; nothing is
	// ever written for them.
	Persistent bool
}

// TurnDecision is the outcome of one turn of the state machine. It carries
// the writes to perform once the reply is known.
type TurnDecision struct {
	Kind types.DecisionKind
	// Slot is the slot filled on SlotFilled, the slot re-asked on
	// NoSlotExtracted and the first slot to ask for on StartCollection.
	Slot types.SlotName
	// Reply is the fixed reply of deterministic turns. It is empty when the
	// reply must come from the generation service.
	Reply string
	// Session is the snapshot the instruction is composed from, with the
	// planned writes already applied.
	Session *types.IntakeSession

	plan commitPlan
}

// NeedsGeneration reports whether the reply comes from the generation service.
func (d *TurnDecision) NeedsGeneration() bool {
	switch d.Kind {
	case types.DecisionStartCollection, types.DecisionBypass, types.DecisionHandoff:
		return true
	}
	return false
}

type commitPlan struct {
	create   bool
	slots    types.Slots
	complete bool
}

func (p commitPlan) empty() bool {
	return !p.create && p.slots.IsEmpty() && !p.complete
}
