package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/schema"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/dialogue"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/intent"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/normalize"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

var ErrNoUserMessage = errors.New("no user message in request")

type flowOptions struct {
	recognizer intent.Recognizer
	composer   *dialogue.Composer
	prompts    dialogue.Prompts
	metrics    *Metrics
}

type FlowOption func(*flowOptions)

// WithRecognizer replaces the keyword recognizer used to open a session.
func WithRecognizer(r intent.Recognizer) FlowOption {
	return func(o *flowOptions) {
		o.recognizer = r
	}
}

func WithComposer(c *dialogue.Composer) FlowOption {
	return func(o *flowOptions) {
		o.composer = c
	}
}

func WithPrompts(p dialogue.Prompts) FlowOption {
	return func(o *flowOptions) {
		o.prompts = p
	}
}

func WithMetrics(m *Metrics) FlowOption {
	return func(o *flowOptions) {
		o.metrics = m
	}
}

// IntakeFlow runs one chat turn: load the session, decide, reply, then
// commit the decided writes.
type IntakeFlow struct {
	store      SessionStore
	generator  dialogue.Generator
	recognizer intent.Recognizer
	composer   *dialogue.Composer
	prompts    dialogue.Prompts
	metrics    *Metrics
}

func NewIntakeFlow(store SessionStore, generator dialogue.Generator, opts ...FlowOption) (*IntakeFlow, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	options := flowOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.recognizer == nil {
		options.recognizer = intent.NewLocalRecognizer()
	}
	if options.composer == nil {
		options.composer = dialogue.NewComposer()
	}
	return &IntakeFlow{
		store:      store,
		generator:  generator,
		recognizer: options.recognizer,
		composer:   options.composer,
		prompts:    options.prompts.WithDefaults(),
		metrics:    options.metrics,
	}, nil
}

func (f *IntakeFlow) Invoke(ctx context.Context, input *Request) (*Response, error) {
	if input == nil {
		return nil, ErrNoUserMessage
	}
	if input.SessionID != "" {
		ctx = WithSessionKey(ctx, input.SessionID)
	}
	ctx = callbacks.EnsureRunInfo(ctx, "IntakeFlow", "Agent")
	ctx = callbacks.OnStart(ctx, map[string]any{
		"session_id": input.SessionID,
		"corpus_id":  input.CorpusID,
		"messages":   len(input.Messages),
	})

	defer func() {
		if r := recover(); r != nil {
			callbacks.OnError(ctx, fmt.Errorf("panic in IntakeFlow.Invoke: %v", r))
			panic(r)
		}
	}()

	response, err := f.runInternal(ctx, input)
	if err != nil {
		callbacks.OnError(ctx, err)
		return nil, err
	}

	callbacks.OnEnd(ctx, map[string]any{
		"decision": string(response.Decision),
		"response": response,
	})
	return response, nil
}

func (f *IntakeFlow) runInternal(ctx context.Context, input *Request) (*Response, error) {
	turn, ok := turnFrom(input.Messages)
	if !ok {
		return nil, ErrNoUserMessage
	}
	_, persistent := SessionKeyFromContext(ctx)
	turn.Persistent = persistent

	decision, err := f.load(ctx, turn)
	if err != nil {
		return nil, err
	}
	slog.Debug("Decided turn", "decision", decision.Kind, "slot", decision.Slot, "persistent", persistent)

	response := &Response{
		Text:     decision.Reply,
		Decision: decision.Kind,
		Session:  decision.Session,
	}
	if decision.NeedsGeneration() {
		answer, gErr := f.generate(ctx, input, decision)
		if gErr != nil {
			f.metrics.generationError()
			f.metrics.turn(decision.Kind)
			slog.Error("Failed to generate reply", "decision", decision.Kind, "error", gErr)
			response.Text = f.prompts.Apology
			response.Metadata = map[string]string{"error": gErr.Error()}
			return response, nil
		}
		response.Text = answer.Text
		response.Citations = answer.Citations
	}

	response.Session = f.commit(ctx, decision)
	f.metrics.turn(decision.Kind)
	return response, nil
}

// load reads the active session and decides the turn. A failed read is
// handled as a turn without a session that never opens one.
func (f *IntakeFlow) load(ctx context.Context, turn Turn) (*TurnDecision, error) {
	if !turn.Persistent {
		return f.Decide(ctx, nil, turn), nil
	}
	current, err := f.store.LoadActive(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		f.metrics.storeError("load")
		slog.Error("Failed to load intake session", "error", err)
		return &TurnDecision{Kind: types.DecisionBypass}, nil
	}
	return f.Decide(ctx, current, turn), nil
}

// Decide maps the loaded session and the turn to a decision. It performs no
// writes; the intent recognizer is its only dependency.
func (f *IntakeFlow) Decide(ctx context.Context, current *types.IntakeSession, turn Turn) *TurnDecision {
	switch {
	case current == nil:
		return f.decideWithoutSession(ctx, turn)
	case current.Status == types.StatusCompleted:
		return &TurnDecision{Kind: types.DecisionHandoff, Session: current.Clone()}
	default:
		return f.decideCollecting(ctx, current, turn)
	}
}

func (f *IntakeFlow) decideWithoutSession(ctx context.Context, turn Turn) *TurnDecision {
	if !f.shouldStart(ctx, turn.Utterance) {
		return &TurnDecision{Kind: types.DecisionBypass}
	}

	key, _ := SessionKeyFromContext(ctx)
	session := &types.IntakeSession{SessionID: key, Status: types.StatusCollecting}
	decision := &TurnDecision{Kind: types.DecisionStartCollection, Session: session}
	// The triggering utterance is not an answer to anything yet. It is kept
	// as the provisional sector, written only after the reply exists.
	if turn.Persistent {
		decision.plan.create = true
		if sector := normalize.Sector(turn.Utterance); sector != "" {
			decision.plan.slots.Sector = sector
			session.Sector = sector
		}
	}
	decision.Slot, _ = session.NextMissing()
	return decision
}

func (f *IntakeFlow) decideCollecting(ctx context.Context, current *types.IntakeSession, turn Turn) *TurnDecision {
	slot, missing := current.NextMissing()
	if !missing {
		// Every slot landed but the status flip did not.
		decision := &TurnDecision{Kind: types.DecisionHandoff, Session: current.Clone()}
		decision.plan.complete = true
		return decision
	}

	if slot == types.SlotSector {
		// The provisional sector write of the opening turn was lost. The
		// sector is the message that opened the session, never the current
		// one, which answers the question asked after it.
		if trigger, ok := f.lastTrigger(ctx, turn.Earlier); ok {
			return f.fill(current, slot, normalize.Sector(trigger))
		}
		// Without one, only sector-like text answers the re-asked question.
		if f.shouldStart(ctx, turn.Utterance) {
			return f.fill(current, slot, normalize.Sector(turn.Utterance))
		}
		return f.reprompt(current, slot)
	}

	value, ok := normalize.Slot(slot, turn.Utterance)
	if !ok {
		return f.reprompt(current, slot)
	}
	return f.fill(current, slot, value)
}

// lastTrigger finds the most recent earlier user message that would have
// opened a session.
func (f *IntakeFlow) lastTrigger(ctx context.Context, earlier []string) (string, bool) {
	for i := len(earlier) - 1; i >= 0; i-- {
		if f.shouldStart(ctx, earlier[i]) {
			return earlier[i], true
		}
	}
	return "", false
}

func (f *IntakeFlow) shouldStart(ctx context.Context, utterance string) bool {
	start, err := f.recognizer.ShouldStartCollection(ctx, utterance)
	if err != nil {
		slog.Warn("Intent detection failed", "error", err)
		return false
	}
	return start
}

func (f *IntakeFlow) reprompt(current *types.IntakeSession, slot types.SlotName) *TurnDecision {
	return &TurnDecision{
		Kind:    types.DecisionNoSlotExtracted,
		Slot:    slot,
		Reply:   f.prompts.ForSlot(slot),
		Session: current.Clone(),
	}
}

func (f *IntakeFlow) fill(current *types.IntakeSession, slot types.SlotName, value string) *TurnDecision {
	var write types.Slots
	_ = write.Set(slot, value)
	merged := current.Slots()
	_ = merged.Set(slot, value)
	session := current.Clone()
	session.SetSlots(merged)

	decision := &TurnDecision{
		Kind:    types.DecisionSlotFilled,
		Slot:    slot,
		Session: session,
		plan:    commitPlan{slots: write},
	}
	if next, more := session.NextMissing(); more {
		decision.Reply = f.prompts.ForSlot(next)
	} else {
		decision.Reply = f.prompts.Completion
		decision.plan.complete = true
		session.Status = types.StatusCompleted
	}
	return decision
}

func (f *IntakeFlow) generate(ctx context.Context, input *Request, decision *TurnDecision) (*dialogue.Answer, error) {
	instruction := f.composer.Compose(decision.Kind, decision.Session)
	slog.Debug("Generating reply", "decision", decision.Kind, "corpus", input.CorpusID)
	answer, err := f.generator.Generate(ctx, &dialogue.GenerateRequest{
		Instruction: instruction,
		Messages:    input.Messages,
		CorpusID:    input.CorpusID,
		Decision:    decision.Kind,
		NextSlot:    decision.Slot,
		Slots:       decision.Session.Slots(),
	})
	if err != nil {
		return nil, err
	}
	if answer == nil {
		return nil, errors.New("generator returned no answer")
	}
	return answer, nil
}

// commit executes the decision's writes and returns the session as stored.
// Failures are logged and counted; the reply is already computed and stands.
func (f *IntakeFlow) commit(ctx context.Context, decision *TurnDecision) *types.IntakeSession {
	if decision.plan.empty() {
		return decision.Session
	}
	if err := ctx.Err(); err != nil {
		slog.Warn("Skipping intake session write", "decision", decision.Kind, "error", err)
		return decision.Session
	}

	session := decision.Session
	if decision.plan.create {
		created, err := f.store.Create(ctx)
		if err != nil {
			f.metrics.storeError("create")
			slog.Error("Failed to create intake session", "error", err)
			return decision.Session
		}
		session = created
	}
	if !decision.plan.slots.IsEmpty() {
		updated, err := f.store.UpdateSlots(ctx, session, decision.plan.slots)
		if err != nil {
			f.metrics.storeError("update")
			slog.Error("Failed to update intake session", "session", session.ID, "error", err)
			return session
		}
		session = updated
	}
	if decision.plan.complete && session.AllSlotsSet() && session.Status != types.StatusCompleted {
		if err := f.store.MarkCompleted(ctx, session); err != nil {
			f.metrics.storeError("complete")
			slog.Error("Failed to complete intake session", "session", session.ID, "error", err)
			return session
		}
		session = session.Clone()
		session.Status = types.StatusCompleted
	}
	slog.Debug("Committed intake session", "session", session.ID, "status", session.Status)
	return session
}

// turnFrom splits the conversation into the latest user message and the
// non-empty user messages before it.
func turnFrom(messages []*schema.Message) (Turn, bool) {
	last := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if m := messages[i]; m != nil && m.Role == schema.User {
			last = i
			break
		}
	}
	if last < 0 {
		return Turn{}, false
	}
	turn := Turn{Utterance: strings.TrimSpace(messages[last].Content)}
	if turn.Utterance == "" {
		return Turn{}, false
	}
	for _, m := range messages[:last] {
		if m == nil || m.Role != schema.User {
			continue
		}
		if text := strings.TrimSpace(m.Content); text != "" {
			turn.Earlier = append(turn.Earlier, text)
		}
	}
	return turn, true
}
