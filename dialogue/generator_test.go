package dialogue

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/testutil"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

func history() []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage("caller system prompt"),
		schema.UserMessage("merhaba"),
		schema.AssistantMessage("Merhaba, nasıl yardımcı olabilirim?", nil),
		schema.UserMessage("OSB nedir?"),
	}
}

func TestRAGGeneratorWithRetriever(t *testing.T) {
	cm := testutil.Text("OSB, organize sanayi bölgesidir.")
	doc := &schema.Document{ID: "doc-7", Content: "Organize sanayi bölgeleri ...", MetaData: map[string]any{"title": "OSB Rehberi", "source": "https://example.org/osb"}}
	doc.WithScore(0.82)
	r := &testutil.Retriever{Docs: []*schema.Document{doc}}

	g, err := NewRAGGenerator(cm, WithRetriever(r), WithTopK(3))
	require.NoError(t, err)

	answer, err := g.Generate(context.Background(), &GenerateRequest{
		Instruction: "INSTRUCTION",
		Messages:    history(),
		CorpusID:    "incentives-2025",
	})
	require.NoError(t, err)
	assert.Equal(t, "OSB, organize sanayi bölgesidir.", answer.Text)
	require.Len(t, answer.Citations, 1)
	assert.Equal(t, Citation{DocumentID: "doc-7", Title: "OSB Rehberi", URI: "https://example.org/osb", Score: 0.82}, answer.Citations[0])

	assert.Equal(t, []string{"OSB nedir?"}, r.Queries())

	calls := cm.Calls()
	require.Len(t, calls, 1)
	prompt := calls[0]
	require.Len(t, prompt, 4, "caller system message is replaced by the instruction")
	assert.Equal(t, schema.System, prompt[0].Role)
	assert.Contains(t, prompt[0].Content, "INSTRUCTION")
	assert.Contains(t, prompt[0].Content, "# Retrieved documents:")
	assert.Contains(t, prompt[0].Content, "OSB Rehberi")
	assert.Equal(t, "OSB nedir?", prompt[3].Content)
}

func TestRAGGeneratorHandoffQueriesCollectedSlots(t *testing.T) {
	r := &testutil.Retriever{}
	g, err := NewRAGGenerator(testutil.Text("hesap"), WithRetriever(r))
	require.NoError(t, err)

	slots := types.Slots{Sector: "çorap üretimi", Province: "Adana", District: "Merkez", OSBStatus: types.ZoneOutside}
	_, err = g.Generate(context.Background(), &GenerateRequest{
		Instruction: "I",
		Messages:    []*schema.Message{schema.UserMessage("Hangi destekleri alabilirim?")},
		Decision:    types.DecisionHandoff,
		Slots:       slots,
	})
	require.NoError(t, err)

	// Bypass keeps querying with the question alone.
	_, err = g.Generate(context.Background(), &GenerateRequest{
		Instruction: "I",
		Messages:    []*schema.Message{schema.UserMessage("OSB nedir?")},
		Decision:    types.DecisionBypass,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"çorap üretimi Adana Merkez OUTSIDE Hangi destekleri alabilirim?",
		"OSB nedir?",
	}, r.Queries())
}

func TestRAGGeneratorRetrieverFailureDegrades(t *testing.T) {
	cm := testutil.Text("genel yanıt")
	g, err := NewRAGGenerator(cm, WithRetriever(&testutil.Retriever{Err: errors.New("index down")}))
	require.NoError(t, err)

	answer, err := g.Generate(context.Background(), &GenerateRequest{Instruction: "I", Messages: history()})
	require.NoError(t, err)
	assert.Equal(t, "genel yanıt", answer.Text)
	assert.Empty(t, answer.Citations)
	assert.NotContains(t, cm.Calls()[0][0].Content, "# Retrieved documents:")
}

func TestRAGGeneratorModelFailure(t *testing.T) {
	g, err := NewRAGGenerator(testutil.Failing(nil))
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), &GenerateRequest{Instruction: "I", Messages: history()})
	assert.ErrorContains(t, err, "LLM call failed")

	_, err = NewRAGGenerator(nil)
	assert.Error(t, err)
}

func TestLocalGenerator(t *testing.T) {
	g := NewLocalGenerator(Prompts{})
	ctx := context.Background()

	a, err := g.Generate(ctx, &GenerateRequest{Decision: types.DecisionStartCollection, NextSlot: types.SlotProvince})
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompts().Province, a.Text)

	a, err = g.Generate(ctx, &GenerateRequest{Decision: types.DecisionHandoff})
	require.NoError(t, err)
	assert.Equal(t, localHandoffReply, a.Text)

	a, err = g.Generate(ctx, &GenerateRequest{Decision: types.DecisionBypass})
	require.NoError(t, err)
	assert.Equal(t, localGeneralReply, a.Text)
}

func TestFailbackGenerator(t *testing.T) {
	ctx := context.Background()
	failing, err := NewRAGGenerator(testutil.Failing(nil))
	require.NoError(t, err)

	g := NewFailbackGenerator(failing, NewLocalGenerator(Prompts{}))
	a, err := g.Generate(ctx, &GenerateRequest{Decision: types.DecisionBypass, Messages: history()})
	require.NoError(t, err)
	assert.Equal(t, localGeneralReply, a.Text)

	_, err = NewFailbackGenerator(failing).Generate(ctx, &GenerateRequest{Messages: history()})
	assert.ErrorContains(t, err, "all generators failed")

	_, err = NewFailbackGenerator().Generate(ctx, &GenerateRequest{})
	assert.Error(t, err)
}
