package dialogue

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

func TestComposeCollectionMode(t *testing.T) {
	c := NewComposer()
	session := &types.IntakeSession{Status: types.StatusCollecting, Sector: "çorap üretimi yapacağım"}

	for _, kind := range []types.DecisionKind{types.DecisionStartCollection, types.DecisionSlotFilled, types.DecisionNoSlotExtracted} {
		out := c.Compose(kind, session)
		assert.True(t, strings.HasPrefix(out, "You are the investment incentive assistant"), kind)
		assert.Contains(t, out, "at most 2 sentences")
		assert.Contains(t, out, "exactly one question")
		assert.Contains(t, out, "# Known slots:")
		assert.Contains(t, out, "çorap üretimi yapacağım")
		assert.Contains(t, out, "# Next missing slot:")
		assert.Contains(t, out, string(types.SlotProvince))
		assert.NotContains(t, out, string(types.SlotDistrict))
	}
}

func TestComposeCollectionWithoutKnownSlots(t *testing.T) {
	out := NewComposer().Compose(types.DecisionStartCollection, &types.IntakeSession{Status: types.StatusCollecting})
	assert.NotContains(t, out, "# Known slots:")
	assert.Contains(t, out, string(types.SlotSector))
}

func TestComposeHandoff(t *testing.T) {
	session := &types.IntakeSession{
		Status: types.StatusCompleted, Sector: "tekstil", Province: "Adana", District: "Merkez", OSBStatus: types.ZoneOutside,
	}
	out := NewComposer().Compose(types.DecisionHandoff, session)
	assert.Contains(t, out, "All details of the planned investment have been collected")
	for _, v := range []string{"tekstil", "Adana", "Merkez", "OUTSIDE"} {
		assert.Contains(t, out, v)
	}
	assert.NotContains(t, out, "# Next missing slot:")
}

func TestComposeBypass(t *testing.T) {
	out := NewComposer().Compose(types.DecisionBypass, nil)
	assert.Equal(t, strings.Replace(DefaultGeneralInstructionTemplate, "%s", "Turkish", 1), out)
}

func TestComposerOptions(t *testing.T) {
	c := NewComposer(
		WithLang("English"),
		WithGeneralTemplate("General only, in %s."),
		WithCollectionTemplate("Ask one thing."),
		WithCalculationTemplate(""),
	)
	assert.Equal(t, "General only, in English.", c.Compose(types.DecisionBypass, nil))
	assert.True(t, strings.HasPrefix(c.Compose(types.DecisionSlotFilled, &types.IntakeSession{}), "Ask one thing."))
	assert.Contains(t, c.Compose(types.DecisionHandoff, &types.IntakeSession{}), "Reply in English.")
}

func TestPrompts(t *testing.T) {
	p := Prompts{Sector: "Sektör?"}.WithDefaults()
	assert.Equal(t, "Sektör?", p.ForSlot(types.SlotSector))
	assert.Equal(t, DefaultPrompts().Province, p.ForSlot(types.SlotProvince))
	assert.Equal(t, DefaultPrompts().Completion, p.Completion)
	assert.Empty(t, p.ForSlot("budget"))
}
