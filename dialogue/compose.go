package dialogue

import (
	"fmt"
	"strings"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

// DefaultCollectionInstructionTemplate may contain one "%s" placeholder for the language.
const DefaultCollectionInstructionTemplate = `You are the investment incentive assistant of a public support portal. You are collecting the details needed to work out which incentives apply to the user's planned investment.

Hard constraints:
- Ask exactly one question, and only about the next missing slot listed below.
- Use at most 2 sentences.
- Do not explain incentives, amounts or procedures unless the user explicitly asks for it.
- Never ask again for a slot listed as known.
- Reply in %s.`

// DefaultCalculationInstructionTemplate may contain one "%s" placeholder for the language.
const DefaultCalculationInstructionTemplate = `You are the investment incentive assistant of a public support portal. All details of the planned investment have been collected and are listed below.

Use the document corpus to look up the incentive support that applies to this sector, province, district and organised industrial zone status: the incentive region, the support elements (for example VAT and customs exemption, tax reduction, social security premium support, interest support, investment site allocation) and their rates or limits. Explain the result to the user clearly.
- Base every statement on the retrieved documents. If the documents do not cover a point, say so instead of guessing.
- Do not ask for the collected details again.
- Reply in %s.`

// DefaultGeneralInstructionTemplate may contain one "%s" placeholder for the language.
const DefaultGeneralInstructionTemplate = `You are the assistant of an investment support portal. Answer the user's question using the document corpus.
- If the documents do not contain the answer, say so briefly and suggest contacting the support desk.
- Keep the answer focused and factual.
- Reply in %s.`

const defaultLang = "Turkish"

type composerOptions struct {
	lang                string
	collectionTemplate  string
	calculationTemplate string
	generalTemplate     string
}

type ComposerOption func(*composerOptions)

// WithLang sets the reply language used by the templates.
func WithLang(lang string) ComposerOption {
	return func(o *composerOptions) {
		o.lang = lang
	}
}

func WithCollectionTemplate(tpl string) ComposerOption {
	return func(o *composerOptions) {
		o.collectionTemplate = tpl
	}
}

func WithCalculationTemplate(tpl string) ComposerOption {
	return func(o *composerOptions) {
		o.calculationTemplate = tpl
	}
}

func WithGeneralTemplate(tpl string) ComposerOption {
	return func(o *composerOptions) {
		o.generalTemplate = tpl
	}
}

// Composer maps a turn decision and a session snapshot to the system
// instruction handed to the generation service. It never calls the service.
type Composer struct {
	collection  string
	calculation string
	general     string
}

func NewComposer(opts ...ComposerOption) *Composer {
	options := composerOptions{
		lang:                defaultLang,
		collectionTemplate:  DefaultCollectionInstructionTemplate,
		calculationTemplate: DefaultCalculationInstructionTemplate,
		generalTemplate:     DefaultGeneralInstructionTemplate,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.lang == "" {
		options.lang = defaultLang
	}
	return &Composer{
		collection:  render(options.collectionTemplate, DefaultCollectionInstructionTemplate, options.lang),
		calculation: render(options.calculationTemplate, DefaultCalculationInstructionTemplate, options.lang),
		general:     render(options.generalTemplate, DefaultGeneralInstructionTemplate, options.lang),
	}
}

func render(tpl, fallback, lang string) string {
	if tpl == "" {
		tpl = fallback
	}
	if strings.Contains(tpl, "%s") {
		return fmt.Sprintf(tpl, lang)
	}
	return tpl
}

// Compose builds the instruction for kind. Collection-mode kinds list the
// known slots and the single next missing slot; Handoff lists all four;
// Bypass carries no slot information.
func (c *Composer) Compose(kind types.DecisionKind, session *types.IntakeSession) string {
	switch kind {
	case types.DecisionStartCollection, types.DecisionSlotFilled, types.DecisionNoSlotExtracted:
		sections := []string{c.collection}
		if s := types.FormatKnownSlotsSection(session.Slots()); s != "" {
			sections = append(sections, s)
		}
		if next, ok := session.NextMissing(); ok {
			sections = append(sections, types.FormatNextSlotSection(next))
		}
		return strings.Join(sections, "\n\n")
	case types.DecisionHandoff:
		sections := []string{c.calculation}
		if s := types.FormatKnownSlotsSection(session.Slots()); s != "" {
			sections = append(sections, s)
		}
		return strings.Join(sections, "\n\n")
	default:
		return c.general
	}
}
