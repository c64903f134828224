package dialogue

import "github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"

// Prompts are the fixed replies used on deterministic turns.
type Prompts struct {
	Sector     string `koanf:"sector"`
	Province   string `koanf:"province"`
	District   string `koanf:"district"`
	OSBStatus  string `koanf:"osb_status"`
	Completion string `koanf:"completion"`
	Apology    string `koanf:"apology"`
}

func DefaultPrompts() Prompts {
	return Prompts{
		Sector:     "Hangi sektörde yatırım yapmayı planlıyorsunuz?",
		Province:   "Yatırımı hangi ilde yapmayı planlıyorsunuz?",
		District:   "Yatırım hangi ilçede olacak?",
		OSBStatus:  "Yatırım yeri bir Organize Sanayi Bölgesi (OSB) içinde mi, dışında mı?",
		Completion: "Teşekkürler, gerekli bilgileri aldım. Destek hesaplamasına hazırım.",
		Apology:    "Üzgünüm, şu anda yanıt oluşturamadım. Lütfen biraz sonra tekrar deneyin.",
	}
}

// WithDefaults fills every empty prompt from DefaultPrompts.
func (p Prompts) WithDefaults() Prompts {
	d := DefaultPrompts()
	if p.Sector == "" {
		p.Sector = d.Sector
	}
	if p.Province == "" {
		p.Province = d.Province
	}
	if p.District == "" {
		p.District = d.District
	}
	if p.OSBStatus == "" {
		p.OSBStatus = d.OSBStatus
	}
	if p.Completion == "" {
		p.Completion = d.Completion
	}
	if p.Apology == "" {
		p.Apology = d.Apology
	}
	return p
}

// ForSlot returns the question that asks for slot.
func (p Prompts) ForSlot(slot types.SlotName) string {
	switch slot {
	case types.SlotSector:
		return p.Sector
	case types.SlotProvince:
		return p.Province
	case types.SlotDistrict:
		return p.District
	case types.SlotOSBStatus:
		return p.OSBStatus
	}
	return ""
}
