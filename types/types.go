package types

type Status string

const (
	StatusCollecting Status = "collecting"
	StatusCompleted  Status = "completed"
)

type SlotName string

const (
	SlotSector    SlotName = "sector"
	SlotProvince  SlotName = "province"
	SlotDistrict  SlotName = "district"
	SlotOSBStatus SlotName = "osb_status"
)

// SlotOrder is the only order in which slots are ever filled.
var SlotOrder = []SlotName{SlotSector, SlotProvince, SlotDistrict, SlotOSBStatus}

type ZoneStatus string

const (
	ZoneUnknown ZoneStatus = ""
	ZoneInside  ZoneStatus = "INSIDE"
	ZoneOutside ZoneStatus = "OUTSIDE"
)

type DecisionKind string

const (
	DecisionStartCollection DecisionKind = "start_collection"
	DecisionSlotFilled      DecisionKind = "slot_filled"
	DecisionNoSlotExtracted DecisionKind = "no_slot_extracted"
	DecisionBypass          DecisionKind = "bypass"
	DecisionHandoff         DecisionKind = "handoff"
)

type FieldInfo struct {
	Slot        SlotName `json:"slot"`
	JSONPointer string   `json:"json_pointer"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description,omitempty"`
}

var slotFields = map[SlotName]FieldInfo{
	SlotSector: {
		Slot:        SlotSector,
		JSONPointer: "/sector",
		DisplayName: "Sektör",
		Description: "Yatırımın yapılacağı sektör veya üretilecek ürün",
	},
	SlotProvince: {
		Slot:        SlotProvince,
		JSONPointer: "/province",
		DisplayName: "İl",
		Description: "Yatırımın yapılacağı il",
	},
	SlotDistrict: {
		Slot:        SlotDistrict,
		JSONPointer: "/district",
		DisplayName: "İlçe",
		Description: "Yatırımın yapılacağı ilçe",
	},
	SlotOSBStatus: {
		Slot:        SlotOSBStatus,
		JSONPointer: "/osb_status",
		DisplayName: "OSB durumu",
		Description: "Yatırım yeri Organize Sanayi Bölgesi içinde mi (INSIDE) dışında mı (OUTSIDE)",
	},
}

// Field returns the catalogue entry for a slot.
func Field(slot SlotName) FieldInfo {
	return slotFields[slot]
}
