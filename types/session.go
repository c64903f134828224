package types

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrSlotOrder       = errors.New("slot filled out of order")
	ErrStatusMismatch  = errors.New("status does not match filled slots")
	ErrInvalidZone     = errors.New("invalid osb status")
	ErrUnknownSlotName = errors.New("unknown slot")
)

// IntakeSession is the persisted slot-filling record of one chat conversation.
type IntakeSession struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Status    Status     `json:"status"`
	Sector    string     `json:"sector"`
	Province  string     `json:"province"`
	District  string     `json:"district"`
	OSBStatus ZoneStatus `json:"osb_status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Slots is a partial set of slot values. Empty fields mean "not provided".
type Slots struct {
	Sector    string     `json:"sector,omitempty"`
	Province  string     `json:"province,omitempty"`
	District  string     `json:"district,omitempty"`
	OSBStatus ZoneStatus `json:"osb_status,omitempty"`
}

func (s Slots) Get(slot SlotName) string {
	switch slot {
	case SlotSector:
		return s.Sector
	case SlotProvince:
		return s.Province
	case SlotDistrict:
		return s.District
	case SlotOSBStatus:
		return string(s.OSBStatus)
	}
	return ""
}

func (s *Slots) Set(slot SlotName, value string) error {
	switch slot {
	case SlotSector:
		s.Sector = value
	case SlotProvince:
		s.Province = value
	case SlotDistrict:
		s.District = value
	case SlotOSBStatus:
		s.OSBStatus = ZoneStatus(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSlotName, slot)
	}
	return nil
}

func (s Slots) IsEmpty() bool {
	return s.Sector == "" && s.Province == "" && s.District == "" && s.OSBStatus == ZoneUnknown
}

func (s *IntakeSession) Slots() Slots {
	if s == nil {
		return Slots{}
	}
	return Slots{
		Sector:    s.Sector,
		Province:  s.Province,
		District:  s.District,
		OSBStatus: s.OSBStatus,
	}
}

// SetSlots copies all four values of slots onto the session.
func (s *IntakeSession) SetSlots(slots Slots) {
	s.Sector = slots.Sector
	s.Province = slots.Province
	s.District = slots.District
	s.OSBStatus = slots.OSBStatus
}

func (s *IntakeSession) Slot(slot SlotName) string {
	return s.Slots().Get(slot)
}

// NextMissing returns the first unset slot in SlotOrder.
func (s *IntakeSession) NextMissing() (SlotName, bool) {
	slots := s.Slots()
	for _, slot := range SlotOrder {
		if slots.Get(slot) == "" {
			return slot, true
		}
	}
	return "", false
}

// MissingFields lists every unset slot in fill order.
func (s *IntakeSession) MissingFields() []FieldInfo {
	slots := s.Slots()
	var missing []FieldInfo
	for _, slot := range SlotOrder {
		if slots.Get(slot) == "" {
			missing = append(missing, Field(slot))
		}
	}
	return missing
}

func (s *IntakeSession) AllSlotsSet() bool {
	_, missing := s.NextMissing()
	return !missing
}

func (s *IntakeSession) Clone() *IntakeSession {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Validate checks the fill-order and completion invariants.
func (s *IntakeSession) Validate() error {
	if s.OSBStatus != ZoneUnknown && s.OSBStatus != ZoneInside && s.OSBStatus != ZoneOutside {
		return fmt.Errorf("%w: %q", ErrInvalidZone, s.OSBStatus)
	}
	slots := s.Slots()
	gap := false
	for _, slot := range SlotOrder {
		if slots.Get(slot) == "" {
			gap = true
			continue
		}
		if gap {
			return fmt.Errorf("%w: %s set while an earlier slot is empty", ErrSlotOrder, slot)
		}
	}
	// A collecting session may briefly hold all four slots between the last
	// fill and MarkCompleted; the reverse never happens.
	if s.Status == StatusCompleted && !s.AllSlotsSet() {
		return fmt.Errorf("%w: completed with missing slots", ErrStatusMismatch)
	}
	if s.Status != StatusCollecting && s.Status != StatusCompleted {
		return fmt.Errorf("%w: unknown status %q", ErrStatusMismatch, s.Status)
	}
	return nil
}
