package types

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// FormatKnownSlotsSection renders the filled slots as a markdown table.
// It returns "" when nothing is known yet.
func FormatKnownSlotsSection(slots Slots) string {
	var rows [][]string
	for _, slot := range SlotOrder {
		if v := slots.Get(slot); v != "" {
			f := Field(slot)
			rows = append(rows, []string{f.DisplayName, string(slot), v})
		}
	}
	if len(rows) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# Known slots:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Slot", "Value")
	for _, row := range rows {
		_ = table.Append(row[0], row[1], row[2])
	}
	_ = table.Render()
	return strings.TrimRight(buf.String(), "\n")
}

// FormatNextSlotSection describes the single slot the assistant must ask for.
func FormatNextSlotSection(slot SlotName) string {
	if slot == "" {
		return ""
	}
	f := Field(slot)
	var buf strings.Builder
	buf.WriteString("# Next missing slot:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Slot", "Description")
	_ = table.Append(f.DisplayName, string(slot), f.Description)
	_ = table.Render()
	return strings.TrimRight(buf.String(), "\n")
}
