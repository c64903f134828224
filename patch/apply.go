package patch

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

// FillOps guards a slot write with a test that the slot is still empty, so a
// value that raced in first is never overwritten.
func FillOps(slot types.SlotName, value string) []Operation {
	path := types.Field(slot).JSONPointer
	return []Operation{
		{Op: OperationTest, Path: path, Value: ""},
		{Op: OperationReplace, Path: path, Value: value},
	}
}

// FillSlots writes every provided slot that is still unset on current, in
// slot order. Slots that are already set, or whose predecessor is still
// empty, are skipped. The returned list names the slots actually written.
func FillSlots(current *types.IntakeSession, slots types.Slots) (*types.IntakeSession, []types.SlotName, error) {
	if current == nil {
		return nil, nil, errors.New("nil session")
	}
	doc, err := sonic.Marshal(current)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal session: %w", err)
	}

	allowed := SlotPaths()
	state := current.Slots()
	var applied []types.SlotName
	for i, slot := range types.SlotOrder {
		value := slots.Get(slot)
		if value == "" || state.Get(slot) != "" {
			continue
		}
		if i > 0 && state.Get(types.SlotOrder[i-1]) == "" {
			continue
		}
		ops := FillOps(slot, value)
		if err := ValidatePatchOperations(ops, allowed); err != nil {
			return nil, nil, err
		}
		patched, err := ApplyRFC6902(doc, ops)
		if errors.Is(err, jsonpatch.ErrTestFailed) {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("fill %s: %w", slot, err)
		}
		doc = patched
		_ = state.Set(slot, value)
		applied = append(applied, slot)
	}

	var next types.IntakeSession
	if err := sonic.Unmarshal(doc, &next); err != nil {
		return nil, nil, fmt.Errorf("type mismatch: patched session is invalid: %w", err)
	}
	if err := next.Validate(); err != nil {
		return nil, nil, fmt.Errorf("patched session rejected: %w", err)
	}
	return &next, applied, nil
}

func ApplyRFC6902(doc []byte, ops []Operation) ([]byte, error) {
	if len(ops) == 0 {
		return doc, nil
	}
	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch operations: %w", err)
	}
	p, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}
	out, err := p.Apply(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}
	return out, nil
}
