package patch

import (
	"fmt"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

// SlotPaths are the only JSON pointers a slot patch may touch.
func SlotPaths() map[string]bool {
	paths := make(map[string]bool, len(types.SlotOrder))
	for _, slot := range types.SlotOrder {
		paths[types.Field(slot).JSONPointer] = true
	}
	return paths
}

func ValidatePatchOperations(ops []Operation, allowedPaths map[string]bool) error {
	for i, op := range ops {
		if err := validatePathAllowed(op.Path, allowedPaths); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		switch op.Op {
		case OperationAdd, OperationReplace, OperationTest:
		default:
			return fmt.Errorf("operation %d: op %q is not allowed", i, op.Op)
		}
	}
	return nil
}

func validatePathAllowed(path string, allowedPaths map[string]bool) error {
	if len(allowedPaths) == 0 || allowedPaths[path] {
		return nil
	}
	return fmt.Errorf("path %q is not in the allowed paths set", path)
}
