package patch

import (
	"fmt"
	"slices"
)

// ValidatePatchOperations rejects operations outside the allowed pointers. An empty allow-list
// permits every top-level pointer.
func ValidatePatchOperations(ops []Operation, allowedPaths []string) error {
	for i, op := range ops {
		switch op.Op {
		case OperationAdd, OperationRemove, OperationReplace:
		default:
			return fmt.Errorf("operation %d: unsupported op %q", i, op.Op)
		}
		if _, ok := fieldFromPointer(op.Path); !ok {
			return fmt.Errorf("operation %d: path %q is not a top-level pointer", i, op.Path)
		}
		if op.Op != OperationRemove {
			if _, ok := op.Value.(string); !ok {
				return fmt.Errorf("operation %d: value for %q must be a string", i, op.Path)
			}
		}
		if len(allowedPaths) > 0 && !slices.Contains(allowedPaths, op.Path) {
			return fmt.Errorf("operation %d: path %q is not in the allowed paths set", i, op.Path)
		}
	}
	return nil
}
