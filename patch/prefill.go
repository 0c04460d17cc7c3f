package patch

import (
	"slices"

	"github.com/tbxark/formdoc/types"
)

// Prefill returns the operations that bring current in line with the non-empty values of
// initial. Keys are visited in sorted order so the patch is stable.
func Prefill(current, initial Answers) []Operation {
	keys := make([]types.FieldName, 0, len(initial))
	for k := range initial {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	ops := make([]Operation, 0, len(keys))
	for _, field := range keys {
		value := initial[field]
		if value == "" {
			continue
		}
		existing, ok := current[field]
		switch {
		case !ok:
			ops = append(ops, Operation{Op: OperationAdd, Path: Pointer(field), Value: value})
		case existing != value:
			ops = append(ops, Operation{Op: OperationReplace, Path: Pointer(field), Value: value})
		}
	}
	return ops
}
