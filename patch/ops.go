package patch

import (
	"strings"

	"github.com/tbxark/formdoc/types"
)

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// Pointer returns the JSON pointer of a field in the answer document.
func Pointer(field types.FieldName) string {
	return "/" + pointerEscaper.Replace(string(field))
}

func Pointers(fields []types.FieldName) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, Pointer(f))
	}
	return out
}

func Add(field types.FieldName, value string) Operation {
	return Operation{Op: OperationAdd, Path: Pointer(field), Value: value}
}

func Remove(field types.FieldName) Operation {
	return Operation{Op: OperationRemove, Path: Pointer(field)}
}
