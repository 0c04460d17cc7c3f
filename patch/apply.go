package patch

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tbxark/formdoc/types"
)

// Answers is the answer document: one string member per answered field.
type Answers map[types.FieldName]string

func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Apply runs ops against a copy of answers. Removing an unanswered field is a no-op and
// replacing one becomes an add.
func Apply(answers Answers, ops []Operation) (Answers, error) {
	if len(ops) == 0 {
		return answers.Clone(), nil
	}
	if answers == nil {
		answers = Answers{}
	}
	currentJSON, err := sonic.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answers: %w", err)
	}

	ops = FixOperation(answers, ops)
	if len(ops) == 0 {
		return answers.Clone(), nil
	}
	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch operations: %w", err)
	}
	p, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}
	modifiedJSON, err := p.Apply(currentJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}

	result := Answers{}
	if err := sonic.Unmarshal(modifiedJSON, &result); err != nil {
		return nil, fmt.Errorf("patch produced a non-string answer: %w", err)
	}
	return result, nil
}

func FixOperation(answers Answers, ops []Operation) []Operation {
	fixed := make([]Operation, 0, len(ops))
	for _, op := range ops {
		switch op.Op {
		case OperationReplace:
			if !pathExists(answers, op.Path) {
				op.Op = OperationAdd
			}
			fixed = append(fixed, op)
		case OperationRemove:
			if pathExists(answers, op.Path) {
				fixed = append(fixed, op)
			}
		default:
			fixed = append(fixed, op)
		}
	}
	return fixed
}

func pathExists(answers Answers, path string) bool {
	field, ok := fieldFromPointer(path)
	if !ok {
		return false
	}
	_, exists := answers[field]
	return exists
}

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// fieldFromPointer accepts only top-level pointers; the answer document is flat.
func fieldFromPointer(path string) (types.FieldName, bool) {
	if !strings.HasPrefix(path, "/") {
		return "", false
	}
	token := path[1:]
	if strings.Contains(token, "/") {
		return "", false
	}
	return types.FieldName(pointerUnescaper.Replace(token)), true
}
