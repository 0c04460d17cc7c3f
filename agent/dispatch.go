package agent

import (
	"context"
	"strconv"
	"strings"

	"github.com/tbxark/formdoc/types"
)

var (
	selectAllWords = []string{"все", "выбрать все", "✅ выбрать все", "all", "select all"}
	continueWords  = []string{"продолжить", "🚀 продолжить", "далее", "готово", "continue", "next", "done"}
)

// Dispatch routes free text for transports without buttons: commands first, then the
// stage decides whether the text names a category, a template or answers a field.
// Categories and templates may also be picked by their 1-based number.
func (f *Flow) Dispatch(ctx context.Context, text string) (*Response, error) {
	return f.run(ctx, "dispatch", func(ctx context.Context, st *State) (*Response, bool) {
		if resp, keep, ok := f.handleCommand(ctx, st, text); ok {
			return resp, keep
		}
		input := strings.TrimSpace(text)
		switch st.Stage {
		case types.StageSelectingCategory:
			if name, ok := pick(input, f.catalog.CategoryNames()); ok {
				input = name
			}
			return f.selectCategory(ctx, st, input)
		case types.StageSelectingTemplates:
			switch {
			case matchWord(input, selectAllWords):
				return f.selectAll(ctx, st)
			case matchWord(input, continueWords):
				return f.cont(ctx, st)
			}
			if cat, err := f.catalog.Category(st.Category); err == nil {
				if name, ok := pick(input, cat.TemplateNames()); ok {
					input = name
				}
			}
			return f.toggleTemplate(ctx, st, input)
		case types.StageFilling:
			return f.submit(ctx, st, text)
		default:
			return f.unexpected(ctx, st, "dispatch"), true
		}
	})
}

func matchWord(input string, words []string) bool {
	input = strings.ToLower(input)
	for _, w := range words {
		if input == w {
			return true
		}
	}
	return false
}

// pick resolves a 1-based index or a case-insensitive name.
func pick(input string, names []string) (string, bool) {
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(names) {
		return names[n-1], true
	}
	for _, name := range names {
		if strings.EqualFold(name, input) {
			return name, true
		}
	}
	return "", false
}
