package command

import (
	"context"

	"github.com/tbxark/formdoc/types"
)

// Command is a navigation event typed as free text.
type Command string

const (
	Restart          Command = "restart"
	Cancel           Command = "cancel"
	BackToPrevious   Command = "back_to_previous"
	BackToTemplates  Command = "back_to_templates"
	BackToCategories Command = "back_to_categories"
	None             Command = "none"
)

func (c Command) Valid() bool {
	switch c {
	case Restart, Cancel, BackToPrevious, BackToTemplates, BackToCategories, None:
		return true
	default:
		return false
	}
}

type Parser interface {
	ParseCommand(ctx context.Context, req *types.ToolRequest) (Command, error)
}
