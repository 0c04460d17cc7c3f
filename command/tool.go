package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/formdoc/structured"
	"github.com/tbxark/formdoc/types"
)

const (
	parseCommandToolName        = "parse_navigation_intent"
	parseCommandToolDescription = "Decide whether the user's message is a navigation command or an answer to the current field."
)

type parseCommandInput struct {
	Intent Command `json:"intent" jsonschema:"required,enum=restart,enum=cancel,enum=back_to_previous,enum=back_to_templates,enum=back_to_categories,enum=none,description=The navigation intent of the message or none when it answers the field"`
}

type ToolBasedCommandParser struct {
	chain        *structured.Chain[*types.ToolRequest, parseCommandInput]
	sessionReset bool
}

type ToolParserOption func(*ToolBasedCommandParser)

// WithSessionReset lets the model return restart and cancel. Both delete the session, so
// by default they are only recognised from keywords.
func WithSessionReset(allow bool) ToolParserOption {
	return func(p *ToolBasedCommandParser) {
		p.sessionReset = allow
	}
}

func NewToolBasedCommandParser(chatModel model.ToolCallingChatModel, opts ...ToolParserOption) (*ToolBasedCommandParser, error) {
	chain, err := structured.NewChain[*types.ToolRequest, parseCommandInput](
		chatModel,
		buildParseCommandPrompt,
		parseCommandToolName,
		parseCommandToolDescription,
	)
	if err != nil {
		return nil, err
	}
	p := &ToolBasedCommandParser{chain: chain}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *ToolBasedCommandParser) ParseCommand(ctx context.Context, req *types.ToolRequest) (Command, error) {
	result, err := p.chain.Invoke(ctx, req)
	if err != nil {
		return None, err
	}
	if result == nil || result.Intent == "" {
		return None, fmt.Errorf("empty intent returned by %s", parseCommandToolName)
	}
	if !result.Intent.Valid() {
		return None, fmt.Errorf("unknown intent %q returned by %s", result.Intent, parseCommandToolName)
	}
	switch result.Intent {
	case BackToPrevious:
		if !req.CanGoBack {
			return None, nil
		}
	case Restart, Cancel:
		if !p.sessionReset {
			slog.Debug("Ignoring session reset from model", "intent", result.Intent)
			return None, nil
		}
	}
	return result.Intent, nil
}

func buildParseCommandPrompt(ctx context.Context, req *types.ToolRequest) ([]*schema.Message, error) {
	message, err := types.FormatToolRequest(req)
	if err != nil {
		return nil, fmt.Errorf("convert to prompt message failed: %w", err)
	}

	systemPrompt := fmt.Sprintf(parseCommandSystemPrompt, parseCommandToolName)
	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(message),
	}, nil
}

const parseCommandSystemPrompt = `You are the input router of a bot that fills medical document templates field by field.

The assistant has just asked for the current field. Decide whether the user's message is an answer to that question or a navigation command.

IMPORTANT: Almost every message is an answer. Names, dates, addresses, codes, diagnoses and free text, even short words, are answers. Only choose a command when the message clearly asks to navigate.

Allowed intents:
- restart: the user wants to start over from the beginning.
- cancel: the user wants to stop filling documents altogether.
- back_to_previous: the user wants to correct the previous answer.
- back_to_templates: the user wants to change which documents are selected.
- back_to_categories: the user wants to pick another category of documents.
- none: the message is an answer to the current field.

Call the '%s' tool with the result.`
