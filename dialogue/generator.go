package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/formdoc/types"
)

// Generator phrases the question for the current field.
type Generator interface {
	GenerateDialogue(ctx context.Context, req *types.ToolRequest) (string, error)
}

// LocalDialogueGenerator renders the fixed "(i/n) prompt" text.
type LocalDialogueGenerator struct{}

func (LocalDialogueGenerator) GenerateDialogue(ctx context.Context, req *types.ToolRequest) (string, error) {
	if req == nil || req.Current == nil {
		return "", errors.New("no current field to ask for")
	}
	return FormatPrompt(req.Position, req.Total, req.Current.DisplayName), nil
}

type FailbackDialogueGenerator struct {
	generators []Generator
}

func NewFailbackDialogueGenerator(generators ...Generator) *FailbackDialogueGenerator {
	return &FailbackDialogueGenerator{generators: generators}
}

func (g *FailbackDialogueGenerator) GenerateDialogue(ctx context.Context, req *types.ToolRequest) (string, error) {
	var lastErr error
	for _, generator := range g.generators {
		text, err := generator.GenerateDialogue(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("all dialogue generators failed: %w", lastErr)
}

// DefaultDialogueSystemPromptTemplate may contain one "%s" for the reply language.
const DefaultDialogueSystemPromptTemplate = `You are a polite assistant helping a doctor fill in medical document templates.

Ask for exactly one value: the current field.
- Start the message with the progress counter exactly as given, e.g. "(2/7)".
- Mention the field the way it is named in the current field prompt; keep any emoji.
- If the user's last answer looked like a mistake, you may say so briefly, but still ask for the current field.
- Never ask for several fields at once and never invent values.
- Reply in %s.
`

type ToolBasedDialogueGenerator struct {
	Lang         string
	systemPrompt string
	chatModel    model.ToolCallingChatModel
}

type GeneratorOption func(*ToolBasedDialogueGenerator)

func WithDialogueLang(lang string) GeneratorOption {
	return func(g *ToolBasedDialogueGenerator) {
		g.Lang = lang
	}
}

// WithDialogueSystemPrompt replaces the system prompt; "%s" is formatted with the language.
func WithDialogueSystemPrompt(systemPrompt string) GeneratorOption {
	return func(g *ToolBasedDialogueGenerator) {
		g.systemPrompt = systemPrompt
	}
}

func NewToolBasedDialogueGenerator(chatModel model.ToolCallingChatModel, opts ...GeneratorOption) *ToolBasedDialogueGenerator {
	g := &ToolBasedDialogueGenerator{
		Lang:         "Russian",
		systemPrompt: DefaultDialogueSystemPromptTemplate,
		chatModel:    chatModel,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

func (g *ToolBasedDialogueGenerator) GenerateDialogue(ctx context.Context, req *types.ToolRequest) (string, error) {
	if req == nil || req.Current == nil {
		return "", errors.New("no current field to ask for")
	}
	messages, err := g.buildDialoguePrompt(req)
	if err != nil {
		return "", fmt.Errorf("build dialogue prompt: %w", err)
	}
	response, err := g.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	text := strings.TrimSpace(response.Content)
	if text == "" {
		return "", errors.New("LLM returned an empty question")
	}
	return text, nil
}

func (g *ToolBasedDialogueGenerator) buildDialoguePrompt(req *types.ToolRequest) ([]*schema.Message, error) {
	message, err := types.FormatToolRequest(req)
	if err != nil {
		return nil, err
	}
	systemPrompt := g.systemPrompt
	if strings.Contains(systemPrompt, "%s") {
		systemPrompt = fmt.Sprintf(systemPrompt, g.Lang)
	}
	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(message),
	}, nil
}
