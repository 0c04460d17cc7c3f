package command

import (
	"context"
	"strings"

	"github.com/tbxark/formdoc/types"
)

// LocalCommandParser matches whole messages against keyword lists, ignoring case.
type LocalCommandParser struct {
	Keywords map[Command][]string
}

func NewLocalCommandParser() *LocalCommandParser {
	return &LocalCommandParser{
		Keywords: map[Command][]string{
			Restart:          {"/start", "/restart", "restart", "перезапустить", "🔄 перезапустить", "заново", "начать заново"},
			Cancel:           {"/cancel", "cancel", "отмена", "отменить", "выход", "стоп"},
			BackToPrevious:   {"/back", "back", "назад", "исправить предыдущее поле", "◀️ исправить предыдущее поле"},
			BackToTemplates:  {"/templates", "назад к выбору", "◀️ назад к выбору", "к выбору документов"},
			BackToCategories: {"/categories", "назад к категориям", "◀️ назад к категориям"},
		},
	}
}

var commandOrder = []Command{Restart, Cancel, BackToPrevious, BackToTemplates, BackToCategories}

func (p *LocalCommandParser) ParseCommand(ctx context.Context, req *types.ToolRequest) (Command, error) {
	if req == nil {
		return None, nil
	}
	normalized := strings.ToLower(strings.TrimSpace(req.MessagePair.Answer))
	if normalized == "" {
		return None, nil
	}
	for _, cmd := range commandOrder {
		for _, keyword := range p.Keywords[cmd] {
			if normalized == strings.ToLower(keyword) {
				return cmd, nil
			}
		}
	}
	return None, nil
}

// KeywordFirstCommandParser asks fallback only when keywords finds no command, so a typed
// keyword never reaches a model.
type KeywordFirstCommandParser struct {
	keywords Parser
	fallback Parser
}

func NewKeywordFirstCommandParser(keywords, fallback Parser) *KeywordFirstCommandParser {
	return &KeywordFirstCommandParser{keywords: keywords, fallback: fallback}
}

func (p *KeywordFirstCommandParser) ParseCommand(ctx context.Context, req *types.ToolRequest) (Command, error) {
	cmd, err := p.keywords.ParseCommand(ctx, req)
	if err == nil && cmd != None {
		return cmd, nil
	}
	if p.fallback == nil {
		return None, err
	}
	return p.fallback.ParseCommand(ctx, req)
}
