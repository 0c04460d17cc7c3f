package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/tbxark/formdoc/agent"
	"github.com/tbxark/formdoc/types"
)

// render prints a response the way a chat keyboard would show it.
func render(w io.Writer, text string, resp *agent.Response) {
	var sb strings.Builder
	sb.WriteString("\nБот: ")
	sb.WriteString(text)
	sb.WriteString("\n")
	if resp != nil {
		switch resp.Stage {
		case types.StageSelectingCategory:
			for i, name := range resp.Categories {
				fmt.Fprintf(&sb, "  %d. %s\n", i+1, name)
			}
			sb.WriteString("  /start - перезапустить\n")
		case types.StageSelectingTemplates:
			for i, t := range resp.Templates {
				mark := "◻️"
				if t.Selected {
					mark = "✅"
				}
				fmt.Fprintf(&sb, "  %d. %s %s\n", i+1, mark, t.Name)
			}
			sb.WriteString("  все - выбрать все · продолжить · назад к категориям · /start\n")
		case types.StageFilling:
			if resp.CanGoBack {
				sb.WriteString("  назад - исправить предыдущее поле · ")
			} else {
				sb.WriteString("  ")
			}
			sb.WriteString("назад к выбору · /start · /cancel\n")
		}
	}
	sb.WriteString("======\n")
	_, _ = io.WriteString(w, sb.String())
}
