package types

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// FormatValues renders values as a markdown table.
func FormatValues(values Values) string {
	if len(values) == 0 {
		return ""
	}
	var buf strings.Builder
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Value")
	for _, v := range values {
		_ = table.Append(string(v.Field), v.Value)
	}
	_ = table.Render()
	return buf.String()
}

func formatFieldsSection(title string, fields []FieldInfo) string {
	if len(fields) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString(title)
	buf.WriteString("\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Prompt")
	for _, field := range fields {
		_ = table.Append(string(field.Name), field.DisplayName)
	}
	_ = table.Render()
	return buf.String()
}

// ToolRequest is the context handed to model-backed components.
type ToolRequest struct {
	Stage       Stage
	MessagePair MessagePair
	Current     *FieldInfo
	Position    int
	Total       int
	Pending     []FieldInfo
	Answers     Values
	CanGoBack   bool
	Templates   []string
}

type MessagePair struct {
	Question string
	Answer   string
}

func FormatToolRequest(req *ToolRequest) (string, error) {
	if req == nil {
		return "", fmt.Errorf("nil tool request")
	}
	sections := []string{
		fmt.Sprintf("# Current Stage:\n%s", req.Stage),
	}
	if len(req.Templates) > 0 {
		sections = append(sections, fmt.Sprintf("# Selected templates:\n%s", strings.Join(req.Templates, ", ")))
	}
	if req.Current != nil {
		sections = append(sections, fmt.Sprintf("# Current field (%d/%d):\n%s [%s]", req.Position, req.Total, req.Current.DisplayName, req.Current.Name))
	}
	sections = append(sections, fmt.Sprintf("# Can go back:\n%t", req.CanGoBack))
	if req.MessagePair.Question != "" || req.MessagePair.Answer != "" {
		sections = append(sections, "# Latest Dialogue:")
		if req.MessagePair.Question != "" {
			sections = append(sections, fmt.Sprintf("## Assistant Question:\n%s", req.MessagePair.Question))
		}
		if req.MessagePair.Answer != "" {
			sections = append(sections, fmt.Sprintf("## User Answer:\n%s", req.MessagePair.Answer))
		}
	}
	if s := formatFieldsSection("# Pending fields:", req.Pending); s != "" {
		sections = append(sections, s)
	}
	if s := FormatValues(req.Answers); s != "" {
		sections = append(sections, "# Answers so far:\n"+s)
	}
	return strings.Join(sections, "\n\n"), nil
}
