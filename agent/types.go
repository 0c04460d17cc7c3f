package agent

import (
	"strings"

	"github.com/tbxark/formdoc/types"
)

type TemplateOption struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// Response is what the transport renders after an event.
type Response struct {
	Stage   types.Stage `json:"stage"`
	Message string      `json:"message,omitempty"`
	// Prompt is the question for the current field while filling.
	Prompt     string            `json:"prompt,omitempty"`
	Notice     types.Notice      `json:"notice,omitempty"`
	Categories []string          `json:"categories,omitempty"`
	Templates  []TemplateOption  `json:"templates,omitempty"`
	Documents  []string          `json:"documents,omitempty"`
	CanGoBack  bool              `json:"can_go_back,omitempty"`
	Completed  bool              `json:"completed,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Text joins the message and the prompt for plain text transports.
func (r *Response) Text() string {
	parts := make([]string, 0, 2)
	for _, s := range []string{r.Message, r.Prompt} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Ended reports whether the session state was discarded by this event.
func (r *Response) Ended() bool {
	return r.Completed || r.Stage == types.StageCancelled || r.Notice.Terminal()
}
