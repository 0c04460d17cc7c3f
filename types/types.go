package types

// Stage is the position of a session in the conversation.
type Stage string

const (
	StageSelectingCategory  Stage = "selecting_category"
	StageSelectingTemplates Stage = "selecting_templates"
	StageFilling            Stage = "filling"
	StageCompleted          Stage = "completed"
	StageCancelled          Stage = "cancelled"
)

// Notice reports a condition that did not abort the request.
type Notice string

const (
	NoticeNone                 Notice = ""
	NoticeEmptySelection       Notice = "empty_selection"
	NoticeNoFieldsRequired     Notice = "no_fields_required"
	NoticeNavigationOutOfRange Notice = "navigation_out_of_range"
	NoticeGenerationFailure    Notice = "generation_failure"
	NoticeUnknownCategory      Notice = "unknown_category"
	NoticeUnknownTemplate      Notice = "unknown_template"
	NoticeUnexpectedEvent      Notice = "unexpected_event"
	NoticeAccessDenied         Notice = "access_denied"
)

// Terminal reports whether the notice ends the session.
func (n Notice) Terminal() bool {
	switch n {
	case NoticeNoFieldsRequired, NoticeGenerationFailure:
		return true
	default:
		return false
	}
}

type FieldInfo struct {
	Name        FieldName `json:"name"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`
}
