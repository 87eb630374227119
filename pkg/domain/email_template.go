package domain

import (
	"fmt"
	"html"
)

// DefaultAction is what handling a request with a template does to the
// account request.
type DefaultAction string

const (
	ActionCreated    DefaultAction = "created"
	ActionNotCreated DefaultAction = "not created"
	// ActionNone marks templates that neither create nor decline.
	ActionNone DefaultAction = ""
)

// EmailTemplate is a close-reason email.
type EmailTemplate struct {
	ID            int64         `db:"id"`
	Name          string        `db:"name"`
	Text          string        `db:"text"`
	JSQuestion    string        `db:"js_question"`
	DefaultAction DefaultAction `db:"default_action"`
	Active        bool          `db:"active"`
	PreloadOnly   bool          `db:"preload_only"`
}

// NewEmailTemplate returns a template with the defaults of a fresh record.
func NewEmailTemplate() *EmailTemplate {
	return &EmailTemplate{
		DefaultAction: ActionNotCreated,
		Active:        true,
	}
}

// DroppedTemplate is the pseudo template used when a request is dropped
// without an email.
func DroppedTemplate() *EmailTemplate {
	return &EmailTemplate{ID: 0, Name: "Dropped", Active: true}
}

// Description renders a link to the management view of the template.
func (t *EmailTemplate) Description(baseURL, scriptPath string) string {
	return fmt.Sprintf(`<a href="%s%s/emailManagement/view?id=%d">Email Template #%d (%s)</a>`,
		baseURL, scriptPath, t.ID, t.ID, html.EscapeString(t.Name))
}

// TemplateFilter selects templates by default action in ListAllActive.
type TemplateFilter struct {
	// Any disables filtering on the default action.
	Any bool
	// NoneOnly selects templates whose action is neither created nor not created.
	NoneOnly bool
	// Action is matched when Any and NoneOnly are both false.
	Action DefaultAction
}

var (
	// FilterAny matches every active template.
	FilterAny = TemplateFilter{Any: true}
	// FilterNone matches active templates that neither create nor decline.
	FilterNone = TemplateFilter{NoneOnly: true}
)

// FilterAction matches active templates with the given default action.
func FilterAction(a DefaultAction) TemplateFilter {
	return TemplateFilter{Action: a}
}
