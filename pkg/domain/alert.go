package domain

// AlertType is the presentation class of an alert.
type AlertType string

const (
	AlertSuccess AlertType = "alert-success"
	AlertInfo    AlertType = "alert-info"
	AlertWarning AlertType = "alert-warning"
	AlertError   AlertType = "alert-danger"
)

// Alert is a message queued on the session and shown once on the next page
// that renders a template.
type Alert struct {
	Message  string    `json:"message"`
	Title    string    `json:"title,omitempty"`
	Type     AlertType `json:"type"`
	Closable bool      `json:"closable"`
}

// NewAlert creates a closable alert.
func NewAlert(message, title string, typ AlertType) Alert {
	return Alert{Message: message, Title: title, Type: typ, Closable: true}
}

// AccountRequestedAlert is shown to users whose account is still awaiting review.
func AccountRequestedAlert() Alert {
	return Alert{
		Message: "Your request will be reviewed soon by a tool administrator, and you'll get an email informing you of the decision. " +
			"You won't be able to access most of the tool until then.",
		Title:    "Account Requested!",
		Type:     AlertSuccess,
		Closable: false,
	}
}
