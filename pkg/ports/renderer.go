package ports

import "github.com/aretw0/accreq/pkg/domain"

// Renderer turns a template name and its variables into a response body.
type Renderer interface {
	Render(name string, vars map[string]any) (string, error)
}

// AlertQueue holds the alerts waiting to be shown to the current session.
type AlertQueue interface {
	Append(alert domain.Alert)
	// Drain returns the queued alerts in order and empties the queue.
	Drain() []domain.Alert
}
