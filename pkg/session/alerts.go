package session

import "github.com/aretw0/accreq/pkg/domain"

// Alerts is the alert queue of one loaded session. Changes are persisted when
// the session is saved.
type Alerts struct {
	session *domain.Session
}

// NewAlerts exposes the alerts of s as a queue.
func NewAlerts(s *domain.Session) *Alerts {
	return &Alerts{session: s}
}

// Append queues alert after the existing ones.
func (a *Alerts) Append(alert domain.Alert) {
	a.session.Alerts = append(a.session.Alerts, alert)
}

// Drain returns the queued alerts in order and empties the queue.
func (a *Alerts) Drain() []domain.Alert {
	out := a.session.Alerts
	a.session.Alerts = []domain.Alert{}
	if out == nil {
		out = []domain.Alert{}
	}
	return out
}
