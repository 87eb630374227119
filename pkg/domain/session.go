package domain

import "time"

// Session is the per-browser state carried between requests.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Alerts    []Alert   `json:"alerts,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Sealed holds the encrypted form of the session when it was written by
	// an encrypting store. Such an envelope carries no UserID or Alerts.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates an empty session for the anonymous user.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		UserID:    CommunityUserID,
		Alerts:    []Alert{},
		CreatedAt: time.Now().UTC(),
	}
}

// Snapshot returns a copy that shares no slices with s.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Alerts = make([]Alert, len(s.Alerts))
	copy(c.Alerts, s.Alerts)
	return &c
}
