package domain

import (
	"strings"

	"github.com/Motmedel/utils_go/pkg/mail/validation/address"
)

// UserStatus is the approval state of a tool account.
type UserStatus string

const (
	StatusNew       UserStatus = "New"
	StatusUser      UserStatus = "User"
	StatusAdmin     UserStatus = "Admin"
	StatusSuspended UserStatus = "Suspended"
	StatusDeclined  UserStatus = "Declined"
)

// CommunityUserID identifies the anonymous user.
const CommunityUserID int64 = 0

// User is a tool account.
type User struct {
	ID         int64      `db:"id"`
	Username   string     `db:"username"`
	Email      string     `db:"email"`
	Status     UserStatus `db:"status"`
	WelcomeSig string     `db:"welcome_sig"`
	EmailSig   string     `db:"email_sig"`
	AbortPref  bool       `db:"abort_pref"`
}

// CommunityUser returns the anonymous user used when no identity is known.
func CommunityUser() *User {
	return &User{ID: CommunityUserID, Username: "[Community]"}
}

// IsCommunity reports whether u is the anonymous user.
func (u *User) IsCommunity() bool {
	return u == nil || u.ID == CommunityUserID
}

// IsNew reports whether the account was requested but not yet reviewed.
func (u *User) IsNew() bool {
	return u != nil && !u.IsCommunity() && u.Status == StatusNew
}

// IsAdmin reports whether u holds tool administrator rights.
func (u *User) IsAdmin() bool {
	return u != nil && u.Status == StatusAdmin
}

// IsActive reports whether u is identified and neither suspended nor declined.
func (u *User) IsActive() bool {
	if u.IsCommunity() {
		return false
	}
	return u.Status != StatusSuspended && u.Status != StatusDeclined
}

// ValidEmail reports whether addr is a bare RFC 5322 address, without a
// display name or surrounding whitespace, on a registrable domain.
func ValidEmail(addr string) bool {
	if addr != strings.TrimSpace(addr) {
		return false
	}
	return address.Validate(addr) == nil
}
