package domain

// SecurityConfiguration declares who may reach a page (or one of its routes).
// It is evaluated by the HTTP layer before the page lifecycle runs.
type SecurityConfiguration struct {
	AllowAnonymous bool
	RequireActive  bool
	RequireAdmin   bool
}

// PublicPage can be reached by anyone, including the anonymous user.
func PublicPage() SecurityConfiguration {
	return SecurityConfiguration{AllowAnonymous: true}
}

// InternalPage requires an identified user that is not suspended or declined.
// Users awaiting review are let through so they can see the review notice.
func InternalPage() SecurityConfiguration {
	return SecurityConfiguration{RequireActive: true}
}

// AdminPage requires a tool administrator.
func AdminPage() SecurityConfiguration {
	return SecurityConfiguration{RequireActive: true, RequireAdmin: true}
}

// Allows reports whether u may reach the page.
func (c SecurityConfiguration) Allows(u *User) bool {
	if c.AllowAnonymous {
		return true
	}
	if u.IsCommunity() {
		return false
	}
	if c.RequireActive && !u.IsActive() {
		return false
	}
	if c.RequireAdmin && !u.IsAdmin() {
		return false
	}
	return true
}
