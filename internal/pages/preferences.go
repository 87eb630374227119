package pages

import (
	"context"
	"fmt"

	"github.com/aretw0/accreq/pkg/domain"
	"github.com/aretw0/accreq/pkg/page"
)

// Preferences lets users edit their signatures and contact address.
type Preferences struct{}

func (p *Preferences) Actions() page.Actions {
	return page.Actions{page.Main: p.main}
}

func (p *Preferences) Security(string) domain.SecurityConfiguration {
	return domain.InternalPage()
}

func (p *Preferences) main(ctx context.Context, r *page.Request) error {
	enforceOAuth := r.Site.EnforceOAuth

	if !wasPosted(r) {
		r.SetHTMLTitle("Preferences")
		r.Assign("enforceOAuth", enforceOAuth)
		return r.SetTemplate("preferences/prefs")
	}

	sig, err := postString(r, "sig", MaxFieldSize)
	if err != nil {
		return err
	}
	emailSig, err := postString(r, "emailsig", MaxTextSize)
	if err != nil {
		return err
	}

	// The address comes from the identity provider when OAuth is enforced.
	email := ""
	if !enforceOAuth {
		email, err = postString(r, "email", MaxFieldSize)
		if err != nil {
			return err
		}
		if email != "" && !domain.ValidEmail(email) {
			return domain.Violation("Invalid email address")
		}
	}

	u := r.User
	u.WelcomeSig = sig
	u.EmailSig = emailSig
	u.AbortPref = postBool(r, "abortpref")
	if email != "" {
		u.Email = email
	}

	if err := r.Store.Users().Save(ctx, u); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	if r.Alerts != nil {
		r.Alerts.Append(domain.NewAlert("Preferences updated!", "", domain.AlertSuccess))
	}
	return r.Redirect("", "", nil)
}
