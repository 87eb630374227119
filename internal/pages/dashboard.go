package pages

import (
	"context"
	"fmt"
	"html/template"

	"github.com/aretw0/accreq/pkg/domain"
	"github.com/aretw0/accreq/pkg/page"
)

// Dashboard is the landing page.
type Dashboard struct{}

// CloseReasonGroup lists the email templates an admin can close a request
// with, for one kind of outcome.
type CloseReasonGroup struct {
	Title string
	Links []template.HTML
}

func (p *Dashboard) Actions() page.Actions {
	return page.Actions{page.Main: p.main}
}

func (p *Dashboard) Security(string) domain.SecurityConfiguration {
	return domain.PublicPage()
}

func (p *Dashboard) main(ctx context.Context, r *page.Request) error {
	r.SetHTMLTitle("Dashboard")

	if r.User.IsAdmin() {
		users, err := r.Store.Users().List(ctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		var pending []*domain.User
		for _, u := range users {
			if u.Status == domain.StatusNew {
				pending = append(pending, u)
			}
		}
		r.Assign("newUsers", pending)

		groups, err := p.closeReasons(ctx, r)
		if err != nil {
			return err
		}
		r.Assign("closeReasons", groups)
		r.Assign("droppedTemplate", domain.DroppedTemplate())
	}

	return r.SetTemplate("main")
}

// closeReasons groups the active templates the way the request close buttons
// show them. The created template has its own button and is left out.
func (p *Dashboard) closeReasons(ctx context.Context, r *page.Request) ([]CloseReasonGroup, error) {
	repo := r.Store.EmailTemplates()
	createdID := r.Site.CreatedTemplateID

	created, err := repo.ListActive(ctx, domain.ActionCreated, createdID)
	if err != nil {
		return nil, fmt.Errorf("list create reasons: %w", err)
	}
	declined, err := repo.ListActive(ctx, domain.ActionNotCreated, createdID)
	if err != nil {
		return nil, fmt.Errorf("list decline reasons: %w", err)
	}
	other, err := repo.ListAllActive(ctx, domain.FilterNone)
	if err != nil {
		return nil, fmt.Errorf("list other reasons: %w", err)
	}

	links := func(ts []*domain.EmailTemplate) []template.HTML {
		out := make([]template.HTML, 0, len(ts))
		for _, t := range ts {
			// Description escapes the template name.
			out = append(out, template.HTML(t.Description(r.Site.BaseURL, r.Site.ScriptPath)))
		}
		return out
	}
	return []CloseReasonGroup{
		{Title: "Create", Links: links(created)},
		{Title: "Decline", Links: links(declined)},
		{Title: "Custom close", Links: links(other)},
	}, nil
}
