package pages

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/aretw0/accreq/pkg/domain"
	"github.com/aretw0/accreq/pkg/page"
)

var defaultActions = []domain.DefaultAction{
	domain.ActionCreated,
	domain.ActionNotCreated,
	domain.ActionNone,
}

// EmailManagement lists, shows and edits close-reason email templates.
type EmailManagement struct{}

func (p *EmailManagement) Actions() page.Actions {
	return page.Actions{
		page.Main: p.main,
		"view":    p.view,
		"create":  p.create,
		"edit":    p.edit,
	}
}

func (p *EmailManagement) Security(route string) domain.SecurityConfiguration {
	switch route {
	case "create", "edit":
		return domain.AdminPage()
	default:
		return domain.InternalPage()
	}
}

func (p *EmailManagement) main(ctx context.Context, r *page.Request) error {
	repo := r.Store.EmailTemplates()

	active, err := repo.ListAllActive(ctx, domain.FilterAny)
	if err != nil {
		return err
	}
	inactive, err := repo.ListInactive(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(active)+len(inactive))
	for _, t := range active {
		names = append(names, t.Name)
	}
	for _, t := range inactive {
		names = append(names, t.Name)
	}
	r.TypeAhead.Define("name-typeahead", func() ([]string, error) { return names, nil })

	r.SetHTMLTitle("Email Management")
	r.Assign("activeTemplates", active)
	r.Assign("inactiveTemplates", inactive)
	r.Assign("canEdit", r.User.IsAdmin())
	return r.SetTemplate("email-management/main")
}

func (p *EmailManagement) view(ctx context.Context, r *page.Request) error {
	t, err := p.load(ctx, r)
	if err != nil {
		return err
	}

	r.SetHTMLTitle("Email Management")
	r.Assign("emailTemplate", t)
	r.Assign("canEdit", r.User.IsAdmin())
	return r.SetTemplate("email-management/view")
}

func (p *EmailManagement) create(ctx context.Context, r *page.Request) error {
	t := domain.NewEmailTemplate()

	if !wasPosted(r) {
		return p.form(r, t, true)
	}
	if err := p.bind(ctx, r, t); err != nil {
		return err
	}
	return p.save(ctx, r, t)
}

func (p *EmailManagement) edit(ctx context.Context, r *page.Request) error {
	t, err := p.load(ctx, r)
	if err != nil {
		return err
	}

	if !wasPosted(r) {
		return p.form(r, t, false)
	}
	if err := p.bind(ctx, r, t); err != nil {
		return err
	}
	return p.save(ctx, r, t)
}

func (p *EmailManagement) load(ctx context.Context, r *page.Request) (*domain.EmailTemplate, error) {
	id, err := queryID(r)
	if err != nil {
		return nil, err
	}
	t, err := r.Store.EmailTemplates().GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Violation("Unable to find specified email template")
	}
	return t, err
}

func (p *EmailManagement) form(r *page.Request, t *domain.EmailTemplate, isNew bool) error {
	action := "edit"
	params := url.Values{"id": {strconv.FormatInt(t.ID, 10)}}
	if isNew {
		action = "create"
		params = nil
	}

	r.SetHTMLTitle("Email Management")
	r.Assign("emailTemplate", t)
	r.Assign("isNew", isNew)
	r.Assign("isCreatedTemplate", p.isCreatedTemplate(r, t))
	r.Assign("defaultActions", defaultActions)
	r.Assign("formAction", page.BuildURL(r.Site.ScriptPath, EmailManagementPage, action, params))
	return r.SetTemplate("email-management/edit")
}

// bind copies the posted form onto t and checks it.
func (p *EmailManagement) bind(ctx context.Context, r *page.Request, t *domain.EmailTemplate) error {
	name, err := postString(r, "name", MaxFieldSize)
	if err != nil {
		return err
	}
	text, err := postString(r, "text", MaxTextSize)
	if err != nil {
		return err
	}
	question, err := postString(r, "jsquestion", MaxFieldSize)
	if err != nil {
		return err
	}

	if name == "" {
		return domain.Violation("Email template name cannot be empty")
	}
	existing, err := r.Store.EmailTemplates().GetByName(ctx, name)
	switch {
	case err == nil && existing.ID != t.ID:
		return domain.Violation("That Email template name is already in use")
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return err
	}

	t.Name = name
	t.Text = text
	t.JSQuestion = question
	t.PreloadOnly = postBool(r, "preloadonly")

	// The template sent for created accounts is always active and always creates.
	if p.isCreatedTemplate(r, t) {
		t.Active = true
		t.DefaultAction = domain.ActionCreated
		return nil
	}

	action := domain.DefaultAction(r.HTTP.PostFormValue("defaultaction"))
	switch action {
	case domain.ActionCreated, domain.ActionNotCreated, domain.ActionNone:
	default:
		return domain.Violation("Unknown default action %q", string(action))
	}
	t.DefaultAction = action
	t.Active = postBool(r, "active")
	return nil
}

func (p *EmailManagement) save(ctx context.Context, r *page.Request, t *domain.EmailTemplate) error {
	if err := r.Store.EmailTemplates().Save(ctx, t); err != nil {
		return fmt.Errorf("save email template: %w", err)
	}
	if r.Alerts != nil {
		r.Alerts.Append(domain.NewAlert("Email template has been saved successfully.", "", domain.AlertSuccess))
	}
	return r.Redirect(EmailManagementPage, "view", url.Values{"id": {strconv.FormatInt(t.ID, 10)}})
}

func (p *EmailManagement) isCreatedTemplate(r *page.Request, t *domain.EmailTemplate) bool {
	return t.ID != 0 && t.ID == r.Site.CreatedTemplateID
}
