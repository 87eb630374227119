package page

import (
	"maps"
	"net/http"
	"net/url"
	"slices"

	"github.com/aretw0/accreq/internal/typeahead"
	"github.com/aretw0/accreq/pkg/domain"
	"github.com/aretw0/accreq/pkg/ports"
)

const (
	// NoTemplate means nothing is rendered.
	NoTemplate = ""
	// BaseTemplate is selected until an action chooses another one.
	BaseTemplate = "base"
	// ApplicationErrorTemplate shows a recovered BusinessRuleViolation.
	ApplicationErrorTemplate = "exception/application-logic"
)

// Request is the page instance of one HTTP request. It is created by the
// router, mutated by the lifecycle and the bound action, and discarded when
// the response has been sent.
type Request struct {
	// HTTP is the incoming request.
	HTTP *http.Request
	// Site is the deployment configuration.
	Site *domain.SiteConfiguration
	// User is the current user, possibly the community user.
	User *domain.User
	// Store is the database handle owned by this request.
	Store ports.Store
	// Alerts is the alert queue of the current session.
	Alerts ports.AlertQueue
	// TypeAhead collects autocomplete sources defined by the action.
	TypeAhead *typeahead.Helper

	name      string
	page      Page
	routeName string
	action    Action

	template    string
	htmlTitle   string
	redirecting bool
	headers     []string
	vars        map[string]any

	accountAlerted bool
}

// NewRequest creates the page instance for the page registered under name.
func NewRequest(name string, p Page) *Request {
	return &Request{
		name:      name,
		page:      p,
		template:  BaseTemplate,
		vars:      make(map[string]any),
		TypeAhead: typeahead.New(),
	}
}

// PageName returns the name the page was resolved under.
func (r *Request) PageName() string {
	return r.name
}

// Page returns the concrete page.
func (r *Request) Page() Page {
	return r.page
}

// SetRoute binds the action the request will run. The route is checked
// against the page's action table before it is adopted.
func (r *Request) SetRoute(route string) error {
	if r.routeName != "" {
		return &domain.InvalidStateError{Reason: "route already bound to '" + r.routeName + "'"}
	}
	if r.page == nil {
		return &domain.RoutingError{Page: r.name, Route: route}
	}

	action, ok := r.page.Actions()[route]
	if !ok || action == nil {
		return &domain.RoutingError{Page: r.name, Route: route}
	}

	r.routeName = route
	r.action = action
	return nil
}

// RouteName returns the bound route, or "" if the request is unrouted.
func (r *Request) RouteName() string {
	return r.routeName
}

// SetTemplate selects the template to render. It fails once the request is
// redirecting.
func (r *Request) SetTemplate(name string) error {
	if r.redirecting {
		return &domain.InvalidStateError{Reason: "this page has been set as a redirect, no template can be displayed"}
	}
	r.template = name
	return nil
}

// Template returns the selected template, or NoTemplate.
func (r *Request) Template() string {
	return r.template
}

// Assign binds a template variable. The last write for a key wins.
func (r *Request) Assign(key string, value any) {
	r.vars[key] = value
}

// Vars returns a copy of the template variables.
func (r *Request) Vars() map[string]any {
	return maps.Clone(r.vars)
}

// SetHTMLTitle sets the page title.
func (r *Request) SetHTMLTitle(title string) {
	r.htmlTitle = title
}

// HTMLTitle returns the page title.
func (r *Request) HTMLTitle() string {
	return r.htmlTitle
}

// AddHeader queues a raw header line.
func (r *Request) AddHeader(line string) {
	r.headers = append(r.headers, line)
}

// Headers returns a copy of the header queue.
func (r *Request) Headers() []string {
	return slices.Clone(r.headers)
}

// IsRedirecting reports whether a redirect was issued.
func (r *Request) IsRedirecting() bool {
	return r.redirecting
}

// Redirect sends the browser to another page (and optionally action) of the
// tool with a GET.
func (r *Request) Redirect(page, action string, params url.Values) error {
	prefix := ""
	if r.Site != nil {
		prefix = r.Site.ScriptPath
	}
	return r.RedirectURL(BuildURL(prefix, page, action, params))
}

// RedirectURL sends the browser to target with a GET. No template is
// rendered afterwards.
func (r *Request) RedirectURL(target string) error {
	if r.redirecting {
		return &domain.InvalidStateError{Reason: "this page has already been set as a redirect"}
	}

	// 303 See Other: re-request the new address with a GET.
	r.headers = append(r.headers, "HTTP/1.1 303 See Other", "Location: "+target)
	r.template = NoTemplate
	r.redirecting = true
	return nil
}
