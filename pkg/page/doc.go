/*
Package page implements the lifecycle every tool page runs inside.

A router builds one Request per HTTP request, binds the route (action name)
with SetRoute and hands the request to Lifecycle.Execute, which

 1. primes the template environment,
 2. opens the request transaction,
 3. dispatches the bound action and commits, or rolls back,
 4. rolls back any transaction still open,
 5. attaches alerts, title and shared UI data,
 6. emits the queued headers and renders the selected template.

A BusinessRuleViolation returned by an action is recovered: the transaction is
rolled back and the generic application-error template is rendered with the
violation's message. Every other error aborts the request.

Pages declare their actions as an explicit table:

	func (p *Preferences) Actions() page.Actions {
		return page.Actions{page.Main: p.main}
	}

A page either renders a template or redirects, never both:

	func (p *Preferences) main(ctx context.Context, r *page.Request) error {
		if r.HTTP.Method == http.MethodPost {
			// ... save ...
			return r.Redirect("", "", nil)
		}
		return r.SetTemplate("preferences/prefs")
	}
*/
package page
