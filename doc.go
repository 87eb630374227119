/*
Package accreq wires the account-request tool: its pages, the page request
lifecycle, the database, session storage and the HTTP server.

# Concept

Every HTTP request resolves a page and an action, then runs through the
page lifecycle. The action executes inside a database transaction. It either
selects a template to render or issues a redirect. A BusinessRuleViolation
rolls the transaction back and is shown to the user as an application error
page, while any other error rolls back and surfaces as a fatal error.

# Usage

	cfg, err := config.Load("accreq.yaml")
	if err != nil {
		log.Fatal(err)
	}

	app, err := accreq.New(cfg, accreq.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	log.Fatal(http.ListenAndServe(cfg.HTTP.Addr, app.Handler()))

The accreq command in cmd/accreq does the same with graceful shutdown and
exposes migration and configuration subcommands.
*/
package accreq
