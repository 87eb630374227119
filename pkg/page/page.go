package page

import (
	"context"

	"github.com/aretw0/accreq/pkg/domain"
)

// Main is the route used when the request names no specific action.
const Main = "main"

// Action is one routable operation of a page.
type Action func(ctx context.Context, r *Request) error

// Actions maps route names to the actions a page declares.
type Actions map[string]Action

// Page is the contract every concrete page implements.
type Page interface {
	// Actions returns the routable actions. It must contain Main.
	Actions() Actions

	// Security returns who may reach the given route. It is evaluated before
	// the lifecycle runs.
	Security(route string) domain.SecurityConfiguration
}
