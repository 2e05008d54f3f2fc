// Package api provides HTTP handlers for the Bastion authorization engine.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/plugin"
	"github.com/xraph/bastion/store"
)

// API wires all Bastion HTTP handlers together.
type API struct {
	gate   *bastion.Gate
	router forge.Router
}

// New creates an API from a Gate and a Forge router.
func New(gate *bastion.Gate, router forge.Router) *API {
	return &API{gate: gate, router: router}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if err := a.RegisterRoutes(a.router); err != nil {
		panic("bastion: register routes: " + err.Error())
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	registerers := []func(forge.Router) error{
		a.registerCheckRoutes,
		a.registerTeamRoutes,
		a.registerMembershipRoutes,
		a.registerProjectRoutes,
		a.registerEnvironmentRoutes,
		a.registerDecisionLogRoutes,
	}
	for _, fn := range registerers {
		if err := fn(router); err != nil {
			return err
		}
	}
	return nil
}

func (a *API) store() store.Store { return a.gate.Resolver().Store() }

func (a *API) plugins() *plugin.Registry { return a.gate.Resolver().Plugins() }

// principal resolves the caller from the request context. The gate
// rejects an empty principal as unauthorized.
func principal(ctx forge.Context) bastion.PrincipalID {
	if userID := forge.UserIDFromContext(ctx.Context()); userID != "" {
		return bastion.PrincipalID(userID)
	}
	p, _ := bastion.PrincipalFromContext(ctx.Context())
	return p
}
