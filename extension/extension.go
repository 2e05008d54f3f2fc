// Package extension provides a Forge extension entry point for Bastion.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/api"
	"github.com/xraph/bastion/plugin"
	"github.com/xraph/bastion/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "bastion"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Team-scoped authorization and policy resolution engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Bastion as a Forge extension.
type Extension struct {
	config      Config
	resolver    *bastion.Resolver
	gate        *bastion.Gate
	apiHandler  *api.API
	logger      *slog.Logger
	bastionOpts []bastion.Option
	plugins     []plugin.Plugin
}

// New creates a Bastion Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Resolver returns the underlying decision engine.
func (e *Extension) Resolver() *bastion.Resolver { return e.resolver }

// Gate returns the enforcement gate.
func (e *Extension) Gate() *bastion.Gate { return e.gate }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It initializes the resolver and
// gate, registers them in the DI container, and optionally registers HTTP
// routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*bastion.Resolver, error) {
		return e.resolver, nil
	}); err != nil {
		return fmt.Errorf("bastion: register resolver in container: %w", err)
	}

	if err := vessel.Provide(fapp.Container(), func() (*bastion.Gate, error) {
		return e.gate, nil
	}); err != nil {
		return fmt.Errorf("bastion: register gate in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := make([]bastion.Option, 0, len(e.bastionOpts)+len(e.plugins)+2)
	opts = append(opts, bastion.WithLogger(logger))
	opts = append(opts, bastion.WithConfig(e.resolverConfig()))

	// Try to resolve the store from the DI container, fall back to the
	// option-provided store.
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		opts = append(opts, bastion.WithStore(s))
	}

	// Append user-provided options (may override store and config).
	opts = append(opts, e.bastionOpts...)

	for _, x := range e.plugins {
		opts = append(opts, bastion.WithPlugin(x))
	}

	r, err := bastion.NewResolver(opts...)
	if err != nil {
		return fmt.Errorf("bastion: create resolver: %w", err)
	}
	e.resolver = r
	e.gate = bastion.NewGate(r)

	e.apiHandler = api.New(e.gate, fapp.Router())

	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(fapp.Router()); err != nil {
			return fmt.Errorf("bastion: register routes: %w", err)
		}
	}

	return nil
}

func (e *Extension) resolverConfig() bastion.Config {
	cfg := bastion.DefaultConfig()
	if e.config.DisableAudit {
		f := false
		cfg.EnableAudit = &f
	}
	if e.config.AuditDeniesOnly {
		f := false
		cfg.AuditAllowed = &f
	}
	return cfg
}

// Start runs migrations if enabled and starts the resolver.
func (e *Extension) Start(ctx context.Context) error {
	if e.resolver == nil {
		return errors.New("bastion: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if s := e.resolver.Store(); s != nil {
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("bastion: migration failed: %w", err)
			}
		}
	}

	return e.resolver.Start(ctx)
}

// Stop gracefully shuts down the resolver.
func (e *Extension) Stop(ctx context.Context) error {
	if e.resolver == nil {
		return nil
	}
	return e.resolver.Stop(ctx)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.resolver == nil {
		return errors.New("bastion: extension not initialized")
	}
	s := e.resolver.Store()
	if s == nil {
		return errors.New("bastion: no store configured")
	}
	return s.Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all Bastion API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
