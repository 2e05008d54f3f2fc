package bastion

import (
	"log/slog"

	"github.com/xraph/bastion/plugin"
	"github.com/xraph/bastion/store"
)

// Option is a functional option for the Resolver.
type Option func(*Resolver)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(r *Resolver) { r.store = s } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(r *Resolver) { r.logger = l } }

// WithConfig sets the resolver configuration.
func WithConfig(c Config) Option { return func(r *Resolver) { r.config = c } }

// WithPlugin registers a plugin with the resolver.
func WithPlugin(x plugin.Plugin) Option {
	return func(r *Resolver) {
		if r.plugins == nil {
			r.plugins = plugin.NewRegistry(r.logger)
		}
		r.plugins.Register(x)
	}
}
