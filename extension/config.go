package extension

// Config holds the Bastion extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.bastion" or "bastion" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DisableAudit turns off decision log writes.
	DisableAudit bool `json:"disable_audit" mapstructure:"disable_audit" yaml:"disable_audit"`

	// AuditDeniesOnly records only denied decisions in the decision log.
	AuditDeniesOnly bool `json:"audit_denies_only" mapstructure:"audit_denies_only" yaml:"audit_denies_only"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{}
}
