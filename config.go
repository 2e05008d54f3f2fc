package bastion

// Config holds configuration for the resolver and gate.
type Config struct {
	// EnableAudit controls whether the gate records each enforcement in
	// the decision log. Defaults to true.
	EnableAudit *bool `json:"enable_audit,omitempty"`

	// AuditAllowed controls whether allowed decisions are recorded too,
	// or only denials. Defaults to true.
	AuditAllowed *bool `json:"audit_allowed,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	t := true
	return Config{
		EnableAudit:  &t,
		AuditAllowed: &t,
	}
}

func (c Config) auditEnabled() bool { return c.EnableAudit == nil || *c.EnableAudit }
func (c Config) auditAllowed() bool { return c.AuditAllowed == nil || *c.AuditAllowed }
