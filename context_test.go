package bastion

import (
	"context"
	"testing"
)

func TestPrincipalFromContext(t *testing.T) {
	ctx := WithPrincipal(context.Background(), "u1")

	p, ok := PrincipalFromContext(ctx)
	if !ok || p != "u1" {
		t.Fatalf("expected (u1, true), got (%q, %v)", p, ok)
	}
}

func TestPrincipalFromContextAbsent(t *testing.T) {
	p, ok := PrincipalFromContext(context.Background())
	if ok || p != "" {
		t.Fatalf("expected empty principal, got (%q, %v)", p, ok)
	}

	// An explicitly empty principal does not count as authenticated.
	p, ok = PrincipalFromContext(WithPrincipal(context.Background(), ""))
	if ok || p != "" {
		t.Fatalf("expected empty principal, got (%q, %v)", p, ok)
	}
}
