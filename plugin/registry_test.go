package plugin

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
)

type testPlugin struct {
	decisions int
	members   int
	failHooks bool
}

func (p *testPlugin) Name() string { return "test" }

func (p *testPlugin) OnBeforeDecision(_ context.Context, _ any) error {
	p.decisions++
	if p.failHooks {
		return errors.New("boom")
	}
	return nil
}

func (p *testPlugin) OnMemberAdded(_ context.Context, _ *membership.Membership) error {
	p.members++
	return nil
}

func TestRegistryDispatchesOnlyImplementedHooks(t *testing.T) {
	r := NewRegistry(slog.Default())
	p := &testPlugin{}
	r.Register(p)

	ctx := context.Background()
	r.EmitBeforeDecision(ctx, nil)
	r.EmitBeforeDecision(ctx, nil)
	r.EmitMemberAdded(ctx, &membership.Membership{})

	// Hooks the plugin does not implement must be no-ops.
	r.EmitTeamDeleted(ctx, id.NewTeamID())
	r.EmitShutdown(ctx)

	if p.decisions != 2 {
		t.Fatalf("expected 2 decision events, got %d", p.decisions)
	}
	if p.members != 1 {
		t.Fatalf("expected 1 member event, got %d", p.members)
	}
}

func TestRegistryHookErrorsAreSwallowed(t *testing.T) {
	r := NewRegistry(slog.Default())
	p := &testPlugin{failHooks: true}
	r.Register(p)

	// Must not panic or propagate.
	r.EmitBeforeDecision(context.Background(), nil)

	if p.decisions != 1 {
		t.Fatalf("expected hook to run despite error, got %d", p.decisions)
	}
}

func TestRegistryPlugins(t *testing.T) {
	r := NewRegistry(slog.Default())
	r.Register(&testPlugin{})

	if len(r.Plugins()) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(r.Plugins()))
	}
}
