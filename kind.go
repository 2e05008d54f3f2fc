package bastion

import (
	"context"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/store"
)

// resourceKind abstracts how a resource kind exposes its owner and its
// (possibly transitive) team. OwnershipOrAdmin dispatches through this
// interface instead of branching on a kind tag, so adding a kind means
// adding an implementation, not editing the resolver.
type resourceKind interface {
	// resolveOwner returns the principal that owns the resource.
	resolveOwner(ctx context.Context, resID id.ID) (string, error)

	// resolveTeam returns the team the resource is attributed to, or nil
	// when it has none.
	resolveTeam(ctx context.Context, resID id.ID) (*id.TeamID, error)
}

// projectKind reads ownership directly off the project record.
type projectKind struct {
	store store.Store
}

func (k projectKind) resolveOwner(ctx context.Context, resID id.ID) (string, error) {
	own, err := k.store.GetProjectOwnership(ctx, resID)
	if err != nil {
		return "", err
	}
	return own.OwnerID, nil
}

func (k projectKind) resolveTeam(ctx context.Context, resID id.ID) (*id.TeamID, error) {
	own, err := k.store.GetProjectOwnership(ctx, resID)
	if err != nil {
		return nil, err
	}
	return own.TeamID, nil
}

// environmentKind walks environment → project to find the team; the
// environment's own owner is its creator.
type environmentKind struct {
	store store.Store
}

func (k environmentKind) resolveOwner(ctx context.Context, resID id.ID) (string, error) {
	own, err := k.store.GetEnvironmentOwnership(ctx, resID)
	if err != nil {
		return "", err
	}
	return own.CreatorID, nil
}

func (k environmentKind) resolveTeam(ctx context.Context, resID id.ID) (*id.TeamID, error) {
	own, err := k.store.GetEnvironmentOwnership(ctx, resID)
	if err != nil {
		return nil, err
	}
	proj, err := k.store.GetProjectOwnership(ctx, own.ProjectID)
	if err != nil {
		return nil, err
	}
	return proj.TeamID, nil
}
