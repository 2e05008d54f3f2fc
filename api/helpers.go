package api

import (
	"errors"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
)

// mapError maps domain errors to Forge HTTP errors. The denial message is
// uniform on the wire; the specific reason lives in the decision log.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bastion.ErrUnauthorized) {
		return forge.Unauthorized("authentication required")
	}
	if errors.Is(err, bastion.ErrAccessDenied) {
		return forge.Forbidden("access denied")
	}
	if bastion.IsNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, bastion.ErrDuplicateMembership) || errors.Is(err, bastion.ErrLastAdmin) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, bastion.ErrInvalidRole) || errors.Is(err, bastion.ErrInvalidCapability) {
		return forge.BadRequest(err.Error())
	}
	return err
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
