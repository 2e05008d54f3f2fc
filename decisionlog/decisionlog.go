// Package decisionlog defines the decision audit log Entry entity.
package decisionlog

import (
	"errors"
	"time"

	"github.com/xraph/bastion/id"
)

// ErrNotFound is returned when a decision log entry does not exist.
var ErrNotFound = errors.New("decisionlog: not found")

// Entry is a single authorization decision audit record. Resource IDs are
// stored as strings so an entry survives deletion of the resource it
// referenced.
type Entry struct {
	ID            id.DecisionLogID `json:"id" db:"id"`
	PrincipalID   string           `json:"principal_id" db:"principal_id"`
	Procedure     string           `json:"procedure" db:"procedure"`
	TeamID        string           `json:"team_id,omitempty" db:"team_id"`
	ProjectID     string           `json:"project_id,omitempty" db:"project_id"`
	EnvironmentID string           `json:"environment_id,omitempty" db:"environment_id"`
	MemberID      string           `json:"member_id,omitempty" db:"member_id"`
	Decision      string           `json:"decision" db:"decision"`
	Reason        string           `json:"reason,omitempty" db:"reason"`
	EvalTimeNs    int64            `json:"eval_time_ns" db:"eval_time_ns"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying decision log entries.
type QueryFilter struct {
	PrincipalID string     `json:"principal_id,omitempty"`
	Procedure   string     `json:"procedure,omitempty"`
	Decision    string     `json:"decision,omitempty"`
	TeamID      string     `json:"team_id,omitempty"`
	After       *time.Time `json:"after,omitempty"`
	Before      *time.Time `json:"before,omitempty"`
	Limit       int        `json:"limit,omitempty"`
	Offset      int        `json:"offset,omitempty"`
}
