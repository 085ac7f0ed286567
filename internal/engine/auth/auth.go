package auth

import (
	"fmt"
	"slices"

	"feeline/internal/config"
)

// Permissions checked by the API.
const (
	ProjectRead    = "project.read"
	ProjectWrite   = "project.write"
	PhaseRead      = "phase.read"
	PhaseWrite     = "phase.write"
	DeveloperRead  = "developer.read"
	DeveloperWrite = "developer.write"
	TaskRead       = "task.read"
	TaskWrite      = "task.write"
	PaymentRead    = "payment.read"
	PaymentWrite   = "payment.write"
	FeeRead        = "fee.read"
	DashboardRead  = "dashboard.read"
	EventRead      = "event.read"
)

// Wildcard grants every permission.
const Wildcard = "*"

// ForbiddenError indicates missing permission.
type ForbiddenError struct {
	Permission string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("permission %s required", e.Permission)
}

// Authorizer resolves role permissions from the workspace RBAC config.
type Authorizer struct {
	Roles map[string]config.RBACRole
}

func New(cfg *config.Config) Authorizer {
	if cfg == nil {
		return Authorizer{}
	}
	return Authorizer{Roles: cfg.RBAC.Roles}
}

// Permissions returns the union of permissions granted by roles.
func (a Authorizer) Permissions(roles []string) []string {
	var out []string
	for _, r := range roles {
		for _, p := range a.Roles[r].Permissions {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	return out
}

func (a Authorizer) Allowed(roles []string, perm string) bool {
	perms := a.Permissions(roles)
	return slices.Contains(perms, Wildcard) || slices.Contains(perms, perm)
}

// Require returns ForbiddenError unless one of roles grants perm.
func (a Authorizer) Require(roles []string, perm string) error {
	if !a.Allowed(roles, perm) {
		return ForbiddenError{Permission: perm}
	}
	return nil
}
