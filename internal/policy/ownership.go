package policy

import (
	"context"
	"slices"

	"github.com/diewo77/go-materiel/gate"
)

// Ownable is implemented by models that carry an owner.
// Rows detached from a deleted owner report 0.
type Ownable interface {
	GetUserID() uint
}

// OwnershipPolicy allows a principal to act on the resources it owns.
// Actions listed in ownerDenied are refused even to owners.
type OwnershipPolicy struct {
	ownerDenied []gate.Action
}

// NewOwnershipPolicy creates an ownership policy. Owners may perform every
// action except those listed.
func NewOwnershipPolicy(ownerDenied ...gate.Action) *OwnershipPolicy {
	return &OwnershipPolicy{ownerDenied: ownerDenied}
}

// Can checks that the principal owns the resource.
// For list/create (resource is nil) it only checks the action is not denied;
// row visibility is then enforced by Scope.
func (p *OwnershipPolicy) Can(_ context.Context, principal Principal, action gate.Action, resource any) bool {
	if slices.Contains(p.ownerDenied, action) {
		return false
	}
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		// resources without an owner are never granted by ownership
		return false
	}
	owner := ownable.GetUserID()
	return owner != 0 && owner == principal.ID
}

// AdminBypassPolicy wraps another policy and always allows admins.
type AdminBypassPolicy struct {
	inner gate.Policy[Principal]
}

// NewAdminBypassPolicy creates a policy that bypasses inner for admins.
func NewAdminBypassPolicy(inner gate.Policy[Principal]) *AdminBypassPolicy {
	return &AdminBypassPolicy{inner: inner}
}

// Can lets admins through, then falls back to the inner policy.
func (p *AdminBypassPolicy) Can(ctx context.Context, principal Principal, action gate.Action, resource any) bool {
	if principal.IsAdmin {
		return true
	}
	return p.inner.Can(ctx, principal, action, resource)
}

// AdminOnlyPolicy restricts writes to admins. Non-admins may still perform
// the actions listed in readable.
func AdminOnlyPolicy(readable ...gate.Action) gate.Policy[Principal] {
	return gate.PolicyFunc[Principal](func(_ context.Context, principal Principal, action gate.Action, _ any) bool {
		return principal.IsAdmin || slices.Contains(readable, action)
	})
}
