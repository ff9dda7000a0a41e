// Package gate is a small policy registry for authorization decisions.
// A Gate maps resource kinds to Policies; each Policy decides whether a
// subject may perform an Action on a resource of that kind. The package
// knows nothing about the domain models, only about the subject type U.
package gate

import (
	"context"
	"fmt"
)

// Gate is the central authorization checkpoint.
// U is the subject type (must be comparable for the zero-value check).
type Gate[U comparable] struct {
	policies map[string]Policy[U]
}

// NewGate creates an empty Gate ready to register policies.
func NewGate[U comparable]() *Gate[U] {
	return &Gate[U]{policies: make(map[string]Policy[U])}
}

// Register adds a policy for a given resource kind (e.g. "materiel").
// Overwrites any existing policy for that kind.
func (g *Gate[U]) Register(kind string, p Policy[U]) {
	g.policies[kind] = p
}

// Authorize returns nil when the action is allowed.
// ErrUnauthorized is returned for a zero-value subject or a denied action,
// ErrNoPolicyDefined when kind has no registered policy.
func (g *Gate[U]) Authorize(ctx context.Context, subject U, action Action, kind string, resource any) error {
	var zero U
	if subject == zero {
		return ErrUnauthorized
	}
	p, ok := g.policies[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPolicyDefined, kind)
	}
	if !p.Can(ctx, subject, action, resource) {
		return ErrUnauthorized
	}
	return nil
}

// Can is Authorize as a bool.
func (g *Gate[U]) Can(ctx context.Context, subject U, action Action, kind string, resource any) bool {
	return g.Authorize(ctx, subject, action, kind, resource) == nil
}
