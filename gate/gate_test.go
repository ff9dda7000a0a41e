package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/go-materiel/gate"
)

type subject struct {
	ID    uint
	Admin bool
}

// ownerOnly allows admins everything and others only resources carrying their id.
var ownerOnly = gate.PolicyFunc[subject](func(_ context.Context, s subject, _ gate.Action, resource any) bool {
	if s.Admin {
		return true
	}
	owner, ok := resource.(uint)
	return ok && owner == s.ID
})

func TestGate_Authorize_ZeroSubject(t *testing.T) {
	g := gate.NewGate[subject]()
	g.Register("materiel", ownerOnly)

	err := g.Authorize(context.Background(), subject{}, gate.ActionView, "materiel", uint(0))
	if !errors.Is(err, gate.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGate_Authorize_NoPolicy(t *testing.T) {
	g := gate.NewGate[subject]()

	err := g.Authorize(context.Background(), subject{ID: 1}, gate.ActionView, "unknown", nil)
	if !errors.Is(err, gate.ErrNoPolicyDefined) {
		t.Errorf("expected ErrNoPolicyDefined, got %v", err)
	}
}

func TestGate_Authorize(t *testing.T) {
	g := gate.NewGate[subject]()
	g.Register("materiel", ownerOnly)
	ctx := context.Background()

	tests := []struct {
		name    string
		subject subject
		owner   uint
		allowed bool
	}{
		{"owner", subject{ID: 4}, 4, true},
		{"stranger", subject{ID: 5}, 4, false},
		{"admin", subject{ID: 1, Admin: true}, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Authorize(ctx, tt.subject, gate.ActionUpdate, "materiel", tt.owner)
			if tt.allowed && err != nil {
				t.Fatalf("expected allowed, got %v", err)
			}
			if !tt.allowed && !errors.Is(err, gate.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
			if got := g.Can(ctx, tt.subject, gate.ActionUpdate, "materiel", tt.owner); got != tt.allowed {
				t.Fatalf("Can() = %v, want %v", got, tt.allowed)
			}
		})
	}
}
