// Package policy holds the access rules shared by every owned resource:
// who the caller is, which rows they may see and what they may do with them.
package policy

import (
	"context"

	"github.com/diewo77/go-materiel/auth"
	"github.com/diewo77/go-materiel/gate"
	"gorm.io/gorm"
)

// Principal is the acting user as seen by the access rules.
type Principal struct {
	ID      uint
	IsAdmin bool
}

// FromContext builds the principal from the identity stored by auth.Middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return Principal{}, false
	}
	return Principal{ID: id.UserID, IsAdmin: id.IsAdmin}, true
}

// Kind is an owned resource kind.
type Kind string

const (
	KindMateriel     Kind = "materiel"
	KindLocalisation Kind = "localisation"
	KindRequest      Kind = "request"
	KindCart         Kind = "cart"
)

// Resources that are not owned, guarded by AdminOnlyPolicy.
const (
	ResourceMaterialType  = "material_type"
	ResourceUser          = "user"
	ResourceDirectRequest = "direct_request"
)

// Table is the table holding rows of this kind.
func (k Kind) Table() string {
	switch k {
	case KindMateriel:
		return "materiels"
	case KindLocalisation:
		return "localisations"
	case KindRequest:
		return "requests"
	case KindCart:
		return "carts"
	}
	panic("policy: unknown kind " + string(k))
}

// OwnerColumn is the column naming the owning user.
func (k Kind) OwnerColumn() string {
	switch k {
	case KindMateriel, KindLocalisation:
		return "owner_id"
	case KindRequest, KindCart:
		return "user_id"
	}
	panic("policy: unknown kind " + string(k))
}

// Scope restricts a query to the rows of kind k visible to p: every row for
// an admin, only the rows p owns otherwise. Use it with db.Scopes on every
// list and by-id fetch of an owned resource.
func Scope(p Principal, k Kind) func(*gorm.DB) *gorm.DB {
	column := k.Table() + "." + k.OwnerColumn()
	return func(db *gorm.DB) *gorm.DB {
		if p.IsAdmin {
			return db
		}
		return db.Where(column+" = ?", p.ID)
	}
}

// ResolveOwner picks the owner of a new row: an admin may assign any user,
// everyone else (and an admin who names nobody) owns what they create.
func ResolveOwner(p Principal, requested *uint) uint {
	if p.IsAdmin && requested != nil {
		return *requested
	}
	return p.ID
}

// ResolveOwnerUpdate picks the owner after an update. An admin who names
// nobody keeps the current owner; non-admins always own the row.
func ResolveOwnerUpdate(p Principal, requested, current *uint) *uint {
	if !p.IsAdmin {
		id := p.ID
		return &id
	}
	if requested != nil {
		return requested
	}
	return current
}

// NewGate registers the policy of every resource kind.
func NewGate() *gate.Gate[Principal] {
	g := gate.NewGate[Principal]()
	owned := NewAdminBypassPolicy(NewOwnershipPolicy())
	g.Register(string(KindMateriel), owned)
	g.Register(string(KindLocalisation), owned)
	g.Register(string(KindCart), owned)
	// owners can read and withdraw their requests; status changes are admin work
	g.Register(string(KindRequest), NewAdminBypassPolicy(NewOwnershipPolicy(gate.ActionUpdate)))
	g.Register(ResourceMaterialType, AdminOnlyPolicy(gate.ActionList, gate.ActionView))
	g.Register(ResourceUser, AdminOnlyPolicy())
	g.Register(ResourceDirectRequest, AdminOnlyPolicy())
	return g
}
