package policy_test

import (
	"testing"

	"github.com/diewo77/go-materiel/internal/models"
	"github.com/diewo77/go-materiel/internal/policy"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestScope_Materiel(t *testing.T) {
	db := setupTestDB(t)
	alice := models.User{Username: "alice", HashedPassword: "x"}
	bob := models.User{Username: "bob", HashedPassword: "x"}
	db.Create(&alice)
	db.Create(&bob)
	for _, owner := range []uint{alice.ID, alice.ID, bob.ID} {
		id := owner
		if err := db.Create(&models.Materiel{OwnerID: &id}).Error; err != nil {
			t.Fatalf("materiel: %v", err)
		}
	}
	// detached row only admins see
	db.Create(&models.Materiel{})

	count := func(p policy.Principal) int64 {
		var n int64
		db.Model(&models.Materiel{}).Scopes(policy.Scope(p, policy.KindMateriel)).Count(&n)
		return n
	}
	if got := count(policy.Principal{ID: alice.ID}); got != 2 {
		t.Errorf("alice sees %d, want 2", got)
	}
	if got := count(policy.Principal{ID: bob.ID}); got != 1 {
		t.Errorf("bob sees %d, want 1", got)
	}
	if got := count(policy.Principal{ID: bob.ID, IsAdmin: true}); got != 4 {
		t.Errorf("admin sees %d, want 4", got)
	}
}

func TestScope_Request(t *testing.T) {
	db := setupTestDB(t)
	u := models.User{Username: "carol", HashedPassword: "x"}
	db.Create(&u)
	m := models.Materiel{OwnerID: &u.ID}
	db.Create(&m)
	db.Create(&models.Request{BatchID: "b1", MaterielID: m.ID, UserID: &u.ID, RequestType: models.RequestTypeReprise, Status: models.StatusEnAttente})

	var mine, other int64
	db.Model(&models.Request{}).Scopes(policy.Scope(policy.Principal{ID: u.ID}, policy.KindRequest)).Count(&mine)
	db.Model(&models.Request{}).Scopes(policy.Scope(policy.Principal{ID: u.ID + 1}, policy.KindRequest)).Count(&other)
	if mine != 1 || other != 0 {
		t.Fatalf("mine=%d other=%d, want 1 and 0", mine, other)
	}
}

func TestResolveOwner(t *testing.T) {
	seven := uint(7)
	admin := policy.Principal{ID: 1, IsAdmin: true}
	staff := policy.Principal{ID: 2}

	if got := policy.ResolveOwner(admin, &seven); got != 7 {
		t.Errorf("admin with owner: got %d, want 7", got)
	}
	if got := policy.ResolveOwner(admin, nil); got != 1 {
		t.Errorf("admin without owner: got %d, want 1", got)
	}
	if got := policy.ResolveOwner(staff, &seven); got != 2 {
		t.Errorf("staff naming someone else: got %d, want 2", got)
	}
}

func TestResolveOwnerUpdate(t *testing.T) {
	seven, three := uint(7), uint(3)
	admin := policy.Principal{ID: 1, IsAdmin: true}
	staff := policy.Principal{ID: 2}

	if got := policy.ResolveOwnerUpdate(admin, &seven, &three); got == nil || *got != 7 {
		t.Errorf("admin reassigning: got %v, want 7", got)
	}
	if got := policy.ResolveOwnerUpdate(admin, nil, &three); got == nil || *got != 3 {
		t.Errorf("admin keeping owner: got %v, want 3", got)
	}
	if got := policy.ResolveOwnerUpdate(staff, &seven, &three); got == nil || *got != 2 {
		t.Errorf("staff: got %v, want 2", got)
	}
}
