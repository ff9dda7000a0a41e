package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/go-materiel/internal/models"
)

func TestMaterielCreate_OwnerResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		admin     bool
		requested *uint
		want      uint
	}{
		{"non-admin naming someone else", false, &f.bob.ID, f.alice.ID},
		{"non-admin naming nobody", false, nil, f.alice.ID},
		{"admin naming a user", true, &f.bob.ID, f.bob.ID},
		{"admin naming nobody", true, nil, f.admin.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := f.alice
			if tt.admin {
				p = f.admin
			}
			m, err := f.svc.Materiels.Create(ctx, p, MaterielInput{MaterialTypeID: &f.chair.ID, OwnerID: tt.requested})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if got := m.GetUserID(); got != tt.want {
				t.Fatalf("owner = %d, want %d", got, tt.want)
			}
		})
	}

	if _, err := f.svc.Materiels.Create(ctx, f.admin, MaterielInput{MaterialTypeID: &f.chair.ID, OwnerID: ptr(uint(9999))}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown owner: want ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Materiels.Create(ctx, f.alice, MaterielInput{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing type: want ErrValidation, got %v", err)
	}
	if _, err := f.svc.Materiels.Create(ctx, f.alice, MaterielInput{MaterialTypeID: ptr(uint(9999))}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown type: want ErrNotFound, got %v", err)
	}
}

func TestMaterielCreate_LocalisationMustBeVisible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loc, err := f.svc.Localisations.Create(ctx, f.bob, LocalisationInput{
		NomEtablissement: "EHPAD", Secteur: "A", NumeroChambre: "1", NomCompletResident: "R",
	})
	if err != nil {
		t.Fatalf("localisation: %v", err)
	}
	if _, err := f.svc.Materiels.Create(ctx, f.alice, MaterielInput{MaterialTypeID: &f.chair.ID, LocalisationID: &loc.ID}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign localisation: want ErrNotFound, got %v", err)
	}
	m, err := f.svc.Materiels.Create(ctx, f.bob, MaterielInput{MaterialTypeID: &f.chair.ID, LocalisationID: &loc.ID})
	if err != nil {
		t.Fatalf("own localisation: %v", err)
	}
	if m.Localisation == nil || m.Localisation.ID != loc.ID || m.MaterialType == nil {
		t.Fatalf("associations not loaded: %+v", m)
	}
}

func TestMaterielUpdate_NonAdminKeepsOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.materiel(t, &f.alice.ID, "old")

	got, err := f.svc.Materiels.Update(ctx, f.alice, m.ID, MaterielInput{
		MaterialTypeID: &f.chair.ID, ReferenceInterne: ptr("new"), OwnerID: &f.bob.ID,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.GetUserID() != f.alice.ID || got.Reference() != "new" {
		t.Fatalf("unexpected materiel %+v", got)
	}

	if _, err := f.svc.Materiels.Update(ctx, f.bob, m.ID, MaterielInput{MaterialTypeID: &f.chair.ID}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign update: want ErrNotFound, got %v", err)
	}

	got, err = f.svc.Materiels.Update(ctx, f.admin, m.ID, MaterielInput{MaterialTypeID: &f.chair.ID})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if got.GetUserID() != f.alice.ID {
		t.Fatalf("admin without owner_id changed owner to %d", got.GetUserID())
	}
	got, err = f.svc.Materiels.Update(ctx, f.admin, m.ID, MaterielInput{MaterialTypeID: &f.chair.ID, OwnerID: &f.bob.ID})
	if err != nil {
		t.Fatalf("admin transfer: %v", err)
	}
	if got.GetUserID() != f.bob.ID {
		t.Fatalf("owner = %d, want bob", got.GetUserID())
	}
}

func TestMaterielList_ScopedAndFiltered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bed := models.MaterialType{Name: "Lit médicalisé"}
	f.db.Create(&bed)
	loc := models.Localisation{NomEtablissement: "EHPAD", Secteur: "Aile Nord", NumeroChambre: "4", NomCompletResident: "Jeanne Martin", OwnerID: &f.alice.ID}
	f.db.Create(&loc)

	jan := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	m1 := models.Materiel{MaterialTypeID: &f.chair.ID, ReferenceInterne: ptr("FR-001"), OwnerID: &f.alice.ID, DateLivraison: &jan}
	m2 := models.Materiel{MaterialTypeID: &bed.ID, LocalisationID: &loc.ID, OwnerID: &f.alice.ID, DateLivraison: &mar}
	m3 := models.Materiel{MaterialTypeID: &bed.ID, OwnerID: &f.bob.ID}
	for _, m := range []*models.Materiel{&m1, &m2, &m3} {
		if err := f.db.Create(m).Error; err != nil {
			t.Fatalf("materiel: %v", err)
		}
	}

	ids := func(list []models.Materiel) []uint {
		out := make([]uint, 0, len(list))
		for _, m := range list {
			out = append(out, m.ID)
		}
		return out
	}
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		admin  bool
		filter MaterielFilter
		want   []uint
	}{
		{"non-admin sees own", false, MaterielFilter{}, []uint{m1.ID, m2.ID}},
		{"admin sees all", true, MaterielFilter{}, []uint{m1.ID, m2.ID, m3.ID}},
		{"search type name", true, MaterielFilter{Search: "LIT"}, []uint{m2.ID, m3.ID}},
		{"search reference", false, MaterielFilter{Search: "fr-0"}, []uint{m1.ID}},
		{"search resident", false, MaterielFilter{Search: "martin"}, []uint{m2.ID}},
		{"search sector", false, MaterielFilter{Search: "nord"}, []uint{m2.ID}},
		{"type filter", true, MaterielFilter{MaterialTypeID: &bed.ID}, []uint{m2.ID, m3.ID}},
		{"delivered after", false, MaterielFilter{DeliveryFrom: &feb}, []uint{m2.ID}},
		{"delivered before", false, MaterielFilter{DeliveryTo: &feb}, []uint{m1.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := f.alice
			if tt.admin {
				p = f.admin
			}
			list, err := f.svc.Materiels.List(ctx, p, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			got := ids(list)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}

	if _, err := f.svc.Materiels.List(ctx, f.alice, MaterielFilter{DeliveryFrom: &mar, DeliveryTo: &jan}); !errors.Is(err, ErrValidation) {
		t.Fatalf("inverted range: want ErrValidation, got %v", err)
	}
}

func TestMaterielDelete_CascadesRequestsAndCartItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.materiel(t, &f.alice.ID, "")
	other := f.materiel(t, &f.alice.ID, "")
	if _, err := f.svc.Cart.AddItem(ctx, f.alice, AddItemInput{MaterielID: m.ID, RequestType: "LIVRAISON"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.svc.Cart.AddItem(ctx, f.alice, AddItemInput{MaterielID: other.ID, RequestType: "LIVRAISON"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.svc.Requests.Create(ctx, f.alice, RequestInput{MaterielID: m.ID, RequestType: "REPRISE"}); err != nil {
		t.Fatalf("request: %v", err)
	}

	if err := f.svc.Materiels.Delete(ctx, f.bob, m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete: want ErrNotFound, got %v", err)
	}
	if err := f.svc.Materiels.Delete(ctx, f.alice, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := count(t, f.db, &models.Materiel{}, "id = ?", m.ID); n != 0 {
		t.Fatalf("materiel still present")
	}
	if n := count(t, f.db, &models.Request{}, "materiel_id = ?", m.ID); n != 0 {
		t.Fatalf("requests left = %d, want 0", n)
	}
	if n := count(t, f.db, &models.CartItem{}, "materiel_id = ?", m.ID); n != 0 {
		t.Fatalf("cart items left = %d, want 0", n)
	}
	if n := count(t, f.db, &models.CartItem{}, "materiel_id = ?", other.ID); n != 1 {
		t.Fatalf("unrelated cart item removed")
	}
}
