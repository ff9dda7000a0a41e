package services

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/go-materiel/internal/models"
)

func TestCreateDirect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owned := f.materiel(t, &f.alice.ID, "")
	orphan := f.materiel(t, nil, "")

	if _, err := f.svc.Requests.CreateDirect(ctx, f.alice, RequestInput{MaterielID: owned.ID, RequestType: "LIVRAISON"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin: want ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Requests.CreateDirect(ctx, f.admin, RequestInput{MaterielID: 9999, RequestType: "LIVRAISON"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown materiel: want ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Requests.CreateDirect(ctx, f.admin, RequestInput{MaterielID: orphan.ID, RequestType: "LIVRAISON"}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("ownerless materiel: want ErrInvalidState, got %v", err)
	}
	if _, err := f.svc.Requests.CreateDirect(ctx, f.admin, RequestInput{MaterielID: owned.ID, RequestType: "ACHAT"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown type: want ErrValidation, got %v", err)
	}
	if n := count(t, f.db, &models.Request{}, ""); n != 0 {
		t.Fatalf("failed calls created %d requests", n)
	}

	first, err := f.svc.Requests.CreateDirect(ctx, f.admin, RequestInput{MaterielID: owned.ID, RequestType: "reprise"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.GetUserID() != f.alice.ID {
		t.Fatalf("user_id = %d, want owner %d", first.GetUserID(), f.alice.ID)
	}
	if first.Status != models.StatusEnAttente || first.RequestType != models.RequestTypeReprise {
		t.Fatalf("unexpected request %+v", first)
	}
	second, err := f.svc.Requests.CreateDirect(ctx, f.admin, RequestInput{MaterielID: owned.ID, RequestType: "DEPANNAGE"})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.BatchID == "" || first.BatchID == second.BatchID {
		t.Fatalf("batches %q and %q must be distinct", first.BatchID, second.BatchID)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.materiel(t, &f.alice.ID, "")
	r, err := f.svc.Requests.Create(ctx, f.alice, RequestInput{MaterielID: m.ID, RequestType: "LIVRAISON"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.Requests.UpdateStatus(ctx, f.alice, r.ID, "TERMINEE"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("owner: want ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Requests.UpdateStatus(ctx, f.admin, 9999, "TERMINEE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown: want ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Requests.UpdateStatus(ctx, f.admin, r.ID, "ANNULEE"); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad status: want ErrValidation, got %v", err)
	}

	// any status may follow any other, backwards included
	for _, raw := range []string{"TERMINEE", "EN_ATTENTE", "en cours de realisation", "PRISE EN COMPTE"} {
		want, _ := models.ParseRequestStatus(raw)
		got, err := f.svc.Requests.UpdateStatus(ctx, f.admin, r.ID, raw)
		if err != nil {
			t.Fatalf("update to %q: %v", raw, err)
		}
		if got.Status != want {
			t.Fatalf("status = %q, want %q", got.Status, want)
		}
	}
}

func TestRequests_ScopedListGetDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.materiel(t, &f.alice.ID, "")
	theirs := f.materiel(t, &f.bob.ID, "")

	if _, err := f.svc.Requests.Create(ctx, f.alice, RequestInput{MaterielID: theirs.ID, RequestType: "LIVRAISON"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("request on foreign materiel: want ErrNotFound, got %v", err)
	}
	a, err := f.svc.Requests.Create(ctx, f.alice, RequestInput{MaterielID: mine.ID, RequestType: "LIVRAISON"})
	if err != nil {
		t.Fatalf("alice: %v", err)
	}
	b, err := f.svc.Requests.Create(ctx, f.bob, RequestInput{MaterielID: theirs.ID, RequestType: "REPRISE"})
	if err != nil {
		t.Fatalf("bob: %v", err)
	}

	list, err := f.svc.Requests.List(ctx, f.alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, r := range list {
		if r.GetUserID() != f.alice.ID {
			t.Fatalf("alice sees request %d of user %d", r.ID, r.GetUserID())
		}
	}
	if len(list) != 1 || list[0].Materiel == nil || list[0].Materiel.MaterialType == nil {
		t.Fatalf("unexpected list %+v", list)
	}

	all, err := f.svc.Requests.List(ctx, f.admin)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 2 || all[0].ID != b.ID {
		t.Fatalf("admin list not newest first: %+v", all)
	}

	if _, err := f.svc.Requests.Get(ctx, f.alice, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign get: want ErrNotFound, got %v", err)
	}
	if err := f.svc.Requests.Delete(ctx, f.alice, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete: want ErrNotFound, got %v", err)
	}
	if err := f.svc.Requests.Delete(ctx, f.alice, a.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := f.svc.Requests.Delete(ctx, f.admin, b.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if n := count(t, f.db, &models.Request{}, ""); n != 0 {
		t.Fatalf("requests left = %d", n)
	}
}
