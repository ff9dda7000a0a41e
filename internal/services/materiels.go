package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/diewo77/go-materiel/gate"
	"github.com/diewo77/go-materiel/internal/models"
	"github.com/diewo77/go-materiel/internal/policy"
	"github.com/diewo77/go-materiel/validation"
	"gorm.io/gorm"
)

// MaterielInput carries the writable fields of a materiel. Updates replace
// every field. OwnerID is only honoured for admins.
type MaterielInput struct {
	MaterialTypeID   *uint
	ReferenceInterne *string
	LocalisationID   *uint
	OwnerID          *uint
	DateLivraison    *time.Time
	DateReprise      *time.Time
}

func (in *MaterielInput) normalize() error {
	v := validation.Violations{}
	if in.MaterialTypeID == nil {
		v["material_type_id"] = "required"
	} else {
		validation.PositiveID("material_type_id", *in.MaterialTypeID, v)
	}
	if in.LocalisationID != nil {
		validation.PositiveID("localisation_id", *in.LocalisationID, v)
	}
	if in.OwnerID != nil {
		validation.PositiveID("owner_id", *in.OwnerID, v)
	}
	if in.ReferenceInterne != nil {
		ref := strings.TrimSpace(*in.ReferenceInterne)
		if ref == "" {
			in.ReferenceInterne = nil
		} else {
			in.ReferenceInterne = &ref
		}
	}
	return invalid(v)
}

// MaterielFilter narrows a materiel listing. Zero values do not filter.
type MaterielFilter struct {
	Search         string
	MaterialTypeID *uint
	DeliveryFrom   *time.Time
	DeliveryTo     *time.Time
	PickupFrom     *time.Time
	PickupTo       *time.Time
}

func (f MaterielFilter) validate() error {
	v := validation.Violations{}
	validation.DateRange("start_date", f.DeliveryFrom, f.DeliveryTo, v)
	validation.DateRange("start_date_reprise", f.PickupFrom, f.PickupTo, v)
	return invalid(v)
}

type MaterielService struct {
	db   *gorm.DB
	gate *gate.Gate[policy.Principal]
	log  *slog.Logger
}

// List returns the materiel visible to p with their type and localisation.
// Search matches the type name, the internal reference, the resident name
// and the sector, case-insensitively.
func (s *MaterielService) List(ctx context.Context, p policy.Principal, f MaterielFilter) ([]models.Materiel, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionList, string(policy.KindMateriel), nil); err != nil {
		return nil, err
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).
		Select("materiels.*").
		Joins("LEFT JOIN material_types ON material_types.id = materiels.material_type_id").
		Joins("LEFT JOIN localisations ON localisations.id = materiels.localisation_id").
		Scopes(policy.Scope(p, policy.KindMateriel))
	if term := likePattern(f.Search); term != "" {
		q = q.Where(
			"LOWER(material_types.name) LIKE ? ESCAPE '\\' OR LOWER(materiels.reference_interne) LIKE ? ESCAPE '\\' OR LOWER(localisations.nom_complet_resident) LIKE ? ESCAPE '\\' OR LOWER(localisations.secteur) LIKE ? ESCAPE '\\'",
			term, term, term, term,
		)
	}
	if f.MaterialTypeID != nil {
		q = q.Where("materiels.material_type_id = ?", *f.MaterialTypeID)
	}
	if f.DeliveryFrom != nil {
		q = q.Where("materiels.date_livraison >= ?", *f.DeliveryFrom)
	}
	if f.DeliveryTo != nil {
		q = q.Where("materiels.date_livraison <= ?", *f.DeliveryTo)
	}
	if f.PickupFrom != nil {
		q = q.Where("materiels.date_reprise >= ?", *f.PickupFrom)
	}
	if f.PickupTo != nil {
		q = q.Where("materiels.date_reprise <= ?", *f.PickupTo)
	}
	var list []models.Materiel
	err := q.Preload("MaterialType").Preload("Localisation").Order("materiels.id").Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *MaterielService) Get(ctx context.Context, p policy.Principal, id uint) (*models.Materiel, error) {
	m, err := fetchMateriel(s.db.WithContext(ctx).Preload("MaterialType").Preload("Localisation"), p, id)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// fetchMateriel loads a materiel visible to p.
func fetchMateriel(db *gorm.DB, p policy.Principal, id uint) (*models.Materiel, error) {
	var m models.Materiel
	if err := db.Scopes(policy.Scope(p, policy.KindMateriel)).First(&m, id).Error; err != nil {
		return nil, lookupErr(err, "materiel", id)
	}
	return &m, nil
}

func (s *MaterielService) Create(ctx context.Context, p policy.Principal, in MaterielInput) (*models.Materiel, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionCreate, string(policy.KindMateriel), nil); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	owner := policy.ResolveOwner(p, in.OwnerID)
	m := models.Materiel{
		MaterialTypeID:   in.MaterialTypeID,
		ReferenceInterne: in.ReferenceInterne,
		LocalisationID:   in.LocalisationID,
		OwnerID:          &owner,
		DateLivraison:    in.DateLivraison,
		DateReprise:      in.DateReprise,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkRefs(tx, p, in); err != nil {
			return err
		}
		if owner != p.ID {
			if err := userExists(tx, owner); err != nil {
				return err
			}
		}
		return tx.Create(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, p, m.ID)
}

func (s *MaterielService) Update(ctx context.Context, p policy.Principal, id uint, in MaterielInput) (*models.Materiel, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := fetchMateriel(tx, p, id)
		if err != nil {
			return err
		}
		if err := authorize(ctx, s.gate, p, gate.ActionUpdate, string(policy.KindMateriel), m); err != nil {
			return err
		}
		if err := s.checkRefs(tx, p, in); err != nil {
			return err
		}
		if p.IsAdmin && in.OwnerID != nil {
			if err := userExists(tx, *in.OwnerID); err != nil {
				return err
			}
		}
		m.MaterialTypeID = in.MaterialTypeID
		m.ReferenceInterne = in.ReferenceInterne
		m.LocalisationID = in.LocalisationID
		m.OwnerID = policy.ResolveOwnerUpdate(p, in.OwnerID, m.OwnerID)
		m.DateLivraison = in.DateLivraison
		m.DateReprise = in.DateReprise
		return tx.Omit("MaterialType", "Localisation", "Owner").Save(m).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, p, id)
}

// checkRefs verifies the material type exists and the localisation, when
// given, is visible to p.
func (s *MaterielService) checkRefs(tx *gorm.DB, p policy.Principal, in MaterielInput) error {
	var mt models.MaterialType
	if err := tx.First(&mt, *in.MaterialTypeID).Error; err != nil {
		return lookupErr(err, "material_type", *in.MaterialTypeID)
	}
	if in.LocalisationID != nil {
		var loc models.Localisation
		err := tx.Scopes(policy.Scope(p, policy.KindLocalisation)).First(&loc, *in.LocalisationID).Error
		if err != nil {
			return lookupErr(err, "localisation", *in.LocalisationID)
		}
	}
	return nil
}

// Delete removes a materiel together with its requests and pending cart items.
func (s *MaterielService) Delete(ctx context.Context, p policy.Principal, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := fetchMateriel(tx, p, id)
		if err != nil {
			return err
		}
		if err := authorize(ctx, s.gate, p, gate.ActionDelete, string(policy.KindMateriel), m); err != nil {
			return err
		}
		items := tx.Where("materiel_id = ?", id).Delete(&models.CartItem{})
		if items.Error != nil {
			return items.Error
		}
		reqs := tx.Where("materiel_id = ?", id).Delete(&models.Request{})
		if reqs.Error != nil {
			return reqs.Error
		}
		if err := tx.Delete(m).Error; err != nil {
			return err
		}
		s.log.InfoContext(ctx, "materiel deleted",
			slog.Uint64("materiel_id", uint64(id)),
			slog.Int64("deleted_requests", reqs.RowsAffected),
			slog.Int64("deleted_cart_items", items.RowsAffected),
		)
		return nil
	})
}
