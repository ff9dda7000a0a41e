package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/diewo77/go-materiel/gate"
	"github.com/diewo77/go-materiel/internal/models"
	"github.com/diewo77/go-materiel/internal/policy"
	"github.com/diewo77/go-materiel/validation"
	"gorm.io/gorm"
)

// LocalisationInput carries the writable fields of a localisation.
// OwnerID is only honoured for admins.
type LocalisationInput struct {
	NomEtablissement   string
	Secteur            string
	NumeroChambre      string
	NomCompletResident string
	OwnerID            *uint
}

func (in *LocalisationInput) normalize() error {
	in.NomEtablissement = strings.TrimSpace(in.NomEtablissement)
	in.Secteur = strings.TrimSpace(in.Secteur)
	in.NumeroChambre = strings.TrimSpace(in.NumeroChambre)
	in.NomCompletResident = strings.TrimSpace(in.NomCompletResident)
	v := validation.Violations{}
	validation.Required("nom_etablissement", in.NomEtablissement, v)
	validation.Required("secteur", in.Secteur, v)
	validation.Required("numero_chambre", in.NumeroChambre, v)
	validation.Required("nom_complet_resident", in.NomCompletResident, v)
	if in.OwnerID != nil {
		validation.PositiveID("owner_id", *in.OwnerID, v)
	}
	return invalid(v)
}

type LocalisationService struct {
	db   *gorm.DB
	gate *gate.Gate[policy.Principal]
	log  *slog.Logger
}

// List returns the localisations visible to p, optionally filtered by a
// case-insensitive search over every text field.
func (s *LocalisationService) List(ctx context.Context, p policy.Principal, search string) ([]models.Localisation, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionList, string(policy.KindLocalisation), nil); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Scopes(policy.Scope(p, policy.KindLocalisation))
	if term := likePattern(search); term != "" {
		q = q.Where(
			"LOWER(localisations.nom_etablissement) LIKE ? ESCAPE '\\' OR LOWER(localisations.secteur) LIKE ? ESCAPE '\\' OR LOWER(localisations.numero_chambre) LIKE ? ESCAPE '\\' OR LOWER(localisations.nom_complet_resident) LIKE ? ESCAPE '\\'",
			term, term, term, term,
		)
	}
	var locs []models.Localisation
	if err := q.Order("localisations.id").Find(&locs).Error; err != nil {
		return nil, err
	}
	return locs, nil
}

func (s *LocalisationService) Get(ctx context.Context, p policy.Principal, id uint) (*models.Localisation, error) {
	return s.fetch(s.db.WithContext(ctx), p, id)
}

func (s *LocalisationService) fetch(db *gorm.DB, p policy.Principal, id uint) (*models.Localisation, error) {
	var loc models.Localisation
	err := db.Scopes(policy.Scope(p, policy.KindLocalisation)).First(&loc, id).Error
	if err != nil {
		return nil, lookupErr(err, "localisation", id)
	}
	return &loc, nil
}

func (s *LocalisationService) Create(ctx context.Context, p policy.Principal, in LocalisationInput) (*models.Localisation, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionCreate, string(policy.KindLocalisation), nil); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	owner := policy.ResolveOwner(p, in.OwnerID)
	loc := models.Localisation{
		NomEtablissement:   in.NomEtablissement,
		Secteur:            in.Secteur,
		NumeroChambre:      in.NumeroChambre,
		NomCompletResident: in.NomCompletResident,
		OwnerID:            &owner,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if owner != p.ID {
			if err := userExists(tx, owner); err != nil {
				return err
			}
		}
		return tx.Create(&loc).Error
	})
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (s *LocalisationService) Update(ctx context.Context, p policy.Principal, id uint, in LocalisationInput) (*models.Localisation, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var loc *models.Localisation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if loc, err = s.fetch(tx, p, id); err != nil {
			return err
		}
		if err := authorize(ctx, s.gate, p, gate.ActionUpdate, string(policy.KindLocalisation), loc); err != nil {
			return err
		}
		owner := policy.ResolveOwnerUpdate(p, in.OwnerID, loc.OwnerID)
		if p.IsAdmin && in.OwnerID != nil {
			if err := userExists(tx, *in.OwnerID); err != nil {
				return err
			}
		}
		loc.NomEtablissement = in.NomEtablissement
		loc.Secteur = in.Secteur
		loc.NumeroChambre = in.NumeroChambre
		loc.NomCompletResident = in.NomCompletResident
		loc.OwnerID = owner
		return tx.Save(loc).Error
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// Delete removes a localisation; materiel placed there is kept without one.
func (s *LocalisationService) Delete(ctx context.Context, p policy.Principal, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loc, err := s.fetch(tx, p, id)
		if err != nil {
			return err
		}
		if err := authorize(ctx, s.gate, p, gate.ActionDelete, string(policy.KindLocalisation), loc); err != nil {
			return err
		}
		detached := tx.Model(&models.Materiel{}).Where("localisation_id = ?", id).Update("localisation_id", nil)
		if detached.Error != nil {
			return detached.Error
		}
		if err := tx.Delete(loc).Error; err != nil {
			return err
		}
		s.log.InfoContext(ctx, "localisation deleted",
			slog.Uint64("localisation_id", uint64(id)),
			slog.Int64("detached_materiels", detached.RowsAffected),
		)
		return nil
	})
}

func userExists(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return notFound("user", id)
	}
	return nil
}

// likeEscaper makes the term match literally; queries declare ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern lowercases a search term into a LIKE substring pattern.
// Blank terms yield "".
func likePattern(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(term) + "%"
}
