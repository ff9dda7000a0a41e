package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/diewo77/go-materiel/gate"
	"github.com/diewo77/go-materiel/internal/models"
	"github.com/diewo77/go-materiel/internal/policy"
	"gorm.io/gorm"
)

type MaterialTypeService struct {
	db   *gorm.DB
	gate *gate.Gate[policy.Principal]
	log  *slog.Logger
}

func (s *MaterialTypeService) List(ctx context.Context, p policy.Principal) ([]models.MaterialType, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionList, policy.ResourceMaterialType, nil); err != nil {
		return nil, err
	}
	var types []models.MaterialType
	if err := s.db.WithContext(ctx).Order("name").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (s *MaterialTypeService) Create(ctx context.Context, p policy.Principal, name string) (*models.MaterialType, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionCreate, policy.ResourceMaterialType, nil); err != nil {
		return nil, err
	}
	mt := models.MaterialType{Name: strings.TrimSpace(name)}
	if mt.Name == "" {
		return nil, invalidField("name", "required")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureNameFree(tx, mt.Name, 0); err != nil {
			return err
		}
		return tx.Create(&mt).Error
	})
	if err != nil {
		return nil, s.conflict(err, mt.Name)
	}
	return &mt, nil
}

// Update renames a material type.
func (s *MaterialTypeService) Update(ctx context.Context, p policy.Principal, id uint, name string) (*models.MaterialType, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionUpdate, policy.ResourceMaterialType, nil); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidField("name", "required")
	}
	var mt models.MaterialType
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&mt, id).Error; err != nil {
			return lookupErr(err, "material_type", id)
		}
		if err := s.ensureNameFree(tx, name, id); err != nil {
			return err
		}
		mt.Name = name
		return tx.Save(&mt).Error
	})
	if err != nil {
		return nil, s.conflict(err, name)
	}
	return &mt, nil
}

// Delete removes a material type; materiel of that type keeps existing without one.
func (s *MaterialTypeService) Delete(ctx context.Context, p policy.Principal, id uint) error {
	if err := authorize(ctx, s.gate, p, gate.ActionDelete, policy.ResourceMaterialType, nil); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var mt models.MaterialType
		if err := tx.First(&mt, id).Error; err != nil {
			return lookupErr(err, "material_type", id)
		}
		detached := tx.Model(&models.Materiel{}).Where("material_type_id = ?", id).Update("material_type_id", nil)
		if detached.Error != nil {
			return detached.Error
		}
		if err := tx.Delete(&mt).Error; err != nil {
			return err
		}
		s.log.InfoContext(ctx, "material type deleted",
			slog.Uint64("material_type_id", uint64(id)),
			slog.Int64("detached_materiels", detached.RowsAffected),
		)
		return nil
	})
}

func (s *MaterialTypeService) ensureNameFree(tx *gorm.DB, name string, exceptID uint) error {
	var n int64
	if err := tx.Model(&models.MaterialType{}).Where("name = ? AND id <> ?", name, exceptID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: material type %q exists", ErrConflict, name)
	}
	return nil
}

func (s *MaterialTypeService) conflict(err error, name string) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: material type %q exists", ErrConflict, name)
	}
	return err
}
