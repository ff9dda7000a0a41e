package db

import (
	"github.com/diewo77/go-materiel/internal/models"
	"gorm.io/gorm"
)

// DefaultMaterialTypes are the catalog categories seeded on a fresh install.
var DefaultMaterialTypes = []string{
	"Lit médicalisé",
	"Matelas anti-escarres",
	"Fauteuil roulant",
	"Lève-personne",
	"Déambulateur",
	"Verticalisateur",
}

// Seed inserts the default material types that are missing. Safe to run repeatedly.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, name := range DefaultMaterialTypes {
			mt := models.MaterialType{Name: name}
			if err := tx.Where("name = ?", name).FirstOrCreate(&mt).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
