package models

import "time"

// Localisation is a physical placement: establishment, sector, room and resident.
// Implements the Ownable interface for ownership-based authorization.
type Localisation struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	NomEtablissement   string `gorm:"size:255;not null" json:"nom_etablissement"`
	Secteur            string `gorm:"size:255;not null" json:"secteur"`
	NumeroChambre      string `gorm:"size:50;not null" json:"numero_chambre"`
	NomCompletResident string `gorm:"size:255;not null" json:"nom_complet_resident"`

	// OwnerID is nulled when the owning user is deleted.
	OwnerID *uint `gorm:"index" json:"owner_id"`
	Owner   *User `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL" json:"-"`
}

// GetUserID implements the Ownable interface. Detached rows report 0.
func (l *Localisation) GetUserID() uint { return derefID(l.OwnerID) }

// Materiel is a tracked piece of equipment.
// Implements the Ownable interface for ownership-based authorization.
type Materiel struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	MaterialTypeID   *uint   `gorm:"index" json:"material_type_id"`
	ReferenceInterne *string `gorm:"size:100;index" json:"reference_interne"`
	LocalisationID   *uint   `gorm:"index" json:"localisation_id"`
	OwnerID          *uint   `gorm:"index" json:"owner_id"`

	DateLivraison *time.Time `json:"date_livraison"`
	DateReprise   *time.Time `json:"date_reprise"`

	MaterialType *MaterialType `gorm:"foreignKey:MaterialTypeID;constraint:OnDelete:SET NULL" json:"material_type,omitempty"`
	Localisation *Localisation `gorm:"foreignKey:LocalisationID;constraint:OnDelete:SET NULL" json:"localisation,omitempty"`
	Owner        *User         `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL" json:"-"`
}

// GetUserID implements the Ownable interface. Detached rows report 0.
func (m *Materiel) GetUserID() uint { return derefID(m.OwnerID) }

// Reference returns the internal reference or "N/A" when none was recorded.
func (m *Materiel) Reference() string {
	if m == nil || m.ReferenceInterne == nil || *m.ReferenceInterne == "" {
		return "N/A"
	}
	return *m.ReferenceInterne
}

func derefID(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
