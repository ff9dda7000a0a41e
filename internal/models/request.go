package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RequestType is what the requester wants done with a materiel.
type RequestType string

const (
	RequestTypeLivraison RequestType = "LIVRAISON"
	RequestTypeReprise   RequestType = "REPRISE"
	RequestTypeDepannage RequestType = "DEPANNAGE"
)

// RequestStatus tracks a request through the logistics team's workflow.
// Values are the labels shown to users and stored as-is.
type RequestStatus string

const (
	StatusEnAttente            RequestStatus = "EN ATTENTE"
	StatusPriseEnCompte        RequestStatus = "PRISE EN COMPTE"
	StatusEnCoursDeRealisation RequestStatus = "EN COURS DE REALISATION"
	StatusTerminee             RequestStatus = "TERMINEE"
)

var (
	ErrUnknownRequestType   = errors.New("unknown_request_type")
	ErrUnknownRequestStatus = errors.New("unknown_request_status")
)

// RequestTypes lists every request type in display order.
func RequestTypes() []RequestType {
	return []RequestType{RequestTypeLivraison, RequestTypeReprise, RequestTypeDepannage}
}

// RequestStatuses lists every status in workflow order.
func RequestStatuses() []RequestStatus {
	return []RequestStatus{StatusEnAttente, StatusPriseEnCompte, StatusEnCoursDeRealisation, StatusTerminee}
}

// Valid reports whether t is one of the known request types.
func (t RequestType) Valid() bool {
	switch t {
	case RequestTypeLivraison, RequestTypeReprise, RequestTypeDepannage:
		return true
	}
	return false
}

// ParseRequestType accepts any casing and surrounding spaces.
func ParseRequestType(s string) (RequestType, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	for _, t := range RequestTypes() {
		if string(t) == norm {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRequestType, s)
}

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusEnAttente, StatusPriseEnCompte, StatusEnCoursDeRealisation, StatusTerminee:
		return true
	}
	return false
}

// ParseRequestStatus accepts both the spaced labels ("EN ATTENTE") and
// their identifier spelling ("EN_ATTENTE"), in any casing.
func ParseRequestStatus(raw string) (RequestStatus, error) {
	norm := strings.ToUpper(strings.TrimSpace(raw))
	norm = strings.Join(strings.FieldsFunc(norm, func(r rune) bool { return r == '_' || r == ' ' }), " ")
	for _, s := range RequestStatuses() {
		if string(s) == norm {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRequestStatus, raw)
}

// Request is one ledger entry asking the logistics team to act on a materiel.
// Requests submitted together from a cart share a BatchID.
// Implements the Ownable interface for ownership-based authorization.
type Request struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	BatchID     string        `gorm:"size:36;index;not null" json:"batch_id"`
	MaterielID  uint          `gorm:"index;not null" json:"materiel_id"`
	UserID      *uint         `gorm:"index" json:"user_id"`
	RequestType RequestType   `gorm:"size:20;not null" json:"request_type"`
	Status      RequestStatus `gorm:"size:40;not null;default:'EN ATTENTE'" json:"status"`
	Description *string       `gorm:"type:text" json:"description"`

	Materiel *Materiel `gorm:"foreignKey:MaterielID;constraint:OnDelete:CASCADE" json:"materiel,omitempty"`
	User     *User     `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
}

// GetUserID implements the Ownable interface. Requests of deleted users report 0.
func (r *Request) GetUserID() uint { return derefID(r.UserID) }

// Cart collects pending request lines for one user until submission.
type Cart struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	UserID uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	User   *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Items  []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

// GetUserID implements the Ownable interface.
func (c *Cart) GetUserID() uint { return c.UserID }

// CartItem is a request not yet submitted.
type CartItem struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	CartID      uint        `gorm:"index;not null" json:"cart_id"`
	MaterielID  uint        `gorm:"index;not null" json:"materiel_id"`
	RequestType RequestType `gorm:"size:20;not null" json:"request_type"`
	Description *string     `gorm:"type:text" json:"description"`

	Materiel *Materiel `gorm:"foreignKey:MaterielID;constraint:OnDelete:CASCADE" json:"materiel,omitempty"`
}

// All returns every model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&MaterialType{},
		&Localisation{},
		&Materiel{},
		&Request{},
		&Cart{},
		&CartItem{},
	}
}
