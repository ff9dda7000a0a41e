package models

import "time"

// User is a staff account. Admins see and manage every owned resource;
// other users only see what they own.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Username       string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	HashedPassword string    `gorm:"size:255;not null" json:"-"` // bcrypt, never exposed in JSON
	IsAdmin        bool      `gorm:"not null;default:false" json:"is_admin"`
}

// MaterialType is a catalog category such as "Lit médicalisé" or "Fauteuil roulant".
type MaterialType struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:150;not null" json:"name"`
}
