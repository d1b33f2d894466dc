package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role discriminates the account types sharing the users table.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// User is the base identity shared by patients and doctors.
// @Description Base account information
type User struct {
	ID           string    `json:"id" gorm:"type:varchar(36);primaryKey" example:"7f9c2d1e-3b1a-4c55-9f0e-8d2f1a6b4c3d"`
	FirstName    string    `json:"first_name" gorm:"size:128;not null" example:"Ada"`
	LastName     string    `json:"last_name" gorm:"size:128;not null" example:"Obi"`
	Phone        string    `json:"phone" gorm:"size:60;not null;uniqueIndex" example:"08012345678"`
	Email        string    `json:"email" gorm:"size:128;not null;uniqueIndex" example:"ada@example.com"`
	PasswordHash string    `json:"-" gorm:"size:128;not null"`
	Role         Role      `json:"role" gorm:"size:50;not null;index" example:"patient"`
	Address      string    `json:"address" gorm:"size:256" example:"12 Marina Road, Lagos"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate rejects unknown roles and assigns an opaque identifier when
// the caller did not.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if !u.Role.Valid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// FullName joins first and last name.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
