package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmergencyContact is a patient's SOS contact.
type EmergencyContact struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	FullName  string    `json:"full_name" gorm:"size:128;not null"`
	Phone     string    `json:"phone" gorm:"size:60;not null;uniqueIndex"`
	PatientID string    `json:"patient_id" gorm:"type:varchar(36);index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *EmergencyContact) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
