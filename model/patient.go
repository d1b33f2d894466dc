package model

import "time"

// Patient extends User through a shared primary key.
// @Description Patient profile information
type Patient struct {
	UserID            string             `json:"id" gorm:"type:varchar(36);primaryKey"`
	User              User               `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	DOB               string             `json:"dob" gorm:"column:dob;size:10" example:"1990-04-12"`
	Gender            string             `json:"gender" gorm:"size:16" example:"Female"`
	Height            *float64           `json:"height" example:"168.5"`
	Weight            *float64           `json:"weight" example:"61.2"`
	MedicalHistory    string             `json:"medical_history" gorm:"type:text" example:"Asthma"`
	Image             []byte             `json:"-"`
	ImageHeader       string             `json:"-" gorm:"size:128"`
	EmergencyContacts []EmergencyContact `json:"-" gorm:"foreignKey:PatientID;references:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// SOSContact returns the first loaded contact, if any. Callers preload
// contacts ordered by creation time.
func (p *Patient) SOSContact() *EmergencyContact {
	if len(p.EmergencyContacts) == 0 {
		return nil
	}
	return &p.EmergencyContacts[0]
}
