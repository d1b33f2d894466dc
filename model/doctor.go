package model

import "time"

// Doctor extends User through a shared primary key.
// @Description Doctor profile information
type Doctor struct {
	UserID              string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	User                User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	DOB                 string    `json:"dob" gorm:"column:dob;size:10" example:"1982-09-30"`
	Gender              string    `json:"gender" gorm:"size:16" example:"Male"`
	Height              *float64  `json:"height"`
	Weight              *float64  `json:"weight"`
	MedicalLicense      string    `json:"medicalLicense" gorm:"size:128" example:"MDCN/2011/4432"`
	HospitalAffiliation string    `json:"hospitalAffiliation" gorm:"size:256" example:"Lagos University Teaching Hospital"`
	ResumeLink          string    `json:"resumeLink" gorm:"size:512"`
	ProfessionalBio     string    `json:"professionalBio" gorm:"type:text"`
	CalendarLink        string    `json:"calendarLink" gorm:"size:512" example:"https://calendly.com/dr-okafor"`
	Image               []byte    `json:"-"`
	ImageHeader         string    `json:"-" gorm:"size:128"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
