package schema

import (
	"fmt"

	"github.com/caresync/caresync-api/model"
	"github.com/caresync/caresync-api/util"
)

// UpdateDoctorProfileRequest is a partial update. Absent and empty string
// fields are left untouched.
type UpdateDoctorProfileRequest struct {
	FirstName           string   `json:"first_name" binding:"omitempty,max=128"`
	LastName            string   `json:"last_name" binding:"omitempty,max=128"`
	Address             string   `json:"address" binding:"omitempty,min=10,max=256"`
	DOB                 string   `json:"dob" binding:"omitempty,datetime=2006-01-02"`
	Gender              string   `json:"gender" binding:"omitempty,gender"`
	Height              *float64 `json:"height"`
	Weight              *float64 `json:"weight"`
	MedicalLicense      string   `json:"medicalLicense" binding:"omitempty,max=128"`
	HospitalAffiliation string   `json:"hospitalAffiliation" binding:"omitempty,max=256"`
	ResumeLink          string   `json:"resumeLink" binding:"omitempty,max=512"`
	ProfessionalBio     string   `json:"professionalBio"`
	Image               string   `json:"image"`
	CalendarLink        string   `json:"calendarLink" binding:"omitempty,max=512"`
}

// Apply copies the supplied fields onto user and doctor. It returns an error
// wrapping util.ErrInvalidImage for an undecodable image.
func (r UpdateDoctorProfileRequest) Apply(user *model.User, doctor *model.Doctor) error {
	applyUserFields(user, r.FirstName, r.LastName, r.Address)
	setIfPresent(&doctor.DOB, r.DOB)
	if g, ok := NormalizeGender(r.Gender); ok {
		doctor.Gender = g
	}
	if r.Height != nil {
		doctor.Height = r.Height
	}
	if r.Weight != nil {
		doctor.Weight = r.Weight
	}
	setIfPresent(&doctor.MedicalLicense, r.MedicalLicense)
	setIfPresent(&doctor.HospitalAffiliation, r.HospitalAffiliation)
	setIfPresent(&doctor.ResumeLink, r.ResumeLink)
	setIfPresent(&doctor.ProfessionalBio, r.ProfessionalBio)
	setIfPresent(&doctor.CalendarLink, r.CalendarLink)
	if r.Image != "" {
		data, header, err := util.DecodeImage(r.Image)
		if err != nil {
			return fmt.Errorf("image: %w", err)
		}
		doctor.Image, doctor.ImageHeader = data, header
	}
	return nil
}

// DoctorProfileResponse is the full profile returned to the doctor and on
// the public detail route.
type DoctorProfileResponse struct {
	ID                  string   `json:"id"`
	FirstName           string   `json:"first_name"`
	LastName            string   `json:"last_name"`
	Email               string   `json:"email"`
	Phone               string   `json:"phone"`
	Role                string   `json:"role"`
	Address             string   `json:"address"`
	DOB                 string   `json:"dob"`
	Gender              string   `json:"gender"`
	Height              *float64 `json:"height"`
	Weight              *float64 `json:"weight"`
	MedicalLicense      string   `json:"medicalLicense"`
	HospitalAffiliation string   `json:"hospitalAffiliation"`
	ResumeLink          string   `json:"resumeLink"`
	ProfessionalBio     string   `json:"professionalBio"`
	CalendarLink        string   `json:"calendarLink"`
	Image               *string  `json:"image"`
}

// NewDoctorProfile expects d.User to be loaded.
func NewDoctorProfile(d model.Doctor) DoctorProfileResponse {
	return DoctorProfileResponse{
		ID:                  d.UserID,
		FirstName:           d.User.FirstName,
		LastName:            d.User.LastName,
		Email:               d.User.Email,
		Phone:               d.User.Phone,
		Role:                string(d.User.Role),
		Address:             d.User.Address,
		DOB:                 d.DOB,
		Gender:              d.Gender,
		Height:              d.Height,
		Weight:              d.Weight,
		MedicalLicense:      d.MedicalLicense,
		HospitalAffiliation: d.HospitalAffiliation,
		ResumeLink:          d.ResumeLink,
		ProfessionalBio:     d.ProfessionalBio,
		CalendarLink:        d.CalendarLink,
		Image:               util.EncodeImage(d.Image, d.ImageHeader),
	}
}

// DoctorCard is the public listing shape.
type DoctorCard struct {
	ID                  string  `json:"id"`
	FirstName           string  `json:"first_name"`
	LastName            string  `json:"last_name"`
	HospitalAffiliation string  `json:"hospitalAffiliation"`
	ProfessionalBio     string  `json:"professionalBio"`
	CalendarLink        string  `json:"calendarLink"`
	Image               *string `json:"image"`
}

// NewDoctorCard expects d.User to be loaded.
func NewDoctorCard(d model.Doctor) DoctorCard {
	return DoctorCard{
		ID:                  d.UserID,
		FirstName:           d.User.FirstName,
		LastName:            d.User.LastName,
		HospitalAffiliation: d.HospitalAffiliation,
		ProfessionalBio:     d.ProfessionalBio,
		CalendarLink:        d.CalendarLink,
		Image:               util.EncodeImage(d.Image, d.ImageHeader),
	}
}

// DoctorPublicProfile is served on the public doctor detail route. Contact
// details stay private.
type DoctorPublicProfile struct {
	DoctorCard
	Gender         string `json:"gender"`
	MedicalLicense string `json:"medicalLicense"`
	ResumeLink     string `json:"resumeLink"`
}

// NewDoctorPublicProfile expects d.User to be loaded.
func NewDoctorPublicProfile(d model.Doctor) DoctorPublicProfile {
	return DoctorPublicProfile{
		DoctorCard:     NewDoctorCard(d),
		Gender:         d.Gender,
		MedicalLicense: d.MedicalLicense,
		ResumeLink:     d.ResumeLink,
	}
}
