package schema

import (
	"fmt"

	"github.com/caresync/caresync-api/model"
	"github.com/caresync/caresync-api/util"
)

// UpdatePatientProfileRequest is a partial update. Absent and empty string
// fields are left untouched.
type UpdatePatientProfileRequest struct {
	FirstName      string   `json:"first_name" binding:"omitempty,max=128"`
	LastName       string   `json:"last_name" binding:"omitempty,max=128"`
	Address        string   `json:"address" binding:"omitempty,min=10,max=256"`
	DOB            string   `json:"dob" binding:"omitempty,datetime=2006-01-02" example:"1990-04-12"`
	Gender         string   `json:"gender" binding:"omitempty,gender" example:"female"`
	Height         *float64 `json:"height" example:"168.5"`
	Weight         *float64 `json:"weight" example:"61.2"`
	MedicalHistory string   `json:"medical_history"`
	Image          string   `json:"image" example:"data:image/png;base64,iVBORw0KGgo="`
	SOSFullname    string   `json:"SOS_fullname" binding:"omitempty,max=128" example:"Chidi Obi"`
	SOSPhone       string   `json:"SOS_phone" binding:"omitempty,max=60" example:"08098765432"`
}

// Apply copies the supplied fields onto user and patient. It returns an error
// wrapping util.ErrInvalidImage for an undecodable image.
func (r UpdatePatientProfileRequest) Apply(user *model.User, patient *model.Patient) error {
	applyUserFields(user, r.FirstName, r.LastName, r.Address)
	setIfPresent(&patient.DOB, r.DOB)
	if g, ok := NormalizeGender(r.Gender); ok {
		patient.Gender = g
	}
	if r.Height != nil {
		patient.Height = r.Height
	}
	if r.Weight != nil {
		patient.Weight = r.Weight
	}
	setIfPresent(&patient.MedicalHistory, r.MedicalHistory)
	if r.Image != "" {
		data, header, err := util.DecodeImage(r.Image)
		if err != nil {
			return fmt.Errorf("image: %w", err)
		}
		patient.Image, patient.ImageHeader = data, header
	}
	return nil
}

// PatientProfileResponse is the full profile returned to the patient.
type PatientProfileResponse struct {
	ID             string   `json:"id"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	Role           string   `json:"role"`
	Address        string   `json:"address"`
	DOB            string   `json:"dob"`
	Gender         string   `json:"gender"`
	Height         *float64 `json:"height"`
	Weight         *float64 `json:"weight"`
	MedicalHistory string   `json:"medical_history"`
	Image          *string  `json:"image"`
	SOSFullname    *string  `json:"SOS_fullname"`
	SOSPhone       *string  `json:"SOS_phone"`
}

// NewPatientProfile expects p.User and p.EmergencyContacts to be loaded.
func NewPatientProfile(p model.Patient) PatientProfileResponse {
	resp := PatientProfileResponse{
		ID:             p.UserID,
		FirstName:      p.User.FirstName,
		LastName:       p.User.LastName,
		Email:          p.User.Email,
		Phone:          p.User.Phone,
		Role:           string(p.User.Role),
		Address:        p.User.Address,
		DOB:            p.DOB,
		Gender:         p.Gender,
		Height:         p.Height,
		Weight:         p.Weight,
		MedicalHistory: p.MedicalHistory,
		Image:          util.EncodeImage(p.Image, p.ImageHeader),
	}
	if sos := p.SOSContact(); sos != nil {
		name, phone := sos.FullName, sos.Phone
		resp.SOSFullname, resp.SOSPhone = &name, &phone
	}
	return resp
}

func applyUserFields(user *model.User, firstName, lastName, address string) {
	setIfPresent(&user.FirstName, util.NormalizeName(firstName))
	setIfPresent(&user.LastName, util.NormalizeName(lastName))
	setIfPresent(&user.Address, address)
}

func setIfPresent(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
