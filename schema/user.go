package schema

import (
	"strings"

	"github.com/caresync/caresync-api/model"
	"github.com/caresync/caresync-api/util"
)

// RegisterRequest is the body of both registration endpoints.
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,max=128" example:"Ada"`
	LastName  string `json:"last_name" binding:"required,max=128" example:"Obi"`
	Email     string `json:"email" binding:"required,email,max=128" example:"ada@example.com"`
	Password1 string `json:"password1" binding:"required,password" example:"Str0ng!pass"`
	Password2 string `json:"password2" binding:"required,eqfield=Password1" example:"Str0ng!pass"`
	Gender    string `json:"gender" binding:"required,gender" example:"female"`
	DOB       string `json:"dob" binding:"required,datetime=2006-01-02" example:"1990-04-12"`
	Phone     string `json:"phone" binding:"required,min=11,max=14" example:"08012345678"`
	Address   string `json:"address" binding:"required,min=10,max=256" example:"12 Marina Road, Lagos"`
}

// NewUser builds the base identity for a validated request. The caller sets
// the password hash.
func (r RegisterRequest) NewUser(role model.Role) model.User {
	return model.User{
		FirstName: util.NormalizeName(r.FirstName),
		LastName:  util.NormalizeName(r.LastName),
		Email:     strings.ToLower(strings.TrimSpace(r.Email)),
		Phone:     strings.TrimSpace(r.Phone),
		Address:   strings.TrimSpace(r.Address),
		Role:      role,
	}
}

// CanonicalGender returns the normalized gender of a validated request.
func (r RegisterRequest) CanonicalGender() string {
	g, _ := NormalizeGender(r.Gender)
	return g
}

// UserResponse is the public user shape.
type UserResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

func NewUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      string(u.Role),
	}
}
