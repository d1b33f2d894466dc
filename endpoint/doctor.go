package endpoint

import (
	"errors"

	"github.com/caresync/caresync-api/model"
	"github.com/caresync/caresync-api/schema"
	"github.com/caresync/caresync-api/storage"
	"github.com/caresync/caresync-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterDoctor godoc
// @Summary      Register a doctor
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Param        request body schema.RegisterRequest true "Doctor registration"
// @Success      201 {object} util.APIResponse{data=schema.UserResponse} "Doctor registered"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      409 {object} util.APIResponse "Phone or email already registered"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /v1/doctor/register [post]
func (h *Handler) RegisterDoctor(c *gin.Context) {
	h.register(c, model.RoleDoctor)
}

// GetDoctorProfile godoc
// @Summary      Get own doctor profile
// @Tags         Doctor
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=schema.DoctorProfileResponse}
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      403 {object} util.APIResponse "Not a doctor"
// @Failure      404 {object} util.APIResponse "Profile not found"
// @Router       /v1/doctor/profile [get]
func (h *Handler) GetDoctorProfile(c *gin.Context) {
	user, ok := currentUserOrRespond(c)
	if !ok {
		return
	}
	store, ok := getStorageOrRespond(c)
	if !ok {
		return
	}

	doctor, err := loadDoctor(store, user.ID)
	if err != nil {
		respondStorageError(c, err, "Doctor profile not found")
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctor profile retrieved",
		Data: schema.NewDoctorProfile(doctor),
	})
}

// UpdateDoctorProfile godoc
// @Summary      Update own doctor profile
// @Description  Partial update. Empty fields are ignored. image accepts base64 with an optional data URI prefix.
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body schema.UpdateDoctorProfileRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=schema.DoctorProfileResponse}
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      403 {object} util.APIResponse "Not a doctor"
// @Router       /v1/doctor/profile [patch]
func (h *Handler) UpdateDoctorProfile(c *gin.Context) {
	user, ok := currentUserOrRespond(c)
	if !ok {
		return
	}
	var req schema.UpdateDoctorProfileRequest
	if !bindJSONOrRespond(c, &req) {
		return
	}
	store, ok := getStorageOrRespond(c)
	if !ok {
		return
	}

	err := store.Transaction(func(tx *storage.Storage) error {
		doctor, err := loadDoctor(tx, user.ID)
		if err != nil {
			return err
		}
		if err := req.Apply(&doctor.User, &doctor); err != nil {
			return err
		}
		if err := tx.Update(&doctor.User); err != nil {
			return err
		}
		return tx.Update(&doctor)
	})
	if err != nil {
		respondStorageError(c, err, "Doctor profile not found")
		return
	}

	doctor, err := loadDoctor(store, user.ID)
	if err != nil {
		respondStorageError(c, err, "Doctor profile not found")
		return
	}
	ci := clientInfoOf(c)
	h.security.Log(util.SecurityEvent{
		EventType: util.EventProfileUpdated,
		UserID:    user.ID,
		Email:     user.Email,
		IP:        ci.IP,
		UserAgent: ci.Agent,
		Message:   "Doctor profile updated",
	})
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctor profile updated",
		Data: schema.NewDoctorProfile(doctor),
	})
}

func loadDoctor(store *storage.Storage, id string) (model.Doctor, error) {
	var doctor model.Doctor
	err := store.FindByID(&doctor, id, "User")
	return doctor, err
}

// ListDoctors godoc
// @Summary      List doctors
// @Description  Public doctor cards. Only accounts with the doctor role are listed.
// @Tags         Doctor
// @Produce      json
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Param        keyword query string false "Search first name, last name or email"
// @Success      200 {object} util.APIResponse{data=object} "Doctors retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /v1/doctor/all [get]
func (h *Handler) ListDoctors(c *gin.Context) {
	store, ok := getStorageOrRespond(c)
	if !ok {
		return
	}
	query := parseListQuery(c)

	doctors, total, err := fetchDoctors(store, query)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve doctors", Err: err})
		return
	}

	cards := make([]schema.DoctorCard, 0, len(doctors))
	for _, d := range doctors {
		cards = append(cards, schema.NewDoctorCard(d))
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctors retrieved",
		Data: map[string]interface{}{"total": total, "total_fetched": len(cards), "doctors": cards},
	})
}

func fetchDoctors(store *storage.Storage, q listQuery) ([]model.Doctor, int64, error) {
	base := func() *gorm.DB {
		return applyKeyword(store.Query(&model.Doctor{}).
			Joins("JOIN users ON users.id = doctors.user_id").
			Where("users.role = ?", model.RoleDoctor), q.Keyword)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var doctors []model.Doctor
	err := applyPaging(base(), q).Preload("User").Order("users.created_at DESC").Find(&doctors).Error
	return doctors, total, err
}

// GetDoctor godoc
// @Summary      Get a doctor's public profile
// @Tags         Doctor
// @Produce      json
// @Param        id path string true "Doctor ID"
// @Success      200 {object} util.APIResponse{data=schema.DoctorPublicProfile}
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Router       /v1/doctor/{id} [get]
func (h *Handler) GetDoctor(c *gin.Context) {
	store, ok := getStorageOrRespond(c)
	if !ok {
		return
	}

	doctor, err := loadDoctor(store, c.Param("id"))
	if err == nil && doctor.User.Role != model.RoleDoctor {
		err = gorm.ErrRecordNotFound
	}
	if err != nil {
		if storage.IsNotFound(err) {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Doctor not found", Err: errors.New("doctor not found")})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve doctor", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctor retrieved",
		Data: schema.NewDoctorPublicProfile(doctor),
	})
}
