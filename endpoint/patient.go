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

var errSOSPhoneTaken = errors.New("emergency contact phone already in use")

// RegisterPatient godoc
// @Summary      Register a patient
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        request body schema.RegisterRequest true "Patient registration"
// @Success      201 {object} util.APIResponse{data=schema.UserResponse} "Patient registered"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      409 {object} util.APIResponse "Phone or email already registered"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /v1/patient/register [post]
func (h *Handler) RegisterPatient(c *gin.Context) {
	h.register(c, model.RolePatient)
}

// GetPatientProfile godoc
// @Summary      Get own patient profile
// @Tags         Patient
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=schema.PatientProfileResponse}
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      403 {object} util.APIResponse "Not a patient"
// @Failure      404 {object} util.APIResponse "Profile not found"
// @Router       /v1/patient/profile [get]
func (h *Handler) GetPatientProfile(c *gin.Context) {
	user, ok := currentUserOrRespond(c)
	if !ok {
		return
	}
	store, ok := getStorageOrRespond(c)
	if !ok {
		return
	}

	patient, err := loadPatient(store, user.ID)
	if err != nil {
		respondStorageError(c, err, "Patient profile not found")
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient profile retrieved",
		Data: schema.NewPatientProfile(patient),
	})
}

// UpdatePatientProfile godoc
// @Summary      Update own patient profile
// @Description  Partial update. Empty fields are ignored. image accepts base64 with an optional data URI prefix.
// @Description  SOS_fullname and SOS_phone update the existing emergency contact, or create one when both are given.
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body schema.UpdatePatientProfileRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=schema.PatientProfileResponse}
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      403 {object} util.APIResponse "Not a patient"
// @Failure      409 {object} util.APIResponse "Emergency contact phone in use"
// @Router       /v1/patient/profile [patch]
func (h *Handler) UpdatePatientProfile(c *gin.Context) {
	user, ok := currentUserOrRespond(c)
	if !ok {
		return
	}
	var req schema.UpdatePatientProfileRequest
	if !bindJSONOrRespond(c, &req) {
		return
	}
	store, ok := getStorageOrRespond(c)
	if !ok {
		return
	}

	err := store.Transaction(func(tx *storage.Storage) error {
		patient, err := loadPatient(tx, user.ID)
		if err != nil {
			return err
		}
		if err := req.Apply(&patient.User, &patient); err != nil {
			return err
		}
		if err := tx.Update(&patient.User); err != nil {
			return err
		}
		if err := tx.Update(&patient); err != nil {
			return err
		}
		return upsertSOSContact(tx, &patient, req.SOSFullname, req.SOSPhone)
	})
	if errors.Is(err, errSOSPhoneTaken) {
		util.CallConflict(c, util.APIErrorParams{Msg: "Emergency contact phone is already in use", Err: err})
		return
	}
	if err != nil {
		respondStorageError(c, err, "Patient profile not found")
		return
	}

	patient, err := loadPatient(store, user.ID)
	if err != nil {
		respondStorageError(c, err, "Patient profile not found")
		return
	}
	ci := clientInfoOf(c)
	h.security.Log(util.SecurityEvent{
		EventType: util.EventProfileUpdated,
		UserID:    user.ID,
		Email:     user.Email,
		IP:        ci.IP,
		UserAgent: ci.Agent,
		Message:   "Patient profile updated",
	})
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient profile updated",
		Data: schema.NewPatientProfile(patient),
	})
}

// loadPatient fetches a patient with its user and contacts, oldest contact
// first so SOSContact is stable.
func loadPatient(store *storage.Storage, id string) (model.Patient, error) {
	var patient model.Patient
	err := store.Query(&patient).
		Preload("User").
		Preload("EmergencyContacts", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at, id")
		}).
		Where("user_id = ?", id).
		First(&patient).Error
	return patient, err
}

// upsertSOSContact updates the patient's first emergency contact with the
// supplied fields, or creates one when none exists and both are supplied.
func upsertSOSContact(tx *storage.Storage, patient *model.Patient, fullName, phone string) error {
	sos := patient.SOSContact()
	if sos == nil && (fullName == "" || phone == "") {
		return nil
	}
	if sos != nil && fullName == "" && phone == "" {
		return nil
	}

	if phone != "" {
		exceptID := ""
		if sos != nil {
			exceptID = sos.ID
		}
		taken, err := tx.ContactPhoneTaken(phone, exceptID)
		if err != nil {
			return err
		}
		if taken {
			return errSOSPhoneTaken
		}
	}

	if sos != nil {
		if fullName != "" {
			sos.FullName = fullName
		}
		if phone != "" {
			sos.Phone = phone
		}
		return tx.Update(sos)
	}

	contact := model.EmergencyContact{FullName: fullName, Phone: phone, PatientID: patient.UserID}
	if err := tx.Add(&contact); err != nil {
		return err
	}
	patient.EmergencyContacts = append(patient.EmergencyContacts, contact)
	return nil
}

// ListPatients godoc
// @Summary      List patients
// @Tags         Patient
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Param        keyword query string false "Search first name, last name or email"
// @Success      200 {object} util.APIResponse{data=object} "Patients retrieved"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /v1/patient/all [get]
func (h *Handler) ListPatients(c *gin.Context) {
	store, ok := getStorageOrRespond(c)
	if !ok {
		return
	}
	query := parseListQuery(c)

	users, total, err := fetchPatientUsers(store, query)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve patients", Err: err})
		return
	}

	out := make([]schema.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, schema.NewUserResponse(u))
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patients retrieved",
		Data: map[string]interface{}{"total": total, "total_fetched": len(out), "patients": out},
	})
}

func fetchPatientUsers(store *storage.Storage, q listQuery) ([]model.User, int64, error) {
	base := func() *gorm.DB {
		return applyKeyword(store.Query(&model.User{}).
			Joins("JOIN patients ON patients.user_id = users.id"), q.Keyword)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := applyPaging(base(), q).Order("users.created_at DESC").Find(&users).Error
	return users, total, err
}
