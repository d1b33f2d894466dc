package endpoint

import (
	"errors"
	"fmt"

	"github.com/caresync/caresync-api/model"
	"github.com/caresync/caresync-api/schema"
	"github.com/caresync/caresync-api/storage"
	"github.com/caresync/caresync-api/util"
	"github.com/gin-gonic/gin"
)

// register creates a user and its role row in one transaction.
func (h *Handler) register(c *gin.Context, role model.Role) {
	var req schema.RegisterRequest
	if !bindJSONOrRespond(c, &req) {
		return
	}
	store, ok := getStorageOrRespond(c)
	if !ok {
		return
	}

	user := req.NewUser(role)
	if !ensureIdentityAvailable(c, store, user.Phone, user.Email) {
		return
	}

	hash, err := util.HashPassword(req.Password1)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to hash password", Err: err})
		return
	}
	user.PasswordHash = hash

	err = store.Transaction(func(tx *storage.Storage) error {
		if err := tx.Add(&user); err != nil {
			return err
		}
		switch role {
		case model.RoleDoctor:
			return tx.Add(&model.Doctor{UserID: user.ID, DOB: req.DOB, Gender: req.CanonicalGender()})
		default:
			return tx.Add(&model.Patient{UserID: user.ID, DOB: req.DOB, Gender: req.CanonicalGender()})
		}
	})
	if err != nil {
		if storage.IsDuplicate(err) {
			util.CallConflict(c, util.APIErrorParams{Msg: "user with this phone or email exists", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: fmt.Sprintf("Failed to register %s", role), Err: err})
		return
	}

	ci := clientInfoOf(c)
	h.security.SignupSuccess(user.ID, user.Email, string(role), ci.IP, ci.Agent)
	util.CallCreated(c, util.APISuccessParams{
		Msg:  fmt.Sprintf("%s registered", role),
		Data: schema.NewUserResponse(user),
	})
}

// ensureIdentityAvailable rejects phones and emails already in use with 409.
func ensureIdentityAvailable(c *gin.Context, store *storage.Storage, phone, email string) bool {
	taken, err := store.PhoneTaken(phone)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return false
	}
	if taken {
		msg := fmt.Sprintf("user with phone: %s exists", phone)
		util.CallConflict(c, util.APIErrorParams{Msg: msg, Err: errors.New(msg)})
		return false
	}

	taken, err = store.EmailTaken(email)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return false
	}
	if taken {
		msg := fmt.Sprintf("user with email: %s exists", email)
		util.CallConflict(c, util.APIErrorParams{Msg: msg, Err: errors.New(msg)})
		return false
	}
	return true
}
