package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/caresync/caresync-api/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	dsn := fmt.Sprintf("file:storage_%d?mode=memory&cache=shared&_foreign_keys=on", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, model.Migrate(db))
	return New(db, zerolog.Nop())
}

func newUser(role model.Role, email, phone string) *model.User {
	return &model.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		Phone:        phone,
		PasswordHash: "hash",
		Role:         role,
	}
}

func TestAddAndFindByID(t *testing.T) {
	s := newTestStorage(t)

	user := newUser(model.RolePatient, "a@example.com", "08000000001")
	require.NoError(t, s.Add(user))
	require.NoError(t, s.Add(&model.Patient{UserID: user.ID, Gender: "Female"}))

	var patient model.Patient
	require.NoError(t, s.FindByID(&patient, user.ID, "User"))
	assert.Equal(t, "Female", patient.Gender)
	assert.Equal(t, "a@example.com", patient.User.Email)
}

func TestFindByID_NotFound(t *testing.T) {
	s := newTestStorage(t)

	var user model.User
	err := s.FindByID(&user, "missing")
	assert.True(t, IsNotFound(err))
}

func TestAdd_DuplicateSurfacesError(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.Add(newUser(model.RolePatient, "dup@example.com", "08000000002")))
	err := s.Add(newUser(model.RoleDoctor, "dup@example.com", "08000000003"))
	assert.True(t, IsDuplicate(err), "got %v", err)
}

func TestAdd_DoesNotWriteAssociations(t *testing.T) {
	s := newTestStorage(t)

	user := newUser(model.RolePatient, "assoc@example.com", "08000000004")
	require.NoError(t, s.Add(user))

	patient := &model.Patient{
		UserID:            user.ID,
		EmergencyContacts: []model.EmergencyContact{{FullName: "Kin", Phone: "08000000005"}},
	}
	require.NoError(t, s.Add(patient))

	all, err := s.All(KindEmergencyContact)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdate(t *testing.T) {
	s := newTestStorage(t)

	user := newUser(model.RoleDoctor, "u@example.com", "08000000006")
	require.NoError(t, s.Add(user))

	user.FirstName = "Changed"
	require.NoError(t, s.Update(user))

	var found model.User
	require.NoError(t, s.FindByID(&found, user.ID))
	assert.Equal(t, "Changed", found.FirstName)
}

func TestDelete(t *testing.T) {
	s := newTestStorage(t)

	user := newUser(model.RoleDoctor, "d@example.com", "08000000007")
	require.NoError(t, s.Add(user))
	require.NoError(t, s.Delete(user))

	var found model.User
	assert.True(t, IsNotFound(s.FindByID(&found, user.ID)))
}

func TestAll_KeysByTypeAndID(t *testing.T) {
	s := newTestStorage(t)

	doctor := newUser(model.RoleDoctor, "dr@example.com", "08000000008")
	require.NoError(t, s.Add(doctor))
	require.NoError(t, s.Add(&model.Doctor{UserID: doctor.ID}))

	users, err := s.All(KindUser)
	require.NoError(t, err)
	assert.Contains(t, users, "User."+doctor.ID)

	doctors, err := s.All(KindDoctor)
	require.NoError(t, err)
	require.Contains(t, doctors, "Doctor."+doctor.ID)
	_, ok := doctors["Doctor."+doctor.ID].(model.Doctor)
	assert.True(t, ok)

	patients, err := s.All(KindPatient)
	require.NoError(t, err)
	assert.Empty(t, patients)
}

func TestAll_UnknownKind(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.All(Kind("User; DROP TABLE users"))
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestTransaction_RollsBack(t *testing.T) {
	s := newTestStorage(t)

	boom := errors.New("boom")
	err := s.Transaction(func(tx *Storage) error {
		if err := tx.Add(newUser(model.RolePatient, "tx@example.com", "08000000009")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	taken, err := s.EmailTaken("tx@example.com")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestTransaction_Commits(t *testing.T) {
	s := newTestStorage(t)

	err := s.Transaction(func(tx *Storage) error {
		user := newUser(model.RolePatient, "ok@example.com", "08000000010")
		if err := tx.Add(user); err != nil {
			return err
		}
		return tx.Add(&model.Patient{UserID: user.ID})
	})
	require.NoError(t, err)

	patients, err := s.All(KindPatient)
	require.NoError(t, err)
	assert.Len(t, patients, 1)
}

func TestUserLookups(t *testing.T) {
	s := newTestStorage(t).WithContext(context.Background())

	require.NoError(t, s.Add(newUser(model.RolePatient, "look@example.com", "08000000011")))

	user, err := s.FindUserByEmail("LOOK@example.com")
	require.NoError(t, err)
	assert.Equal(t, "08000000011", user.Phone)

	taken, err := s.PhoneTaken("08000000011")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.EmailTaken("Look@Example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.PhoneTaken("08099999999")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestContactPhoneTaken(t *testing.T) {
	s := newTestStorage(t)

	user := newUser(model.RolePatient, "c@example.com", "08000000012")
	require.NoError(t, s.Add(user))
	require.NoError(t, s.Add(&model.Patient{UserID: user.ID}))
	contact := &model.EmergencyContact{FullName: "Kin", Phone: "08000000013", PatientID: user.ID}
	require.NoError(t, s.Add(contact))

	taken, err := s.ContactPhoneTaken("08000000013", "")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.ContactPhoneTaken("08000000013", contact.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestKinds(t *testing.T) {
	assert.ElementsMatch(t, []Kind{KindUser, KindPatient, KindDoctor, KindEmergencyContact}, Kinds())
}
