package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatientModel_CreateWithSharedKey(t *testing.T) {
	db := setupTestDB(t, "patient_create", &User{}, &Patient{}, &EmergencyContact{})

	user := createTestUser(t, db, RolePatient, "p@example.com", "08044444444")
	patient := Patient{UserID: user.ID, DOB: "1990-04-12", Gender: "Female"}
	require.NoError(t, db.Create(&patient).Error)

	var found Patient
	require.NoError(t, db.Preload("User").First(&found, "user_id = ?", user.ID).Error)
	assert.Equal(t, "p@example.com", found.User.Email)
	assert.Equal(t, "1990-04-12", found.DOB)
}

func TestPatientModel_ImageRoundTrip(t *testing.T) {
	db := setupTestDB(t, "patient_image", &User{}, &Patient{})

	user := createTestUser(t, db, RolePatient, "img@example.com", "08055555555")
	raw := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01}
	require.NoError(t, db.Create(&Patient{UserID: user.ID, Image: raw, ImageHeader: "data:image/png;base64,"}).Error)

	var found Patient
	require.NoError(t, db.First(&found, "user_id = ?", user.ID).Error)
	assert.Equal(t, raw, found.Image)
	assert.Equal(t, "data:image/png;base64,", found.ImageHeader)
}

func TestPatientModel_EmergencyContacts(t *testing.T) {
	db := setupTestDB(t, "patient_contacts", &User{}, &Patient{}, &EmergencyContact{})

	user := createTestUser(t, db, RolePatient, "sos@example.com", "08066666666")
	require.NoError(t, db.Create(&Patient{UserID: user.ID}).Error)
	require.NoError(t, db.Create(&EmergencyContact{FullName: "Next Of Kin", Phone: "08077777777", PatientID: user.ID}).Error)

	var found Patient
	require.NoError(t, db.Preload("EmergencyContacts").First(&found, "user_id = ?", user.ID).Error)
	require.NotNil(t, found.SOSContact())
	assert.Equal(t, "Next Of Kin", found.SOSContact().FullName)
	assert.NotEmpty(t, found.SOSContact().ID)
}

func TestPatientModel_SOSContactEmpty(t *testing.T) {
	p := Patient{}
	assert.Nil(t, p.SOSContact())
}

func TestPatientModel_CascadeDelete(t *testing.T) {
	db := setupTestDB(t, "patient_cascade", &User{}, &Patient{}, &EmergencyContact{})

	user := createTestUser(t, db, RolePatient, "gone@example.com", "08088888888")
	require.NoError(t, db.Create(&Patient{UserID: user.ID}).Error)
	require.NoError(t, db.Create(&EmergencyContact{FullName: "Kin", Phone: "08099999999", PatientID: user.ID}).Error)

	require.NoError(t, db.Delete(&User{}, "id = ?", user.ID).Error)

	var patients, contacts int64
	db.Model(&Patient{}).Count(&patients)
	db.Model(&EmergencyContact{}).Count(&contacts)
	assert.Zero(t, patients)
	assert.Zero(t, contacts)
}
