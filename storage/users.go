package storage

import (
	"errors"
	"strings"

	"github.com/caresync/caresync-api/model"
	"gorm.io/gorm"
)

// FindUserByEmail loads a user by lower-cased email.
func (s *Storage) FindUserByEmail(email string) (model.User, error) {
	var user model.User
	err := s.db.Where("email = ?", strings.ToLower(email)).First(&user).Error
	return user, err
}

// PhoneTaken reports whether any user already uses phone.
func (s *Storage) PhoneTaken(phone string) (bool, error) {
	return s.exists(&model.User{}, "phone = ?", phone)
}

// EmailTaken reports whether any user already uses email.
func (s *Storage) EmailTaken(email string) (bool, error) {
	return s.exists(&model.User{}, "email = ?", strings.ToLower(email))
}

// ContactPhoneTaken reports whether an emergency contact other than exceptID uses phone.
func (s *Storage) ContactPhoneTaken(phone, exceptID string) (bool, error) {
	if exceptID == "" {
		return s.exists(&model.EmergencyContact{}, "phone = ?", phone)
	}
	return s.exists(&model.EmergencyContact{}, "phone = ? AND id <> ?", phone, exceptID)
}

func (s *Storage) exists(m interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := s.db.Model(m).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
