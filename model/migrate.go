package model

import "gorm.io/gorm"

// All lists every table owned by the application in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Patient{},
		&Doctor{},
		&EmergencyContact{},
		&SecurityLog{},
	}
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
