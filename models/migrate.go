package models

import "gorm.io/gorm"

// All returns every entity in dependency order
func All() []any {
	return []any{
		&Contact{},
		&Tag{},
		&Tagged{},
		&Email{},
		&Broadcast{},
		&Message{},
		&Activity{},
	}
}

// AutoMigrate creates or updates the schema for every entity
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
