package models

import "github.com/mmdatafocus/membership_backend/config"

func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&User{},
		&Member{},
		&Invoice{},
		&Accrual{},
		&UploadLog{},
	)
}
