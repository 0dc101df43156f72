package database

import (
	"log"

	"backend/internal/model"
	"backend/pkg/password"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	// TranslateError turns driver-specific duplicate-key failures into
	// gorm.ErrDuplicatedKey, which the services map to conflicts.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate creates or updates the schema for all core models. The unique
// indexes declared on the models are the real uniqueness backstop; the
// service-layer pre-flight checks are only a UX optimization.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Branch{},
		&model.User{},
		&model.RefreshToken{},
		&model.Member{},
		&model.TrainingEntry{},
		&model.AuditLog{},
		&model.SystemSetting{},
	)
}

// Seed inserts the baseline data a fresh install needs: the monthly price
// setting and, when no user exists yet, the first owner account.
func Seed(db *gorm.DB, ownerUsername, ownerEmail, ownerPassword string) error {
	var settingCount int64
	if err := db.Model(&model.SystemSetting{}).Where("key = ?", model.SettingMonthlyPrice).Count(&settingCount).Error; err != nil {
		return err
	}
	if settingCount == 0 {
		if err := db.Create(&model.SystemSetting{
			Key:   model.SettingMonthlyPrice,
			Value: model.DefaultMonthlyPrice,
		}).Error; err != nil {
			return err
		}
	}

	var userCount int64
	if err := db.Model(&model.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return nil
	}

	cred, err := password.Hash(ownerPassword)
	if err != nil {
		return err
	}

	owner := model.User{
		Username:   ownerUsername,
		Email:      ownerEmail,
		Credential: cred,
		FirstName:  "Chain",
		LastName:   "Owner",
		Role:       model.RoleOwner,
		Active:     true,
	}
	if err := db.Create(&owner).Error; err != nil {
		return err
	}
	log.Printf("Seeded initial owner account %q", ownerUsername)
	return nil
}
