package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Setting keys.
const (
	SettingMonthlyPrice = "monthly_price"

	DefaultMonthlyPrice = "150.00"
)

// SystemSetting is a key/value row for chain-wide configuration such as
// the monthly membership price.
type SystemSetting struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Key       string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"type:varchar(255);not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *SystemSetting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
