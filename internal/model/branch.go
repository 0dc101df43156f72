package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Branch is a gym location. Staff and members reference it; deactivation
// is blocked while active references exist.
type Branch struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(100);not null" json:"name"`
	NameLower     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"-"` // case-insensitive uniqueness backstop
	Location      string    `gorm:"type:varchar(255)" json:"location"`
	ContactNumber string    `gorm:"type:varchar(20)" json:"contact_number"`
	Active        bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *Branch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.NameLower = strings.ToLower(b.Name)
	return nil
}

func (b *Branch) BeforeSave(tx *gorm.DB) error {
	b.NameLower = strings.ToLower(b.Name)
	return nil
}
