package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Membership status labels derived from (end date, active flag, today).
const (
	StatusActive   = "active"
	StatusExpired  = "expired"
	StatusInactive = "inactive"
)

// Member is an enrolled gym member. RandomID is the public 8-digit
// identifier shown on cards; the uuid primary key stays internal.
// Period and EndDate are both derived from the payment in one computation.
type Member struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RandomID    int             `gorm:"uniqueIndex;not null" json:"random_id"`
	FirstName   string          `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName    string          `gorm:"type:varchar(50);not null" json:"last_name"`
	Mobile      string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"mobile"` // normalized local form
	Email       string          `gorm:"type:varchar(255)" json:"email,omitempty"`
	Gender      string          `gorm:"type:varchar(10)" json:"gender"`
	DateOfBirth *time.Time      `json:"date_of_birth,omitempty"`
	HeightCm    *float64        `json:"height_cm,omitempty"`
	WeightKg    *float64        `json:"weight_kg,omitempty"`
	Payment     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"payment"`
	StartDate   time.Time       `gorm:"not null" json:"start_date"`
	Period      string          `gorm:"type:varchar(30);not null" json:"period"`
	EndDate     time.Time       `gorm:"not null;index" json:"end_date"`
	CoachID     *uuid.UUID      `gorm:"type:uuid;index" json:"coach_id"`
	Coach       *User           `gorm:"foreignKey:CoachID" json:"-"`
	BranchID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"branch_id"`
	Branch      *Branch         `gorm:"foreignKey:BranchID" json:"-"`
	Active      bool            `gorm:"not null;default:true;index" json:"active"`
	Notes       string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Status is the single place membership status is computed. Inactive wins
// over the date check regardless of the end date.
func (m *Member) Status(today time.Time) string {
	if !m.Active {
		return StatusInactive
	}
	if m.EndDate.Before(truncateToDay(today)) {
		return StatusExpired
	}
	return StatusActive
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
