package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rating bounds for a training session. One scale everywhere.
const (
	RatingMin = 1
	RatingMax = 5
)

// TrainingEntry is a coach's log of one session with a member.
// Append-mostly; a coach only touches entries for members assigned to them.
type TrainingEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID    uuid.UUID `gorm:"type:uuid;not null;index" json:"member_id"`
	Member      *Member   `gorm:"foreignKey:MemberID" json:"-"`
	CoachID     uuid.UUID `gorm:"type:uuid;not null;index" json:"coach_id"`
	Coach       *User     `gorm:"foreignKey:CoachID" json:"-"`
	SessionDate time.Time `gorm:"not null;index" json:"session_date"`
	Notes       string    `gorm:"type:text;not null" json:"notes"`
	Rating      *int      `json:"rating,omitempty"` // 1-5 when present
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *TrainingEntry) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
