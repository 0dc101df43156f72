package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Staff roles. The set is closed: owner runs the chain, admins run a
// branch, coaches train members of their branch.
const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
	RoleCoach = "coach"
)

// User represents a staff account. Deactivated accounts keep their row
// (and unique username/email) but cannot log in and disappear from
// active listings.
type User struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username    string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email       string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Credential  string     `gorm:"type:varchar(255);not null" json:"-"` // salted PBKDF2, never clear text
	FirstName   string     `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName    string     `gorm:"type:varchar(50);not null" json:"last_name"`
	Mobile      string     `gorm:"type:varchar(20)" json:"mobile"`
	Role        string     `gorm:"type:varchar(20);not null;index" json:"role"`
	BranchID    *uuid.UUID `gorm:"type:uuid;index" json:"branch_id"` // required for admin/coach, null for owner
	Branch      *Branch    `gorm:"foreignKey:BranchID" json:"-"`
	Active      bool       `gorm:"not null;default:true;index" json:"active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// FullName joins first and last name for display and audit details.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
