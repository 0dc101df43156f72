package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionLogin          = "LOGIN"
	ActionLoginFailed    = "LOGIN_FAILED"
	ActionLogout         = "LOGOUT"
	ActionCreateUser     = "CREATE_USER"
	ActionUpdateUser     = "UPDATE_USER"
	ActionDeleteUser     = "DELETE_USER"
	ActionResetPassword  = "RESET_PASSWORD"
	ActionCreateBranch   = "CREATE_BRANCH"
	ActionUpdateBranch   = "UPDATE_BRANCH"
	ActionDeleteBranch   = "DELETE_BRANCH"
	ActionCreateMember   = "CREATE_MEMBER"
	ActionUpdateMember   = "UPDATE_MEMBER"
	ActionDeleteMember   = "DELETE_MEMBER"
	ActionRenewMember    = "RENEW_MEMBER"
	ActionImportMembers  = "IMPORT_MEMBERS"
	ActionCreateTraining = "CREATE_TRAINING_ENTRY"
	ActionUpdateTraining = "UPDATE_TRAINING_ENTRY"
	ActionUpdateSetting  = "UPDATE_SETTING"
)

// AuditLog tracks who did what and when for every sensitive operation.
// Rows are append-only; the application never updates or deletes them.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nullable for system-initiated events
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"`
	IPAddress  string     `gorm:"type:varchar(45)" json:"ip_address"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
