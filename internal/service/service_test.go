package service

import (
	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/password"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Shared fixtures for the service tests. Everything runs against an
// in-memory sqlite database migrated with the production schema.

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test db")
	require.NoError(t, database.Migrate(db), "failed to migrate test schema")
	return db
}

type nopMailer struct{}

func (nopMailer) Send(to, subject, body string, isHTML bool) error { return nil }

// captureEvents records published dashboard events.
type captureEvents struct {
	types []string
}

func (c *captureEvents) Publish(eventType, entityID, entityName, detail string) {
	c.types = append(c.types, eventType)
}

func createTestBranch(t *testing.T, db *gorm.DB, name string) *model.Branch {
	t.Helper()
	branch := &model.Branch{Name: name, Location: "Downtown", Active: true}
	require.NoError(t, db.Create(branch).Error)
	return branch
}

// createTestUser inserts a staff account directly. The credential is a
// real hash only where a test actually logs in; fixtures that never
// authenticate use a placeholder to keep the suite fast.
func createTestUser(t *testing.T, db *gorm.DB, username, role string, branchID *uuid.UUID) *model.User {
	t.Helper()
	user := &model.User{
		Username:   username,
		Email:      username + "@example.com",
		Credential: "placeholder:placeholder",
		FirstName:  "Test",
		LastName:   "User",
		Role:       role,
		BranchID:   branchID,
		Active:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestUserWithPassword(t *testing.T, db *gorm.DB, username, role, plain string, branchID *uuid.UUID) *model.User {
	t.Helper()
	cred, err := password.Hash(plain)
	require.NoError(t, err)
	user := &model.User{
		Username:   username,
		Email:      username + "@example.com",
		Credential: cred,
		FirstName:  "Test",
		LastName:   "User",
		Role:       role,
		BranchID:   branchID,
		Active:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func ownerActor(id uuid.UUID) Actor {
	return Actor{ID: &id, Role: model.RoleOwner, IP: "127.0.0.1"}
}

func adminActor(id uuid.UUID, branchID uuid.UUID) Actor {
	return Actor{ID: &id, Role: model.RoleAdmin, BranchID: &branchID, IP: "127.0.0.1"}
}

func coachActor(id uuid.UUID, branchID uuid.UUID) Actor {
	return Actor{ID: &id, Role: model.RoleCoach, BranchID: &branchID, IP: "127.0.0.1"}
}

func newTestMemberService(db *gorm.DB, events EventPublisher) *memberService {
	svc := NewMemberService(
		repository.NewMemberRepository(db),
		repository.NewUserRepository(db),
		repository.NewBranchRepository(db),
		repository.NewSettingRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		nopMailer{},
		events,
	)
	return svc.(*memberService)
}

func newTestUserService(db *gorm.DB) UserService {
	return NewUserService(
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
		repository.NewAuditRepository(db),
		repository.NewBranchRepository(db),
		repository.NewTransactionManager(db),
		nopMailer{},
		[]byte("test-secret"),
	)
}

func newTestBranchService(db *gorm.DB) BranchService {
	return NewBranchService(
		repository.NewBranchRepository(db),
		repository.NewUserRepository(db),
		repository.NewMemberRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
	)
}

func newTestTrainingService(db *gorm.DB) TrainingService {
	return NewTrainingService(
		repository.NewTrainingRepository(db),
		repository.NewMemberRepository(db),
		repository.NewUserRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
	)
}

func countAuditEntries(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.AuditLog{}).Where("action = ?", action).Count(&count).Error)
	return count
}
