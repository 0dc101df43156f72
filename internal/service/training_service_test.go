package service

import (
	"backend/internal/model"
	"backend/pkg/apperr"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// trainingFixture wires a branch with one coach, a member assigned to
// that coach and a second unassigned member.
type trainingFixture struct {
	branch     *model.Branch
	owner      *model.User
	coach      *model.User
	assigned   *MemberResponse
	unassigned *MemberResponse
	svc        TrainingService
}

func newTrainingFixture(t *testing.T, db *gorm.DB) trainingFixture {
	t.Helper()
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	coach := createTestUser(t, db, "coach1", model.RoleCoach, &branch.ID)
	members := newTestMemberService(db, nil)
	actor := ownerActor(owner.ID)

	assignedReq := validCreateMemberRequest(branch.ID.String())
	assignedReq.CoachID = coach.ID.String()
	assigned, err := members.CreateMember(context.Background(), actor, assignedReq)
	require.NoError(t, err)

	unassignedReq := validCreateMemberRequest(branch.ID.String())
	unassignedReq.Mobile = "01098765432"
	unassigned, err := members.CreateMember(context.Background(), actor, unassignedReq)
	require.NoError(t, err)

	return trainingFixture{
		branch:     branch,
		owner:      owner,
		coach:      coach,
		assigned:   assigned,
		unassigned: unassigned,
		svc:        newTestTrainingService(db),
	}
}

func validTrainingRequest(memberID uuid.UUID) CreateTrainingRequest {
	rating := 4
	return CreateTrainingRequest{
		MemberID:    memberID.String(),
		SessionDate: time.Now().Format(dateLayout),
		Notes:       "Upper body session, good progress",
		Rating:      &rating,
	}
}

func TestCreateTrainingEntry_CoachLogsForAssignedMember(t *testing.T) {
	db := newTestDB(t)
	fx := newTrainingFixture(t, db)
	actor := coachActor(fx.coach.ID, fx.branch.ID)

	entry, err := fx.svc.CreateEntry(context.Background(), actor, validTrainingRequest(fx.assigned.ID))
	require.NoError(t, err)
	assert.Equal(t, fx.coach.ID, entry.CoachID)
	assert.EqualValues(t, 1, countAuditEntries(t, db, model.ActionCreateTraining))

	// Not for members assigned to someone else (or nobody).
	_, err = fx.svc.CreateEntry(context.Background(), actor, validTrainingRequest(fx.unassigned.ID))
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermission, apperr.KindOf(err))
}

func TestCreateTrainingEntry_AdminAttributesAssignedCoach(t *testing.T) {
	db := newTestDB(t)
	fx := newTrainingFixture(t, db)
	admin := createTestUser(t, db, "admin", model.RoleAdmin, &fx.branch.ID)
	actor := adminActor(admin.ID, fx.branch.ID)

	entry, err := fx.svc.CreateEntry(context.Background(), actor, validTrainingRequest(fx.assigned.ID))
	require.NoError(t, err)
	assert.Equal(t, fx.coach.ID, entry.CoachID)

	// A member without an assigned coach cannot be logged for.
	_, err = fx.svc.CreateEntry(context.Background(), actor, validTrainingRequest(fx.unassigned.ID))
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// Nor one whose assigned coach has been deactivated.
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", fx.coach.ID).Update("active", false).Error)
	_, err = fx.svc.CreateEntry(context.Background(), actor, validTrainingRequest(fx.assigned.ID))
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "not active")
}

func TestCreateTrainingEntry_ValidatesRatingAndDate(t *testing.T) {
	db := newTestDB(t)
	fx := newTrainingFixture(t, db)
	actor := coachActor(fx.coach.ID, fx.branch.ID)

	req := validTrainingRequest(fx.assigned.ID)
	bad := 6
	req.Rating = &bad
	_, err := fx.svc.CreateEntry(context.Background(), actor, req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	req = validTrainingRequest(fx.assigned.ID)
	req.SessionDate = time.Now().AddDate(0, 0, 2).Format(dateLayout)
	_, err = fx.svc.CreateEntry(context.Background(), actor, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "future")

	req = validTrainingRequest(fx.assigned.ID)
	req.Notes = "   "
	_, err = fx.svc.CreateEntry(context.Background(), actor, req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateTrainingEntry_CoachOwnsEntry(t *testing.T) {
	db := newTestDB(t)
	fx := newTrainingFixture(t, db)
	otherCoach := createTestUser(t, db, "coach2", model.RoleCoach, &fx.branch.ID)

	entry, err := fx.svc.CreateEntry(context.Background(), coachActor(fx.coach.ID, fx.branch.ID), validTrainingRequest(fx.assigned.ID))
	require.NoError(t, err)

	_, err = fx.svc.UpdateEntry(context.Background(), coachActor(otherCoach.ID, fx.branch.ID), entry.ID.String(), UpdateTrainingRequest{Notes: "hijack"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermission, apperr.KindOf(err))

	updated, err := fx.svc.UpdateEntry(context.Background(), coachActor(fx.coach.ID, fx.branch.ID), entry.ID.String(), UpdateTrainingRequest{Notes: "Adjusted program"})
	require.NoError(t, err)
	assert.Equal(t, "Adjusted program", updated.Notes)
}

func TestListTrainingByMember_ScopedToBranch(t *testing.T) {
	db := newTestDB(t)
	fx := newTrainingFixture(t, db)
	foreign := createTestBranch(t, db, "Other")
	foreignAdmin := createTestUser(t, db, "admin2", model.RoleAdmin, &foreign.ID)

	_, err := fx.svc.CreateEntry(context.Background(), coachActor(fx.coach.ID, fx.branch.ID), validTrainingRequest(fx.assigned.ID))
	require.NoError(t, err)

	entries, total, err := fx.svc.ListByMember(context.Background(), ownerActor(fx.owner.ID), fx.assigned.ID.String(), 1, 20)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.EqualValues(t, 1, total)

	_, _, err = fx.svc.ListByMember(context.Background(), adminActor(foreignAdmin.ID, foreign.ID), fx.assigned.ID.String(), 1, 20)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermission, apperr.KindOf(err))
}

func TestListTrainingByCoach_CoachListsOnlyOwnSessions(t *testing.T) {
	db := newTestDB(t)
	fx := newTrainingFixture(t, db)
	otherCoach := createTestUser(t, db, "coach2", model.RoleCoach, &fx.branch.ID)

	_, err := fx.svc.CreateEntry(context.Background(), coachActor(fx.coach.ID, fx.branch.ID), validTrainingRequest(fx.assigned.ID))
	require.NoError(t, err)

	entries, total, err := fx.svc.ListByCoach(context.Background(), coachActor(fx.coach.ID, fx.branch.ID), fx.coach.ID.String(), 1, 20)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.EqualValues(t, 1, total)

	// Another coach's log is off limits.
	_, _, err = fx.svc.ListByCoach(context.Background(), coachActor(otherCoach.ID, fx.branch.ID), fx.coach.ID.String(), 1, 20)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermission, apperr.KindOf(err))

	// Admins list coaches of their own branch only.
	foreign := createTestBranch(t, db, "Other")
	foreignAdmin := createTestUser(t, db, "admin2", model.RoleAdmin, &foreign.ID)
	_, _, err = fx.svc.ListByCoach(context.Background(), adminActor(foreignAdmin.ID, foreign.ID), fx.coach.ID.String(), 1, 20)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermission, apperr.KindOf(err))

	entries, _, err = fx.svc.ListByCoach(context.Background(), ownerActor(fx.owner.ID), fx.coach.ID.String(), 1, 20)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
