package service

import (
	"backend/internal/model"
	"backend/internal/websocket"
	"backend/pkg/apperr"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateMemberRequest(branchID string) CreateMemberRequest {
	return CreateMemberRequest{
		FirstName: "Ahmed",
		LastName:  "Hassan",
		Mobile:    "01012345678",
		Payment:   "150.00",
		StartDate: "2025-01-01",
		BranchID:  branchID,
	}
}

func TestCreateMember_DerivesPeriodFromPayment(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	events := &captureEvents{}
	svc := newTestMemberService(db, events)

	res, err := svc.CreateMember(context.Background(), ownerActor(owner.ID), validCreateMemberRequest(branch.ID.String()))
	require.NoError(t, err)

	assert.Equal(t, "1 month", res.Period)
	assert.Equal(t, "2025-02-01", res.EndDate)
	assert.GreaterOrEqual(t, res.RandomID, 10000000)
	assert.LessOrEqual(t, res.RandomID, 99999999)
	assert.True(t, res.Active)

	assert.EqualValues(t, 1, countAuditEntries(t, db, model.ActionCreateMember))
	assert.Equal(t, []string{websocket.EventMemberEnrolled}, events.types)
}

func TestCreateMember_PartialMonthPayment(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	svc := newTestMemberService(db, nil)

	req := validCreateMemberRequest(branch.ID.String())
	req.Payment = "75"

	res, err := svc.CreateMember(context.Background(), ownerActor(owner.ID), req)
	require.NoError(t, err)

	assert.Equal(t, "15 days", res.Period)
	assert.Equal(t, "2025-01-16", res.EndDate)
}

func TestCreateMember_NormalizesMobileAndRejectsDuplicates(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	svc := newTestMemberService(db, nil)
	actor := ownerActor(owner.ID)

	req := validCreateMemberRequest(branch.ID.String())
	req.Mobile = "+20 101 234 5678"

	res, err := svc.CreateMember(context.Background(), actor, req)
	require.NoError(t, err)
	assert.Equal(t, "01012345678", res.Mobile)

	// The same number in local form collides with the normalized record.
	dup := validCreateMemberRequest(branch.ID.String())
	dup.Mobile = "01012345678"
	_, err = svc.CreateMember(context.Background(), actor, dup)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreateMember_RejectsInvalidMobile(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	svc := newTestMemberService(db, nil)

	req := validCreateMemberRequest(branch.ID.String())
	req.Mobile = "01234"

	_, err := svc.CreateMember(context.Background(), ownerActor(owner.ID), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateMember_RandomIDRetryExhaustion(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	svc := newTestMemberService(db, nil)
	actor := ownerActor(owner.ID)

	// Force every draw to the same value: the first enrollment takes it,
	// the second exhausts its attempts.
	svc.randomID = func() (int, error) { return 12345678, nil }

	_, err := svc.CreateMember(context.Background(), actor, validCreateMemberRequest(branch.ID.String()))
	require.NoError(t, err)

	second := validCreateMemberRequest(branch.ID.String())
	second.Mobile = "01098765432"
	_, err = svc.CreateMember(context.Background(), actor, second)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "unique member id")
}

func TestCreateMember_AdminCannotEnrollIntoOtherBranch(t *testing.T) {
	db := newTestDB(t)
	home := createTestBranch(t, db, "Home")
	other := createTestBranch(t, db, "Other")
	admin := createTestUser(t, db, "admin", model.RoleAdmin, &home.ID)
	svc := newTestMemberService(db, nil)

	_, err := svc.CreateMember(context.Background(), adminActor(admin.ID, home.ID), validCreateMemberRequest(other.ID.String()))
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermission, apperr.KindOf(err))
}

func TestCreateMember_CoachMustBelongToSameBranch(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	other := createTestBranch(t, db, "Other")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	foreignCoach := createTestUser(t, db, "coach", model.RoleCoach, &other.ID)
	svc := newTestMemberService(db, nil)

	req := validCreateMemberRequest(branch.ID.String())
	req.CoachID = foreignCoach.ID.String()

	_, err := svc.CreateMember(context.Background(), ownerActor(owner.ID), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "different branch")
}

func TestUpdateMember_PaymentChangeRederivesPeriod(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	svc := newTestMemberService(db, nil)
	actor := ownerActor(owner.ID)

	created, err := svc.CreateMember(context.Background(), actor, validCreateMemberRequest(branch.ID.String()))
	require.NoError(t, err)

	updated, err := svc.UpdateMember(context.Background(), actor, created.ID.String(), UpdateMemberRequest{Payment: "300"})
	require.NoError(t, err)

	assert.Equal(t, "2 months", updated.Period)
	assert.Equal(t, "2025-03-01", updated.EndDate)
}

func TestRenewMembership_StartsAtCurrentEndWhileRunning(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	events := &captureEvents{}
	svc := newTestMemberService(db, events)
	actor := ownerActor(owner.ID)

	today := time.Now().Format(dateLayout)
	req := validCreateMemberRequest(branch.ID.String())
	req.StartDate = today

	created, err := svc.CreateMember(context.Background(), actor, req)
	require.NoError(t, err)
	firstEnd := created.EndDate

	renewed, err := svc.RenewMembership(context.Background(), actor, created.ID.String(), RenewMembershipRequest{Payment: "150"})
	require.NoError(t, err)

	// The new period is appended to the running one, not overlapped.
	assert.Equal(t, firstEnd, renewed.StartDate)
	assert.True(t, renewed.EndDate > firstEnd)
	assert.Contains(t, events.types, websocket.EventMemberRenewed)
	assert.EqualValues(t, 1, countAuditEntries(t, db, model.ActionRenewMember))
}

func TestRenewMembership_StartsTodayWhenExpired(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	svc := newTestMemberService(db, nil)
	actor := ownerActor(owner.ID)

	// Start date well in the past, so the membership has lapsed.
	created, err := svc.CreateMember(context.Background(), actor, validCreateMemberRequest(branch.ID.String()))
	require.NoError(t, err)

	renewed, err := svc.RenewMembership(context.Background(), actor, created.ID.String(), RenewMembershipRequest{Payment: "150"})
	require.NoError(t, err)

	assert.Equal(t, time.Now().Format(dateLayout), renewed.StartDate)
	assert.Equal(t, model.StatusActive, renewed.Status)
}

func TestDeactivateMember_KeepsRecordQueryable(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	svc := newTestMemberService(db, nil)
	actor := ownerActor(owner.ID)

	created, err := svc.CreateMember(context.Background(), actor, validCreateMemberRequest(branch.ID.String()))
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateMember(context.Background(), actor, created.ID.String()))

	got, err := svc.GetMemberByID(context.Background(), actor, created.ID.String())
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, model.StatusInactive, got.Status)

	renewErr := func() error {
		_, err := svc.RenewMembership(context.Background(), actor, created.ID.String(), RenewMembershipRequest{Payment: "150"})
		return err
	}()
	require.Error(t, renewErr)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(renewErr))
}

func TestGetMemberByRandomID(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	svc := newTestMemberService(db, nil)

	created, err := svc.CreateMember(context.Background(), ownerActor(owner.ID), validCreateMemberRequest(branch.ID.String()))
	require.NoError(t, err)

	got, err := svc.GetMemberByRandomID(context.Background(), ownerActor(owner.ID), created.RandomID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetMemberByRandomID(context.Background(), ownerActor(owner.ID), 99999998)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGetMember_ScopedToBranchAndCoach(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	other := createTestBranch(t, db, "Other")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	coach := createTestUser(t, db, "coach1", model.RoleCoach, &branch.ID)
	foreignAdmin := createTestUser(t, db, "admin2", model.RoleAdmin, &other.ID)
	foreignCoach := createTestUser(t, db, "coach2", model.RoleCoach, &other.ID)
	svc := newTestMemberService(db, nil)

	created, err := svc.CreateMember(context.Background(), ownerActor(owner.ID), validCreateMemberRequest(branch.ID.String()))
	require.NoError(t, err)

	unassigned := validCreateMemberRequest(branch.ID.String())
	unassigned.Mobile = "01098765432"
	unassignedRes, err := svc.CreateMember(context.Background(), ownerActor(owner.ID), unassigned)
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.Member{}).Where("id = ?", created.ID).Update("coach_id", coach.ID).Error)

	// Staff of another branch are denied on both lookup paths.
	_, err = svc.GetMemberByID(context.Background(), adminActor(foreignAdmin.ID, other.ID), created.ID.String())
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermission, apperr.KindOf(err))

	_, err = svc.GetMemberByRandomID(context.Background(), coachActor(foreignCoach.ID, other.ID), created.RandomID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermission, apperr.KindOf(err))

	// A coach of the right branch still only sees assigned members.
	got, err := svc.GetMemberByID(context.Background(), coachActor(coach.ID, branch.ID), created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetMemberByRandomID(context.Background(), coachActor(coach.ID, branch.ID), unassignedRes.RandomID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermission, apperr.KindOf(err))
}

func TestListMembers_CoachSeesOnlyAssignedMembers(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	coach := createTestUser(t, db, "coach1", model.RoleCoach, &branch.ID)
	svc := newTestMemberService(db, nil)
	actor := ownerActor(owner.ID)

	assigned := validCreateMemberRequest(branch.ID.String())
	assigned.CoachID = coach.ID.String()
	_, err := svc.CreateMember(context.Background(), actor, assigned)
	require.NoError(t, err)

	unassigned := validCreateMemberRequest(branch.ID.String())
	unassigned.Mobile = "01098765432"
	_, err = svc.CreateMember(context.Background(), actor, unassigned)
	require.NoError(t, err)

	all, total, err := svc.ListMembers(context.Background(), actor, MemberListFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.EqualValues(t, 2, total)

	mine, total, err := svc.ListMembers(context.Background(), coachActor(coach.ID, branch.ID), MemberListFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	assert.EqualValues(t, 1, total)
}

func TestExportCSV_WritesRoster(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	svc := newTestMemberService(db, nil)

	_, err := svc.CreateMember(context.Background(), ownerActor(owner.ID), validCreateMemberRequest(branch.ID.String()))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), ownerActor(owner.ID), &buf))

	out := buf.String()
	assert.Contains(t, out, "01012345678")
	assert.Contains(t, out, "Main")
	assert.Contains(t, out, "1 month")
}

func TestImportCSV_ReportsBadLinesWithoutAborting(t *testing.T) {
	db := newTestDB(t)
	createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	svc := newTestMemberService(db, nil)

	csv := strings.Join([]string{
		"first_name,last_name,mobile,email,gender,date_of_birth,payment,start_date,branch,coach,notes",
		"Ahmed,Hassan,01012345678,,male,,150,2025-01-01,Main,,",
		"Bad,Row,notamobile,,male,,150,2025-01-01,Main,,",
		"Mona,Adel,01198765432,,female,,75,2025-01-01,Nowhere,,",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), ownerActor(owner.ID), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.EqualValues(t, 1, countAuditEntries(t, db, model.ActionImportMembers))
}
