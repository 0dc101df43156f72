package service

import (
	"backend/internal/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembershipReport_CountsAndMonthlyBuckets(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	members := newTestMemberService(db, nil)
	svc := NewReportService(db)
	actor := ownerActor(owner.ID)

	// One lapsed membership in January 2025, one running from today.
	_, err := members.CreateMember(context.Background(), actor, validCreateMemberRequest(branch.ID.String()))
	require.NoError(t, err)

	running := validCreateMemberRequest(branch.ID.String())
	running.Mobile = "01098765432"
	running.StartDate = time.Now().Format(dateLayout)
	_, err = members.CreateMember(context.Background(), actor, running)
	require.NoError(t, err)

	inactive := validCreateMemberRequest(branch.ID.String())
	inactive.Mobile = "01155555555"
	created, err := members.CreateMember(context.Background(), actor, inactive)
	require.NoError(t, err)
	require.NoError(t, members.DeactivateMember(context.Background(), actor, created.ID.String()))

	from, _ := time.Parse(dateLayout, "2025-01-01")
	report, err := svc.MembershipReport(context.Background(), from, time.Now())
	require.NoError(t, err)

	assert.EqualValues(t, 3, report.TotalMembers)
	assert.EqualValues(t, 1, report.ActiveMembers)
	assert.EqualValues(t, 1, report.ExpiredMembers)
	assert.EqualValues(t, 1, report.InactiveMembers)

	require.Len(t, report.PerBranch, 1)
	assert.Equal(t, "Main", report.PerBranch[0].BranchName)
	assert.EqualValues(t, 2, report.PerBranch[0].Count)

	// January bucket carries the two 2025-01-01 enrollments.
	var january *MonthlyCount
	for i := range report.Enrollments {
		if report.Enrollments[i].Month == "2025-01" {
			january = &report.Enrollments[i]
		}
	}
	require.NotNil(t, january)
	assert.EqualValues(t, 2, january.Count)
	assert.Len(t, report.Revenue, len(report.Enrollments))
}

func TestExpiringWithin_ListsSoonestFirst(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	members := newTestMemberService(db, nil)
	svc := NewReportService(db)
	actor := ownerActor(owner.ID)

	// Ends in ~15 days.
	soon := validCreateMemberRequest(branch.ID.String())
	soon.Payment = "75"
	soon.StartDate = time.Now().Format(dateLayout)
	created, err := members.CreateMember(context.Background(), actor, soon)
	require.NoError(t, err)

	// Ends in ~a month, outside the window.
	later := validCreateMemberRequest(branch.ID.String())
	later.Mobile = "01098765432"
	later.StartDate = time.Now().Format(dateLayout)
	_, err = members.CreateMember(context.Background(), actor, later)
	require.NoError(t, err)

	expiring, err := svc.ExpiringWithin(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, created.RandomID, expiring[0].RandomID)

	wide, err := svc.ExpiringWithin(context.Background(), 60)
	require.NoError(t, err)
	assert.Len(t, wide, 2)
}
