package service

import (
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyPrice_DefaultAndUpdate(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	svc := NewSettingService(
		repository.NewSettingRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
	)

	// Unset falls back to the shipped default.
	price, err := svc.GetMonthlyPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultMonthlyPrice, price.MonthlyPrice)

	updated, err := svc.UpdateMonthlyPrice(context.Background(), ownerActor(owner.ID), UpdateMonthlyPriceRequest{MonthlyPrice: "200"})
	require.NoError(t, err)
	assert.Equal(t, "200.00", updated.MonthlyPrice)
	assert.EqualValues(t, 1, countAuditEntries(t, db, model.ActionUpdateSetting))

	price, err = svc.GetMonthlyPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "200.00", price.MonthlyPrice)
}

func TestMonthlyPrice_OwnerOnlyAndValidated(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	admin := createTestUser(t, db, "admin", model.RoleAdmin, &branch.ID)
	svc := NewSettingService(
		repository.NewSettingRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
	)

	_, err := svc.UpdateMonthlyPrice(context.Background(), adminActor(admin.ID, branch.ID), UpdateMonthlyPriceRequest{MonthlyPrice: "200"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermission, apperr.KindOf(err))

	_, err = svc.UpdateMonthlyPrice(context.Background(), ownerActor(owner.ID), UpdateMonthlyPriceRequest{MonthlyPrice: "-5"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

// The price change must flow into subsequent period derivations.
func TestMonthlyPrice_ChangeAffectsNewEnrollments(t *testing.T) {
	db := newTestDB(t)
	branch := createTestBranch(t, db, "Main")
	owner := createTestUser(t, db, "owner", model.RoleOwner, nil)
	actor := ownerActor(owner.ID)
	settingSvc := NewSettingService(
		repository.NewSettingRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
	)
	memberSvc := newTestMemberService(db, nil)

	_, err := settingSvc.UpdateMonthlyPrice(context.Background(), actor, UpdateMonthlyPriceRequest{MonthlyPrice: "75"})
	require.NoError(t, err)

	// 150 against a 75 monthly price is now two months.
	created, err := memberSvc.CreateMember(context.Background(), actor, validCreateMemberRequest(branch.ID.String()))
	require.NoError(t, err)
	assert.Equal(t, "2 months", created.Period)
	assert.Equal(t, "2025-03-01", created.EndDate)
}
