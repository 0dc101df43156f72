package repository

import (
	"backend/internal/model"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemberRepository defines the interface for data access of gym members
type MemberRepository interface {
	Create(ctx context.Context, member *model.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error)
	GetByRandomID(ctx context.Context, randomID int) (*model.Member, error)
	GetByMobile(ctx context.Context, mobile string) (*model.Member, error)
	ExistsByRandomID(ctx context.Context, randomID int) (bool, error)
	List(ctx context.Context, filter MemberFilter, page, limit int) ([]model.Member, int64, error)
	ListAll(ctx context.Context, filter MemberFilter) ([]model.Member, error)
	Update(ctx context.Context, member *model.Member) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	CountActiveByBranch(ctx context.Context, branchID uuid.UUID) (int64, error)
}

// MemberFilter narrows member listings; zero values mean "no filter".
type MemberFilter struct {
	BranchID     *uuid.UUID
	CoachID      *uuid.UUID
	ActiveOnly   bool
	InactiveOnly bool
	// ExpiringBefore keeps members whose membership ends before the given
	// date and has not ended yet (used by the expiry report).
	ExpiringBefore *time.Time
	ExpiringAfter  *time.Time
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository returns a new instance of MemberRepository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *model.Member) error {
	return GetDB(ctx, r.db).Create(member).Error
}

func (r *memberRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	var member model.Member
	if err := GetDB(ctx, r.db).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) GetByRandomID(ctx context.Context, randomID int) (*model.Member, error) {
	var member model.Member
	if err := GetDB(ctx, r.db).First(&member, "random_id = ?", randomID).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByMobile expects the normalized local form.
func (r *memberRepository) GetByMobile(ctx context.Context, mobile string) (*model.Member, error) {
	var member model.Member
	if err := GetDB(ctx, r.db).First(&member, "mobile = ?", mobile).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) ExistsByRandomID(ctx context.Context, randomID int) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Member{}).Where("random_id = ?", randomID).Count(&count).Error
	return count > 0, err
}

func (r *memberRepository) applyFilter(q *gorm.DB, filter MemberFilter) *gorm.DB {
	if filter.BranchID != nil {
		q = q.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.CoachID != nil {
		q = q.Where("coach_id = ?", *filter.CoachID)
	}
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if filter.InactiveOnly {
		q = q.Where("active = ?", false)
	}
	if filter.ExpiringBefore != nil {
		q = q.Where("end_date < ?", *filter.ExpiringBefore)
	}
	if filter.ExpiringAfter != nil {
		q = q.Where("end_date >= ?", *filter.ExpiringAfter)
	}
	return q
}

func (r *memberRepository) List(ctx context.Context, filter MemberFilter, page, limit int) ([]model.Member, int64, error) {
	var members []model.Member
	var total int64

	q := r.applyFilter(GetDB(ctx, r.db).Model(&model.Member{}), filter)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&members).Error; err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

// ListAll skips pagination; used by the CSV export.
func (r *memberRepository) ListAll(ctx context.Context, filter MemberFilter) ([]model.Member, error) {
	var members []model.Member
	q := r.applyFilter(GetDB(ctx, r.db).Model(&model.Member{}), filter)
	if err := q.Order("created_at asc").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *memberRepository) Update(ctx context.Context, member *model.Member) error {
	return GetDB(ctx, r.db).Save(member).Error
}

func (r *memberRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Member{}).Where("id = ?", id).Update("active", false).Error
}

func (r *memberRepository) CountActiveByBranch(ctx context.Context, branchID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Member{}).
		Where("branch_id = ? AND active = ?", branchID, true).
		Count(&count).Error
	return count, err
}
