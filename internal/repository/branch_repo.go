package repository

import (
	"backend/internal/model"
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BranchRepository defines the interface for data access of gym branches
type BranchRepository interface {
	Create(ctx context.Context, branch *model.Branch) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Branch, error)
	GetByName(ctx context.Context, name string) (*model.Branch, error)
	List(ctx context.Context, activeOnly bool, page, limit int) ([]model.Branch, int64, error)
	Update(ctx context.Context, branch *model.Branch) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type branchRepository struct {
	db *gorm.DB
}

// NewBranchRepository returns a new instance of BranchRepository
func NewBranchRepository(db *gorm.DB) BranchRepository {
	return &branchRepository{db: db}
}

func (r *branchRepository) Create(ctx context.Context, branch *model.Branch) error {
	return GetDB(ctx, r.db).Create(branch).Error
}

func (r *branchRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Branch, error) {
	var branch model.Branch
	if err := GetDB(ctx, r.db).First(&branch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

// GetByName matches case-insensitively via the lowered name column.
func (r *branchRepository) GetByName(ctx context.Context, name string) (*model.Branch, error) {
	var branch model.Branch
	if err := GetDB(ctx, r.db).First(&branch, "name_lower = ?", strings.ToLower(name)).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *branchRepository) List(ctx context.Context, activeOnly bool, page, limit int) ([]model.Branch, int64, error) {
	var branches []model.Branch
	var total int64

	q := GetDB(ctx, r.db).Model(&model.Branch{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.Order("name_lower asc").Offset(offset).Limit(limit).Find(&branches).Error; err != nil {
		return nil, 0, err
	}

	return branches, total, nil
}

func (r *branchRepository) Update(ctx context.Context, branch *model.Branch) error {
	return GetDB(ctx, r.db).Save(branch).Error
}

func (r *branchRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Branch{}).Where("id = ?", id).Update("active", false).Error
}
