package repository

import (
	"backend/internal/model"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxAuditResults caps a single search to bound memory; callers needing
// more must narrow the filter.
const MaxAuditResults = 1000

// AuditFilter narrows Search; nil fields are skipped, set fields AND-combine.
type AuditFilter struct {
	UserID *uuid.UUID
	Action string
	From   *time.Time
	To     *time.Time
	Limit  int
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	Search(ctx context.Context, filter AuditFilter) ([]model.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) Search(ctx context.Context, filter AuditFilter) ([]model.AuditLog, error) {
	limit := filter.Limit
	if limit <= 0 || limit > MaxAuditResults {
		limit = MaxAuditResults
	}

	q := GetDB(ctx, r.db).Model(&model.AuditLog{})
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}

	var logs []model.AuditLog
	if err := q.Preload("User").Order("created_at desc").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
