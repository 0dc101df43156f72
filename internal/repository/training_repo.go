package repository

import (
	"backend/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrainingRepository defines the interface for data access of training entries
type TrainingRepository interface {
	Create(ctx context.Context, entry *model.TrainingEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.TrainingEntry, error)
	ListByMember(ctx context.Context, memberID uuid.UUID, page, limit int) ([]model.TrainingEntry, int64, error)
	ListByCoach(ctx context.Context, coachID uuid.UUID, page, limit int) ([]model.TrainingEntry, int64, error)
	Update(ctx context.Context, entry *model.TrainingEntry) error
}

type trainingRepository struct {
	db *gorm.DB
}

// NewTrainingRepository returns a new instance of TrainingRepository
func NewTrainingRepository(db *gorm.DB) TrainingRepository {
	return &trainingRepository{db: db}
}

func (r *trainingRepository) Create(ctx context.Context, entry *model.TrainingEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *trainingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TrainingEntry, error) {
	var entry model.TrainingEntry
	if err := GetDB(ctx, r.db).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *trainingRepository) ListByMember(ctx context.Context, memberID uuid.UUID, page, limit int) ([]model.TrainingEntry, int64, error) {
	return r.list(ctx, "member_id = ?", memberID, page, limit)
}

func (r *trainingRepository) ListByCoach(ctx context.Context, coachID uuid.UUID, page, limit int) ([]model.TrainingEntry, int64, error) {
	return r.list(ctx, "coach_id = ?", coachID, page, limit)
}

func (r *trainingRepository) list(ctx context.Context, cond string, id uuid.UUID, page, limit int) ([]model.TrainingEntry, int64, error) {
	var entries []model.TrainingEntry
	var total int64

	q := GetDB(ctx, r.db).Model(&model.TrainingEntry{}).Where(cond, id)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.Order("session_date desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *trainingRepository) Update(ctx context.Context, entry *model.TrainingEntry) error {
	return GetDB(ctx, r.db).Save(entry).Error
}
