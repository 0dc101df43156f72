package service

import (
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type CreateTrainingRequest struct {
	MemberID    string `json:"member_id" binding:"required"`
	SessionDate string `json:"session_date" binding:"required"` // YYYY-MM-DD
	Notes       string `json:"notes" binding:"required"`
	Rating      *int   `json:"rating"`
}

type UpdateTrainingRequest struct {
	SessionDate string `json:"session_date"`
	Notes       string `json:"notes"`
	Rating      *int   `json:"rating"`
}

type TrainingResponse struct {
	ID          uuid.UUID `json:"id"`
	MemberID    uuid.UUID `json:"member_id"`
	CoachID     uuid.UUID `json:"coach_id"`
	SessionDate string    `json:"session_date"`
	Notes       string    `json:"notes"`
	Rating      *int      `json:"rating,omitempty"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

// TrainingService defines the interface for business logic related to training logs
type TrainingService interface {
	CreateEntry(ctx context.Context, actor Actor, req CreateTrainingRequest) (*TrainingResponse, error)
	UpdateEntry(ctx context.Context, actor Actor, id string, req UpdateTrainingRequest) (*TrainingResponse, error)
	ListByMember(ctx context.Context, actor Actor, memberID string, page, limit int) ([]TrainingResponse, int64, error)
	ListByCoach(ctx context.Context, actor Actor, coachID string, page, limit int) ([]TrainingResponse, int64, error)
}

type trainingService struct {
	repo      repository.TrainingRepository
	members   repository.MemberRepository
	users     repository.UserRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

// NewTrainingService returns a new instance of TrainingService
func NewTrainingService(
	repo repository.TrainingRepository,
	members repository.MemberRepository,
	users repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) TrainingService {
	return &trainingService{
		repo:      repo,
		members:   members,
		users:     users,
		auditRepo: auditRepo,
		txManager: txManager,
	}
}

func mapTrainingToResponse(e *model.TrainingEntry) *TrainingResponse {
	return &TrainingResponse{
		ID:          e.ID,
		MemberID:    e.MemberID,
		CoachID:     e.CoachID,
		SessionDate: e.SessionDate.Format(dateLayout),
		Notes:       e.Notes,
		Rating:      e.Rating,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   e.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *trainingService) CreateEntry(ctx context.Context, actor Actor, req CreateTrainingRequest) (*TrainingResponse, error) {
	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		return nil, apperr.Validation("invalid member id")
	}
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, apperr.NotFound("member not found")
	}

	coachID, err := s.resolveActingCoach(ctx, actor, member)
	if err != nil {
		return nil, err
	}

	sessionDate, err := parseSessionDate(req.SessionDate)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Notes) == "" {
		return nil, apperr.Validation("notes are required")
	}
	if err := validateRating(req.Rating); err != nil {
		return nil, err
	}

	entry := &model.TrainingEntry{
		MemberID:    member.ID,
		CoachID:     coachID,
		SessionDate: sessionDate,
		Notes:       strings.TrimSpace(req.Notes),
		Rating:      req.Rating,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, entry); createErr != nil {
			return apperr.Persistence(createErr)
		}
		return s.auditTraining(txCtx, actor, model.ActionCreateTraining, entry, member)
	})
	if err != nil {
		return nil, err
	}

	return mapTrainingToResponse(entry), nil
}

func (s *trainingService) UpdateEntry(ctx context.Context, actor Actor, id string, req UpdateTrainingRequest) (*TrainingResponse, error) {
	entryID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid training entry id")
	}
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, apperr.NotFound("training entry not found")
	}
	member, err := s.members.GetByID(ctx, entry.MemberID)
	if err != nil {
		return nil, apperr.NotFound("member not found")
	}

	// A coach may only touch their own entries; admin/owner are unrestricted
	// within their scope.
	if actor.IsCoach() {
		if actor.ID == nil || entry.CoachID != *actor.ID {
			return nil, apperr.Permission("training entry belongs to another coach")
		}
	}
	if !actor.SameBranch(member.BranchID) {
		return nil, apperr.Permission("member belongs to another branch")
	}

	if req.SessionDate != "" {
		sessionDate, dErr := parseSessionDate(req.SessionDate)
		if dErr != nil {
			return nil, dErr
		}
		entry.SessionDate = sessionDate
	}
	if req.Notes != "" {
		entry.Notes = strings.TrimSpace(req.Notes)
		if entry.Notes == "" {
			return nil, apperr.Validation("notes are required")
		}
	}
	if req.Rating != nil {
		if err := validateRating(req.Rating); err != nil {
			return nil, err
		}
		entry.Rating = req.Rating
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.repo.Update(txCtx, entry); updateErr != nil {
			return apperr.Persistence(updateErr)
		}
		return s.auditTraining(txCtx, actor, model.ActionUpdateTraining, entry, member)
	})
	if err != nil {
		return nil, err
	}

	return mapTrainingToResponse(entry), nil
}

func (s *trainingService) ListByMember(ctx context.Context, actor Actor, memberID string, page, limit int) ([]TrainingResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	parsed, err := uuid.Parse(memberID)
	if err != nil {
		return nil, 0, apperr.Validation("invalid member id")
	}
	member, err := s.members.GetByID(ctx, parsed)
	if err != nil {
		return nil, 0, apperr.NotFound("member not found")
	}
	if !actor.SameBranch(member.BranchID) {
		return nil, 0, apperr.Permission("member belongs to another branch")
	}

	entries, total, err := s.repo.ListByMember(ctx, member.ID, page, limit)
	if err != nil {
		return nil, 0, apperr.Persistence(err)
	}

	responses := make([]TrainingResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, *mapTrainingToResponse(&entries[i]))
	}
	return responses, total, nil
}

// ListByCoach returns a coach's session log. A coach actor only lists
// their own; admins stay inside their branch.
func (s *trainingService) ListByCoach(ctx context.Context, actor Actor, coachID string, page, limit int) ([]TrainingResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	parsed, err := uuid.Parse(coachID)
	if err != nil {
		return nil, 0, apperr.Validation("invalid coach id")
	}
	if actor.IsCoach() {
		if actor.ID == nil || *actor.ID != parsed {
			return nil, 0, apperr.Permission("can only list your own sessions")
		}
	}

	coach, err := s.users.GetByID(ctx, parsed)
	if err != nil || coach.Role != model.RoleCoach {
		return nil, 0, apperr.NotFound("coach not found")
	}
	if coach.BranchID == nil || !actor.SameBranch(*coach.BranchID) {
		return nil, 0, apperr.Permission("coach belongs to another branch")
	}

	entries, total, err := s.repo.ListByCoach(ctx, coach.ID, page, limit)
	if err != nil {
		return nil, 0, apperr.Persistence(err)
	}

	responses := make([]TrainingResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, *mapTrainingToResponse(&entries[i]))
	}
	return responses, total, nil
}

// --- Helpers ---

// resolveActingCoach determines the coach attributed to a new entry. A
// coach actor logs for themselves and only for members assigned to them;
// admin/owner actors log on behalf of the member's assigned coach.
func (s *trainingService) resolveActingCoach(ctx context.Context, actor Actor, member *model.Member) (uuid.UUID, error) {
	if !actor.SameBranch(member.BranchID) {
		return uuid.Nil, apperr.Permission("member belongs to another branch")
	}

	if actor.IsCoach() {
		if actor.ID == nil {
			return uuid.Nil, apperr.Permission("missing actor identity")
		}
		if member.CoachID == nil || *member.CoachID != *actor.ID {
			return uuid.Nil, apperr.Permission("member is not assigned to you")
		}
		return *actor.ID, nil
	}

	if member.CoachID == nil {
		return uuid.Nil, apperr.Validation("member has no assigned coach")
	}
	coach, err := s.users.GetByID(ctx, *member.CoachID)
	if err != nil || coach.Role != model.RoleCoach || !coach.Active {
		return uuid.Nil, apperr.Validation("member's assigned coach is not active")
	}
	return coach.ID, nil
}

func parseSessionDate(raw string) (time.Time, error) {
	sessionDate, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid session_date: expected YYYY-MM-DD")
	}
	if sessionDate.After(truncateDay(time.Now())) {
		return time.Time{}, apperr.Validation("session_date cannot be in the future")
	}
	return sessionDate, nil
}

func validateRating(rating *int) error {
	if rating == nil {
		return nil
	}
	if *rating < model.RatingMin || *rating > model.RatingMax {
		return apperr.Newf(apperr.KindValidation, "rating must be between %d and %d", model.RatingMin, model.RatingMax)
	}
	return nil
}

func (s *trainingService) auditTraining(txCtx context.Context, actor Actor, action string, entry *model.TrainingEntry, member *model.Member) error {
	details, _ := json.Marshal(map[string]interface{}{
		"member":       member.FirstName + " " + member.LastName,
		"session_date": entry.SessionDate.Format(dateLayout),
	})
	auditEntry := &model.AuditLog{
		UserID:     actor.ID,
		Action:     action,
		EntityID:   entry.ID.String(),
		EntityName: member.FirstName + " " + member.LastName,
		Details:    string(details),
		IPAddress:  actor.IP,
	}
	if err := s.auditRepo.Log(txCtx, auditEntry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
