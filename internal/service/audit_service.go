package service

import (
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"
	"context"
	"time"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	IPAddress  string `json:"ip_address"`
	CreatedAt  string `json:"created_at"`
}

// AuditSearchRequest carries the optional, AND-combined search filters.
type AuditSearchRequest struct {
	UserID string
	Action string
	From   string // YYYY-MM-DD
	To     string // YYYY-MM-DD, inclusive
	Limit  int
}

// AuditService is the read side of the audit log; writes happen inside
// the mutating services' transactions.
type AuditService interface {
	Search(ctx context.Context, req AuditSearchRequest) ([]AuditLogResponse, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Search(ctx context.Context, req AuditSearchRequest) ([]AuditLogResponse, error) {
	var filter repository.AuditFilter

	if req.UserID != "" {
		parsed, err := uuid.Parse(req.UserID)
		if err != nil {
			return nil, apperr.Validation("invalid user id")
		}
		filter.UserID = &parsed
	}
	filter.Action = req.Action

	if req.From != "" {
		from, err := time.Parse(dateLayout, req.From)
		if err != nil {
			return nil, apperr.Validation("invalid from date: expected YYYY-MM-DD")
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := time.Parse(dateLayout, req.To)
		if err != nil {
			return nil, apperr.Validation("invalid to date: expected YYYY-MM-DD")
		}
		// Include the whole end day.
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.To = &to
	}
	filter.Limit = req.Limit

	logs, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		userID := ""
		if l.User != nil {
			username = l.User.Username
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			Username:   username,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			IPAddress:  l.IPAddress,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, nil
}

// Actions returns the known action codes for filter dropdowns.
func Actions() []string {
	return []string{
		model.ActionLogin, model.ActionLoginFailed, model.ActionLogout,
		model.ActionCreateUser, model.ActionUpdateUser, model.ActionDeleteUser,
		model.ActionResetPassword,
		model.ActionCreateBranch, model.ActionUpdateBranch, model.ActionDeleteBranch,
		model.ActionCreateMember, model.ActionUpdateMember, model.ActionDeleteMember,
		model.ActionRenewMember, model.ActionImportMembers,
		model.ActionCreateTraining, model.ActionUpdateTraining,
		model.ActionUpdateSetting,
	}
}
