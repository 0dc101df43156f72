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

type CreateBranchRequest struct {
	Name          string `json:"name" binding:"required"`
	Location      string `json:"location"`
	ContactNumber string `json:"contact_number"`
}

type UpdateBranchRequest struct {
	Name          string `json:"name"`
	Location      string `json:"location"`
	ContactNumber string `json:"contact_number"`
}

type BranchResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Location      string    `json:"location"`
	ContactNumber string    `json:"contact_number"`
	Active        bool      `json:"active"`
	CreatedAt     string    `json:"created_at"`
	UpdatedAt     string    `json:"updated_at"`
}

// BranchService defines the interface for business logic related to branches
type BranchService interface {
	CreateBranch(ctx context.Context, actor Actor, req CreateBranchRequest) (*BranchResponse, error)
	UpdateBranch(ctx context.Context, actor Actor, id string, req UpdateBranchRequest) (*BranchResponse, error)
	DeactivateBranch(ctx context.Context, actor Actor, id string) error
	GetBranchByID(ctx context.Context, id string) (*BranchResponse, error)
	ListBranches(ctx context.Context, activeOnly bool, page, limit int) ([]BranchResponse, int64, error)
}

type branchService struct {
	repo      repository.BranchRepository
	users     repository.UserRepository
	members   repository.MemberRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

// NewBranchService returns a new instance of BranchService
func NewBranchService(
	repo repository.BranchRepository,
	users repository.UserRepository,
	members repository.MemberRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) BranchService {
	return &branchService{
		repo:      repo,
		users:     users,
		members:   members,
		auditRepo: auditRepo,
		txManager: txManager,
	}
}

func mapBranchToResponse(branch *model.Branch) *BranchResponse {
	return &BranchResponse{
		ID:            branch.ID,
		Name:          branch.Name,
		Location:      branch.Location,
		ContactNumber: branch.ContactNumber,
		Active:        branch.Active,
		CreatedAt:     branch.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     branch.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *branchService) CreateBranch(ctx context.Context, actor Actor, req CreateBranchRequest) (*BranchResponse, error) {
	if !actor.IsOwner() {
		return nil, apperr.Permission("only the owner can manage branches")
	}

	name := strings.TrimSpace(req.Name)
	if len(name) < 2 || len(name) > 100 {
		return nil, apperr.Validation("branch name must be 2-100 characters")
	}

	// Case-insensitive pre-flight; the lowered unique column is the backstop.
	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return nil, apperr.Conflict("a branch with this name already exists")
	}

	branch := &model.Branch{
		Name:          name,
		Location:      strings.TrimSpace(req.Location),
		ContactNumber: strings.TrimSpace(req.ContactNumber),
		Active:        true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, branch); createErr != nil {
			return translateStorageErr(createErr, "a branch with this name already exists")
		}
		return s.auditBranch(txCtx, actor, model.ActionCreateBranch, branch)
	})
	if err != nil {
		return nil, err
	}

	return mapBranchToResponse(branch), nil
}

func (s *branchService) UpdateBranch(ctx context.Context, actor Actor, id string, req UpdateBranchRequest) (*BranchResponse, error) {
	if !actor.IsOwner() {
		return nil, apperr.Permission("only the owner can manage branches")
	}

	branchID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid branch id")
	}
	branch, err := s.repo.GetByID(ctx, branchID)
	if err != nil {
		return nil, apperr.NotFound("branch not found")
	}

	if req.Name != "" {
		name := strings.TrimSpace(req.Name)
		if len(name) < 2 || len(name) > 100 {
			return nil, apperr.Validation("branch name must be 2-100 characters")
		}
		if !strings.EqualFold(name, branch.Name) {
			if _, err := s.repo.GetByName(ctx, name); err == nil {
				return nil, apperr.Conflict("a branch with this name already exists")
			}
		}
		branch.Name = name
	}
	if req.Location != "" {
		branch.Location = strings.TrimSpace(req.Location)
	}
	if req.ContactNumber != "" {
		branch.ContactNumber = strings.TrimSpace(req.ContactNumber)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.repo.Update(txCtx, branch); updateErr != nil {
			return translateStorageErr(updateErr, "a branch with this name already exists")
		}
		return s.auditBranch(txCtx, actor, model.ActionUpdateBranch, branch)
	})
	if err != nil {
		return nil, err
	}

	return mapBranchToResponse(branch), nil
}

// DeactivateBranch refuses while active staff or members still reference
// the branch; they must be reassigned or deactivated first.
func (s *branchService) DeactivateBranch(ctx context.Context, actor Actor, id string) error {
	if !actor.IsOwner() {
		return apperr.Permission("only the owner can manage branches")
	}

	branchID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid branch id")
	}
	branch, err := s.repo.GetByID(ctx, branchID)
	if err != nil {
		return apperr.NotFound("branch not found")
	}

	staff, err := s.users.CountActiveByBranch(ctx, branch.ID)
	if err != nil {
		return apperr.Persistence(err)
	}
	if staff > 0 {
		return apperr.Newf(apperr.KindConflict, "branch still has %d active staff member(s)", staff)
	}

	members, err := s.members.CountActiveByBranch(ctx, branch.ID)
	if err != nil {
		return apperr.Persistence(err)
	}
	if members > 0 {
		return apperr.Newf(apperr.KindConflict, "branch still has %d active member(s)", members)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if dErr := s.repo.Deactivate(txCtx, branch.ID); dErr != nil {
			return apperr.Persistence(dErr)
		}
		return s.auditBranch(txCtx, actor, model.ActionDeleteBranch, branch)
	})
}

func (s *branchService) GetBranchByID(ctx context.Context, id string) (*BranchResponse, error) {
	branchID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid branch id")
	}
	branch, err := s.repo.GetByID(ctx, branchID)
	if err != nil {
		return nil, apperr.NotFound("branch not found")
	}
	return mapBranchToResponse(branch), nil
}

func (s *branchService) ListBranches(ctx context.Context, activeOnly bool, page, limit int) ([]BranchResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	branches, total, err := s.repo.List(ctx, activeOnly, page, limit)
	if err != nil {
		return nil, 0, apperr.Persistence(err)
	}

	responses := make([]BranchResponse, 0, len(branches))
	for i := range branches {
		responses = append(responses, *mapBranchToResponse(&branches[i]))
	}
	return responses, total, nil
}

func (s *branchService) auditBranch(txCtx context.Context, actor Actor, action string, branch *model.Branch) error {
	details, _ := json.Marshal(map[string]interface{}{
		"name":     branch.Name,
		"location": branch.Location,
	})
	entry := &model.AuditLog{
		UserID:     actor.ID,
		Action:     action,
		EntityID:   branch.ID.String(),
		EntityName: branch.Name,
		Details:    string(details),
		IPAddress:  actor.IP,
	}
	if err := s.auditRepo.Log(txCtx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
