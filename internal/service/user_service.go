package service

import (
	"backend/internal/mailer"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"
	"backend/pkg/password"
	"backend/pkg/validate"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Mobile    string `json:"mobile"`
	Password  string `json:"password" binding:"required"`
	Role      string `json:"role" binding:"required"`
	BranchID  string `json:"branch_id"`
}

type UpdateUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Mobile    string `json:"mobile"`
	Role      string `json:"role"`
	BranchID  string `json:"branch_id"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"` // empty means "generate one"
}

type ResetPasswordResponse struct {
	GeneratedPassword string `json:"generated_password,omitempty"`
	Warning           string `json:"warning,omitempty"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// DTO for returning User without exposing the credential
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Mobile      string     `json:"mobile"`
	Role        string     `json:"role"`
	BranchID    *uuid.UUID `json:"branch_id"`
	Active      bool       `json:"active"`
	LastLoginAt string     `json:"last_login_at,omitempty"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
}

// UserService defines the interface for business logic related to staff accounts
type UserService interface {
	Login(ctx context.Context, req LoginRequest, ip string) (*TokenResponse, error)
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken, ip string) error
	CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error)
	UpdateUser(ctx context.Context, actor Actor, id string, req UpdateUserRequest) (*UserResponse, error)
	DeactivateUser(ctx context.Context, actor Actor, id string) error
	ResetPassword(ctx context.Context, actor Actor, id string, req ResetPasswordRequest) (*ResetPasswordResponse, error)
	GetUserByID(ctx context.Context, actor Actor, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, actor Actor, filter repository.UserFilter, page, limit int) ([]UserResponse, int64, error)
}

type userService struct {
	repo      repository.UserRepository
	tokenRepo repository.RefreshTokenRepository
	auditRepo repository.AuditRepository
	branches  repository.BranchRepository
	txManager repository.TransactionManager
	mail      mailer.Mailer
	jwtSecret []byte
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	auditRepo repository.AuditRepository,
	branches repository.BranchRepository,
	txManager repository.TransactionManager,
	mail mailer.Mailer,
	jwtSecret []byte,
) UserService {
	return &userService{
		repo:      repo,
		tokenRepo: tokenRepo,
		auditRepo: auditRepo,
		branches:  branches,
		txManager: txManager,
		mail:      mail,
		jwtSecret: jwtSecret,
	}
}

func validRole(role string) bool {
	return role == model.RoleOwner || role == model.RoleAdmin || role == model.RoleCoach
}

func mapUserToResponse(user *model.User) *UserResponse {
	resp := &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Mobile:    user.Mobile,
		Role:      user.Role,
		BranchID:  user.BranchID,
		Active:    user.Active,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
	if user.LastLoginAt != nil {
		resp.LastLoginAt = user.LastLoginAt.Format(time.RFC3339)
	}
	return resp
}

// --- Authentication ---

func (s *userService) Login(ctx context.Context, req LoginRequest, ip string) (*TokenResponse, error) {
	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil || !user.Active || !password.Verify(req.Password, user.Credential) {
		s.auditLoginFailure(ctx, req.Username, ip)
		return nil, apperr.Permission("invalid username or password")
	}

	now := time.Now()
	if err := s.repo.RecordLogin(ctx, user.ID, now); err != nil {
		log.Println("WARNING: failed to record last login:", err)
	}

	refresh, err := s.issueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	access, err := s.signAccessToken(user)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "failed to generate token", err)
	}

	s.audit(ctx, &user.ID, model.ActionLogin, user.ID.String(), user.Username, ip, map[string]interface{}{
		"username": user.Username,
	})

	return &TokenResponse{Token: access, RefreshToken: refresh}, nil
}

func (s *userService) RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error) {
	stored, err := s.tokenRepo.GetByToken(ctx, req.RefreshToken)
	if err != nil || time.Now().After(stored.ExpiresAt) {
		return nil, apperr.Permission("invalid or expired refresh token")
	}

	user, err := s.repo.GetByID(ctx, stored.UserID)
	if err != nil || !user.Active {
		return nil, apperr.Permission("account is no longer active")
	}

	// Rotate: old token out, new token in.
	if err := s.tokenRepo.Delete(ctx, req.RefreshToken); err != nil {
		return nil, apperr.Persistence(err)
	}
	refresh, err := s.issueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	access, err := s.signAccessToken(user)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "failed to generate token", err)
	}

	return &TokenResponse{Token: access, RefreshToken: refresh}, nil
}

// Logout is idempotent: an unknown or already-revoked token is not an
// error, it just leaves no audit trace.
func (s *userService) Logout(ctx context.Context, refreshToken, ip string) error {
	if refreshToken == "" {
		return nil
	}
	stored, err := s.tokenRepo.GetByToken(ctx, refreshToken)
	if err != nil {
		return nil
	}
	if err := s.tokenRepo.Delete(ctx, refreshToken); err != nil {
		return apperr.Persistence(err)
	}
	if user, uErr := s.repo.GetByID(ctx, stored.UserID); uErr == nil {
		s.audit(ctx, &user.ID, model.ActionLogout, user.ID.String(), user.Username, ip, map[string]interface{}{
			"username": user.Username,
		})
	}
	return nil
}

func (s *userService) signAccessToken(user *model.User) (string, error) {
	branch := ""
	if user.BranchID != nil {
		branch = user.BranchID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    user.ID.String(),
		"role":   user.Role,
		"branch": branch,
		"exp":    time.Now().Add(accessTokenTTL).Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

func (s *userService) issueRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)
	err := s.tokenRepo.Create(ctx, &model.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	})
	return token, err
}

// --- CRUD ---

func (s *userService) CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error) {
	if !validRole(req.Role) {
		return nil, apperr.Validation("invalid role: must be owner, admin, or coach")
	}
	if err := s.checkActorMayManage(actor, req.Role); err != nil {
		return nil, err
	}

	if err := validate.Username(req.Username); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := validate.Email(req.Email); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := validate.Name(req.FirstName); err != nil {
		return nil, apperr.Validation("first name: " + err.Error())
	}
	if err := validate.Name(req.LastName); err != nil {
		return nil, apperr.Validation("last name: " + err.Error())
	}

	mobile := ""
	if req.Mobile != "" {
		mobile = validate.NormalizeMobile(req.Mobile)
		if err := validate.Mobile(mobile); err != nil {
			return nil, apperr.Validation(err.Error())
		}
	}

	if err := password.ValidateComplexity(req.Password); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	branchID, err := s.resolveBranchForRole(ctx, actor, req.Role, req.BranchID)
	if err != nil {
		return nil, err
	}

	// Pre-flight uniqueness checks; the DB unique indexes are the backstop.
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperr.Conflict("username already exists")
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Conflict("email already exists")
	}

	cred, err := password.Hash(req.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "failed to hash password", err)
	}

	user := &model.User{
		Username:   req.Username,
		Email:      req.Email,
		Credential: cred,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Mobile:     mobile,
		Role:       req.Role,
		BranchID:   branchID,
		Active:     true,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, user); createErr != nil {
			return translateStorageErr(createErr, "username or email already exists")
		}
		return s.auditInTx(txCtx, actor, model.ActionCreateUser, user.ID.String(), user.Username, map[string]interface{}{
			"username": user.Username,
			"role":     user.Role,
		})
	})
	if err != nil {
		return nil, err
	}

	return mapUserToResponse(user), nil
}

func (s *userService) UpdateUser(ctx context.Context, actor Actor, id string, req UpdateUserRequest) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid user id")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.NotFound("user not found")
	}

	// Mutating an owner account requires an owner actor.
	if err := s.checkActorMayManage(actor, user.Role); err != nil {
		return nil, err
	}

	if req.Role != "" && req.Role != user.Role {
		if !validRole(req.Role) {
			return nil, apperr.Validation("invalid role: must be owner, admin, or coach")
		}
		if err := s.checkActorMayManage(actor, req.Role); err != nil {
			return nil, err
		}
		user.Role = req.Role
	}

	if req.Email != "" && req.Email != user.Email {
		if err := validate.Email(req.Email); err != nil {
			return nil, apperr.Validation(err.Error())
		}
		if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
			return nil, apperr.Conflict("email already exists")
		}
		user.Email = req.Email
	}

	if req.FirstName != "" {
		if err := validate.Name(req.FirstName); err != nil {
			return nil, apperr.Validation("first name: " + err.Error())
		}
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		if err := validate.Name(req.LastName); err != nil {
			return nil, apperr.Validation("last name: " + err.Error())
		}
		user.LastName = req.LastName
	}

	if req.Mobile != "" {
		mobile := validate.NormalizeMobile(req.Mobile)
		if err := validate.Mobile(mobile); err != nil {
			return nil, apperr.Validation(err.Error())
		}
		user.Mobile = mobile
	}

	// Re-check the branch invariant against the (possibly updated) role.
	// A promotion to owner drops the branch rather than inheriting it; an
	// explicit branch_id on an owner is still rejected below.
	branchRef := req.BranchID
	if branchRef == "" && user.Role != model.RoleOwner && user.BranchID != nil {
		branchRef = user.BranchID.String()
	}
	branchID, err := s.resolveBranchForRole(ctx, actor, user.Role, branchRef)
	if err != nil {
		return nil, err
	}
	user.BranchID = branchID

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.repo.Update(txCtx, user); updateErr != nil {
			return translateStorageErr(updateErr, "email already exists")
		}
		return s.auditInTx(txCtx, actor, model.ActionUpdateUser, user.ID.String(), user.Username, map[string]interface{}{
			"username": user.Username,
			"role":     user.Role,
		})
	})
	if err != nil {
		return nil, err
	}

	return mapUserToResponse(user), nil
}

func (s *userService) DeactivateUser(ctx context.Context, actor Actor, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid user id")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return apperr.NotFound("user not found")
	}
	if err := s.checkActorMayManage(actor, user.Role); err != nil {
		return err
	}
	if actor.ID != nil && *actor.ID == user.ID {
		return apperr.Validation("cannot deactivate your own account")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if dErr := s.repo.Deactivate(txCtx, user.ID); dErr != nil {
			return apperr.Persistence(dErr)
		}
		if dErr := s.tokenRepo.DeleteByUser(txCtx, user.ID); dErr != nil {
			return apperr.Persistence(dErr)
		}
		return s.auditInTx(txCtx, actor, model.ActionDeleteUser, user.ID.String(), user.Username, map[string]interface{}{
			"username": user.Username,
		})
	})
	return err
}

func (s *userService) ResetPassword(ctx context.Context, actor Actor, id string, req ResetPasswordRequest) (*ResetPasswordResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid user id")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.NotFound("user not found")
	}
	if err := s.checkActorMayManage(actor, user.Role); err != nil {
		return nil, err
	}

	newPassword := req.NewPassword
	generated := false
	if newPassword == "" {
		newPassword, err = password.Generate(12)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindPersistence, "failed to generate password", err)
		}
		generated = true
	} else if err := password.ValidateComplexity(newPassword); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	cred, err := password.Hash(newPassword)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "failed to hash password", err)
	}
	user.Credential = cred

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if uErr := s.repo.Update(txCtx, user); uErr != nil {
			return apperr.Persistence(uErr)
		}
		if dErr := s.tokenRepo.DeleteByUser(txCtx, user.ID); dErr != nil {
			return apperr.Persistence(dErr)
		}
		return s.auditInTx(txCtx, actor, model.ActionResetPassword, user.ID.String(), user.Username, map[string]interface{}{
			"username":  user.Username,
			"generated": generated,
		})
	})
	if err != nil {
		return nil, err
	}

	resp := &ResetPasswordResponse{}
	if generated {
		resp.GeneratedPassword = newPassword
	}

	// The credential change stands even if the notification fails; the
	// caller is warned that the side channel did not go through.
	body := fmt.Sprintf("Hello %s,\r\n\r\nYour password was reset by a gym administrator. If you did not request this, contact your branch manager immediately.\r\n", user.FullName())
	if mailErr := s.mail.Send(user.Email, "Your password was reset", body, false); mailErr != nil {
		log.Println("WARNING:", apperr.External("password reset notification failed", mailErr))
		resp.Warning = "password was reset but the notification email could not be sent"
	}

	return resp, nil
}

func (s *userService) GetUserByID(ctx context.Context, actor Actor, id string) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid user id")
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.NotFound("user not found")
	}
	// Branch staff read their own account and their own branch, nothing else.
	if !actor.IsOwner() && !(actor.ID != nil && *actor.ID == user.ID) {
		if user.BranchID == nil || !actor.SameBranch(*user.BranchID) {
			return nil, apperr.Permission("account belongs to another branch")
		}
	}
	return mapUserToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, actor Actor, filter repository.UserFilter, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	// Branch staff only see their own branch.
	if !actor.IsOwner() {
		filter.BranchID = actor.BranchID
	}

	users, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, apperr.Persistence(err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapUserToResponse(&users[i]))
	}

	return responses, total, nil
}

// --- Helpers ---

// checkActorMayManage enforces who may touch which accounts: owners manage
// everyone, admins manage coaches only, coaches manage nobody.
func (s *userService) checkActorMayManage(actor Actor, targetRole string) error {
	switch {
	case actor.IsOwner():
		return nil
	case actor.IsAdmin() && targetRole == model.RoleCoach:
		return nil
	default:
		return apperr.Permission("insufficient permissions to manage this account")
	}
}

// resolveBranchForRole enforces the role/branch invariant: owner accounts
// carry no branch, admin and coach accounts must reference an active one.
func (s *userService) resolveBranchForRole(ctx context.Context, actor Actor, role, branchID string) (*uuid.UUID, error) {
	if role == model.RoleOwner {
		if branchID != "" {
			return nil, apperr.Validation("owner accounts must not be assigned to a branch")
		}
		return nil, nil
	}

	if branchID == "" {
		return nil, apperr.Validation("admin and coach accounts require a branch")
	}
	parsed, err := uuid.Parse(branchID)
	if err != nil {
		return nil, apperr.Validation("invalid branch id")
	}
	branch, err := s.branches.GetByID(ctx, parsed)
	if err != nil {
		return nil, apperr.Validation("branch not found")
	}
	if !branch.Active {
		return nil, apperr.Validation("branch is not active")
	}
	// Admins only place staff in their own branch.
	if actor.IsAdmin() && !actor.SameBranch(branch.ID) {
		return nil, apperr.Permission("cannot assign staff to another branch")
	}
	return &branch.ID, nil
}

func (s *userService) audit(ctx context.Context, actorID *uuid.UUID, action, entityID, entityName, ip string, details map[string]interface{}) {
	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     actorID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
		IPAddress:  ip,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Println("WARNING: failed to write audit log:", err)
	}
}

func (s *userService) auditInTx(txCtx context.Context, actor Actor, action, entityID, entityName string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     actor.ID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
		IPAddress:  actor.IP,
	}
	if err := s.auditRepo.Log(txCtx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *userService) auditLoginFailure(ctx context.Context, username, ip string) {
	s.audit(ctx, nil, model.ActionLoginFailed, "", username, ip, map[string]interface{}{
		"username": username,
	})
}

// translateStorageErr maps a duplicate-key violation (the storage-level
// uniqueness backstop firing) to a conflict and everything else to a
// persistence failure.
func translateStorageErr(err error, conflictMsg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(conflictMsg)
	}
	return apperr.Persistence(err)
}
