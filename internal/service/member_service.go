package service

import (
	"backend/internal/csvio"
	"backend/internal/mailer"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"
	"backend/pkg/apperr"
	"backend/pkg/period"
	"backend/pkg/validate"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	randomIDMin   = 10000000
	randomIDMax   = 99999999
	maxIDAttempts = 10
	dateLayout    = "2006-01-02"
)

type CreateMemberRequest struct {
	FirstName   string   `json:"first_name" binding:"required"`
	LastName    string   `json:"last_name" binding:"required"`
	Mobile      string   `json:"mobile" binding:"required"`
	Email       string   `json:"email"`
	Gender      string   `json:"gender"`
	DateOfBirth string   `json:"date_of_birth"` // YYYY-MM-DD
	HeightCm    *float64 `json:"height_cm"`
	WeightKg    *float64 `json:"weight_kg"`
	Payment     string   `json:"payment" binding:"required"` // decimal string
	StartDate   string   `json:"start_date"`                 // YYYY-MM-DD, defaults to today
	BranchID    string   `json:"branch_id" binding:"required"`
	CoachID     string   `json:"coach_id"`
	Notes       string   `json:"notes"`
}

type UpdateMemberRequest struct {
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Mobile      string   `json:"mobile"`
	Email       string   `json:"email"`
	Gender      string   `json:"gender"`
	DateOfBirth string   `json:"date_of_birth"`
	HeightCm    *float64 `json:"height_cm"`
	WeightKg    *float64 `json:"weight_kg"`
	Payment     string   `json:"payment"`
	StartDate   string   `json:"start_date"`
	CoachID     string   `json:"coach_id"`
	Notes       string   `json:"notes"`
}

type RenewMembershipRequest struct {
	Payment string `json:"payment" binding:"required"`
}

type MemberResponse struct {
	ID          uuid.UUID  `json:"id"`
	RandomID    int        `json:"random_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Mobile      string     `json:"mobile"`
	Email       string     `json:"email,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	DateOfBirth string     `json:"date_of_birth,omitempty"`
	HeightCm    *float64   `json:"height_cm,omitempty"`
	WeightKg    *float64   `json:"weight_kg,omitempty"`
	Payment     string     `json:"payment"`
	StartDate   string     `json:"start_date"`
	Period      string     `json:"period"`
	EndDate     string     `json:"end_date"`
	Status      string     `json:"status"`
	BranchID    uuid.UUID  `json:"branch_id"`
	CoachID     *uuid.UUID `json:"coach_id,omitempty"`
	Active      bool       `json:"active"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
}

// MemberListFilter is the handler-facing filter for member listings.
type MemberListFilter struct {
	BranchID string
	CoachID  string
	Status   string // active | expired | inactive
}

// ImportResult summarizes a CSV bulk load: good lines became members, bad
// lines are reported individually, the batch never aborts as a whole.
type ImportResult struct {
	Imported int               `json:"imported"`
	Failed   int               `json:"failed"`
	Errors   []csvio.LineError `json:"errors,omitempty"`
}

// EventPublisher pushes dashboard events; satisfied by the websocket hub.
type EventPublisher interface {
	Publish(eventType, entityID, entityName, detail string)
}

// MemberService defines the interface for business logic related to members
type MemberService interface {
	CreateMember(ctx context.Context, actor Actor, req CreateMemberRequest) (*MemberResponse, error)
	UpdateMember(ctx context.Context, actor Actor, id string, req UpdateMemberRequest) (*MemberResponse, error)
	DeactivateMember(ctx context.Context, actor Actor, id string) error
	RenewMembership(ctx context.Context, actor Actor, id string, req RenewMembershipRequest) (*MemberResponse, error)
	GetMemberByID(ctx context.Context, actor Actor, id string) (*MemberResponse, error)
	GetMemberByRandomID(ctx context.Context, actor Actor, randomID int) (*MemberResponse, error)
	ListMembers(ctx context.Context, actor Actor, filter MemberListFilter, page, limit int) ([]MemberResponse, int64, error)
	ExportCSV(ctx context.Context, actor Actor, w io.Writer) error
	ImportCSV(ctx context.Context, actor Actor, r io.Reader) (*ImportResult, error)
}

type memberService struct {
	repo      repository.MemberRepository
	users     repository.UserRepository
	branches  repository.BranchRepository
	settings  repository.SettingRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	mail      mailer.Mailer
	events    EventPublisher

	// randomID is injectable so the retry bound is testable.
	randomID func() (int, error)
}

// NewMemberService returns a new instance of MemberService
func NewMemberService(
	repo repository.MemberRepository,
	users repository.UserRepository,
	branches repository.BranchRepository,
	settings repository.SettingRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	mail mailer.Mailer,
	events EventPublisher,
) MemberService {
	return &memberService{
		repo:      repo,
		users:     users,
		branches:  branches,
		settings:  settings,
		auditRepo: auditRepo,
		txManager: txManager,
		mail:      mail,
		events:    events,
		randomID:  secureRandomID,
	}
}

func secureRandomID() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(randomIDMax-randomIDMin+1))
	if err != nil {
		return 0, err
	}
	return randomIDMin + int(n.Int64()), nil
}

func mapMemberToResponse(m *model.Member) *MemberResponse {
	resp := &MemberResponse{
		ID:        m.ID,
		RandomID:  m.RandomID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Mobile:    m.Mobile,
		Email:     m.Email,
		Gender:    m.Gender,
		HeightCm:  m.HeightCm,
		WeightKg:  m.WeightKg,
		Payment:   m.Payment.StringFixed(2),
		StartDate: m.StartDate.Format(dateLayout),
		Period:    m.Period,
		EndDate:   m.EndDate.Format(dateLayout),
		Status:    m.Status(time.Now()),
		BranchID:  m.BranchID,
		CoachID:   m.CoachID,
		Active:    m.Active,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
		UpdatedAt: m.UpdatedAt.Format(time.RFC3339),
	}
	if m.DateOfBirth != nil {
		resp.DateOfBirth = m.DateOfBirth.Format(dateLayout)
	}
	return resp
}

// --- Create ---

func (s *memberService) CreateMember(ctx context.Context, actor Actor, req CreateMemberRequest) (*MemberResponse, error) {
	if err := validate.Name(req.FirstName); err != nil {
		return nil, apperr.Validation("first name: " + err.Error())
	}
	if err := validate.Name(req.LastName); err != nil {
		return nil, apperr.Validation("last name: " + err.Error())
	}

	mobile := validate.NormalizeMobile(req.Mobile)
	if err := validate.Mobile(mobile); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if req.Email != "" {
		if err := validate.Email(req.Email); err != nil {
			return nil, apperr.Validation(err.Error())
		}
	}
	if req.Gender != "" && req.Gender != "male" && req.Gender != "female" {
		return nil, apperr.Validation("gender must be male or female")
	}

	payment, err := decimal.NewFromString(req.Payment)
	if err != nil || payment.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.Validation("payment must be a positive amount")
	}

	startDate := truncateDay(time.Now())
	if req.StartDate != "" {
		startDate, err = time.Parse(dateLayout, req.StartDate)
		if err != nil {
			return nil, apperr.Validation("invalid start_date: expected YYYY-MM-DD")
		}
	}

	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, dErr := time.Parse(dateLayout, req.DateOfBirth)
		if dErr != nil {
			return nil, apperr.Validation("invalid date_of_birth: expected YYYY-MM-DD")
		}
		if parsed.After(time.Now()) {
			return nil, apperr.Validation("date_of_birth cannot be in the future")
		}
		dob = &parsed
	}

	branch, err := s.resolveMemberBranch(ctx, actor, req.BranchID)
	if err != nil {
		return nil, err
	}

	coachID, err := s.resolveCoach(ctx, req.CoachID, branch.ID)
	if err != nil {
		return nil, err
	}

	// Pre-flight mobile uniqueness on the normalized form; the unique
	// index is the backstop.
	if _, err := s.repo.GetByMobile(ctx, mobile); err == nil {
		return nil, apperr.Conflict("a member with this mobile number already exists")
	}

	monthlyPrice, err := s.monthlyPrice(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := period.Compute(payment, monthlyPrice, startDate)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	randomID, err := s.allocateRandomID(ctx)
	if err != nil {
		return nil, err
	}

	member := &model.Member{
		RandomID:    randomID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Mobile:      mobile,
		Email:       req.Email,
		Gender:      req.Gender,
		DateOfBirth: dob,
		HeightCm:    req.HeightCm,
		WeightKg:    req.WeightKg,
		Payment:     payment,
		StartDate:   startDate,
		Period:      plan.Label,
		EndDate:     plan.EndDate,
		CoachID:     coachID,
		BranchID:    branch.ID,
		Active:      true,
		Notes:       req.Notes,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, member); createErr != nil {
			return translateStorageErr(createErr, "a member with this mobile number already exists")
		}
		return s.auditMember(txCtx, actor, model.ActionCreateMember, member, map[string]interface{}{
			"random_id": member.RandomID,
			"mobile":    member.Mobile,
			"payment":   member.Payment.StringFixed(2),
			"period":    member.Period,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Publish(websocket.EventMemberEnrolled, member.ID.String(), member.FirstName+" "+member.LastName, member.Period)
	}

	// Welcome mail off the request path; a failure is logged, never surfaced.
	if member.Email != "" {
		go s.sendWelcomeEmail(member)
	}

	return mapMemberToResponse(member), nil
}

func (s *memberService) sendWelcomeEmail(member *model.Member) {
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nWelcome to the gym! Your member ID is %d and your current membership (%s) runs until %s.\r\n",
		member.FirstName, member.RandomID, member.Period, member.EndDate.Format(dateLayout),
	)
	if err := s.mail.Send(member.Email, "Welcome to the gym", body, false); err != nil {
		log.Println("WARNING:", apperr.External("welcome email failed", err))
	}
}

// allocateRandomID is an optimistic generate-and-check loop. It gives up
// after maxIDAttempts collisions; the unique index on random_id catches
// the race between check and insert.
func (s *memberService) allocateRandomID(ctx context.Context) (int, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.randomID()
		if err != nil {
			return 0, apperr.Wrap(apperr.KindPersistence, "failed to generate member id", err)
		}
		exists, err := s.repo.ExistsByRandomID(ctx, id)
		if err != nil {
			return 0, apperr.Persistence(err)
		}
		if !exists {
			return id, nil
		}
	}
	return 0, apperr.New(apperr.KindPersistence, "could not allocate a unique member id")
}

// --- Update / lifecycle ---

func (s *memberService) UpdateMember(ctx context.Context, actor Actor, id string, req UpdateMemberRequest) (*MemberResponse, error) {
	member, err := s.loadScopedMember(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != "" {
		if err := validate.Name(req.FirstName); err != nil {
			return nil, apperr.Validation("first name: " + err.Error())
		}
		member.FirstName = req.FirstName
	}
	if req.LastName != "" {
		if err := validate.Name(req.LastName); err != nil {
			return nil, apperr.Validation("last name: " + err.Error())
		}
		member.LastName = req.LastName
	}

	if req.Mobile != "" {
		mobile := validate.NormalizeMobile(req.Mobile)
		if err := validate.Mobile(mobile); err != nil {
			return nil, apperr.Validation(err.Error())
		}
		if mobile != member.Mobile {
			if _, err := s.repo.GetByMobile(ctx, mobile); err == nil {
				return nil, apperr.Conflict("a member with this mobile number already exists")
			}
			member.Mobile = mobile
		}
	}

	if req.Email != "" {
		if err := validate.Email(req.Email); err != nil {
			return nil, apperr.Validation(err.Error())
		}
		member.Email = req.Email
	}
	if req.Gender != "" {
		if req.Gender != "male" && req.Gender != "female" {
			return nil, apperr.Validation("gender must be male or female")
		}
		member.Gender = req.Gender
	}
	if req.DateOfBirth != "" {
		parsed, dErr := time.Parse(dateLayout, req.DateOfBirth)
		if dErr != nil {
			return nil, apperr.Validation("invalid date_of_birth: expected YYYY-MM-DD")
		}
		member.DateOfBirth = &parsed
	}
	if req.HeightCm != nil {
		member.HeightCm = req.HeightCm
	}
	if req.WeightKg != nil {
		member.WeightKg = req.WeightKg
	}
	if req.Notes != "" {
		member.Notes = req.Notes
	}

	if req.CoachID != "" {
		coachID, cErr := s.resolveCoach(ctx, req.CoachID, member.BranchID)
		if cErr != nil {
			return nil, cErr
		}
		member.CoachID = coachID
	}

	// Payment or start-date changes re-derive period and end date together.
	paymentChanged := false
	if req.Payment != "" {
		payment, pErr := decimal.NewFromString(req.Payment)
		if pErr != nil || payment.LessThanOrEqual(decimal.Zero) {
			return nil, apperr.Validation("payment must be a positive amount")
		}
		member.Payment = payment
		paymentChanged = true
	}
	if req.StartDate != "" {
		startDate, sErr := time.Parse(dateLayout, req.StartDate)
		if sErr != nil {
			return nil, apperr.Validation("invalid start_date: expected YYYY-MM-DD")
		}
		member.StartDate = startDate
		paymentChanged = true
	}
	if paymentChanged {
		monthlyPrice, mpErr := s.monthlyPrice(ctx)
		if mpErr != nil {
			return nil, mpErr
		}
		plan, pErr := period.Compute(member.Payment, monthlyPrice, member.StartDate)
		if pErr != nil {
			return nil, apperr.Validation(pErr.Error())
		}
		member.Period = plan.Label
		member.EndDate = plan.EndDate
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.repo.Update(txCtx, member); updateErr != nil {
			return translateStorageErr(updateErr, "a member with this mobile number already exists")
		}
		return s.auditMember(txCtx, actor, model.ActionUpdateMember, member, map[string]interface{}{
			"mobile": member.Mobile,
			"period": member.Period,
		})
	})
	if err != nil {
		return nil, err
	}

	return mapMemberToResponse(member), nil
}

func (s *memberService) DeactivateMember(ctx context.Context, actor Actor, id string) error {
	member, err := s.loadScopedMember(ctx, actor, id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if dErr := s.repo.Deactivate(txCtx, member.ID); dErr != nil {
			return apperr.Persistence(dErr)
		}
		return s.auditMember(txCtx, actor, model.ActionDeleteMember, member, map[string]interface{}{
			"random_id": member.RandomID,
		})
	})
}

// RenewMembership starts the new period at the current end date when the
// membership is still running, otherwise at today.
func (s *memberService) RenewMembership(ctx context.Context, actor Actor, id string, req RenewMembershipRequest) (*MemberResponse, error) {
	member, err := s.loadScopedMember(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !member.Active {
		return nil, apperr.Validation("cannot renew an inactive member")
	}

	payment, err := decimal.NewFromString(req.Payment)
	if err != nil || payment.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.Validation("payment must be a positive amount")
	}

	start := truncateDay(time.Now())
	if member.EndDate.After(start) {
		start = member.EndDate
	}

	monthlyPrice, err := s.monthlyPrice(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := period.Compute(payment, monthlyPrice, start)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	member.Payment = payment
	member.StartDate = start
	member.Period = plan.Label
	member.EndDate = plan.EndDate

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.repo.Update(txCtx, member); updateErr != nil {
			return apperr.Persistence(updateErr)
		}
		return s.auditMember(txCtx, actor, model.ActionRenewMember, member, map[string]interface{}{
			"payment": payment.StringFixed(2),
			"period":  plan.Label,
			"end":     plan.EndDate.Format(dateLayout),
		})
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Publish(websocket.EventMemberRenewed, member.ID.String(), member.FirstName+" "+member.LastName, member.Period)
	}

	return mapMemberToResponse(member), nil
}

// --- Reads ---

func (s *memberService) GetMemberByID(ctx context.Context, actor Actor, id string) (*MemberResponse, error) {
	member, err := s.loadScopedMember(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return mapMemberToResponse(member), nil
}

func (s *memberService) GetMemberByRandomID(ctx context.Context, actor Actor, randomID int) (*MemberResponse, error) {
	member, err := s.repo.GetByRandomID(ctx, randomID)
	if err != nil {
		return nil, apperr.NotFound("member not found")
	}
	if err := scopeMember(actor, member); err != nil {
		return nil, err
	}
	return mapMemberToResponse(member), nil
}

func (s *memberService) ListMembers(ctx context.Context, actor Actor, filter MemberListFilter, page, limit int) ([]MemberResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	repoFilter, err := s.buildFilter(actor, filter)
	if err != nil {
		return nil, 0, err
	}

	members, total, err := s.repo.List(ctx, repoFilter, page, limit)
	if err != nil {
		return nil, 0, apperr.Persistence(err)
	}

	responses := make([]MemberResponse, 0, len(members))
	for i := range members {
		responses = append(responses, *mapMemberToResponse(&members[i]))
	}
	return responses, total, nil
}

func (s *memberService) buildFilter(actor Actor, filter MemberListFilter) (repository.MemberFilter, error) {
	var repoFilter repository.MemberFilter

	if filter.BranchID != "" {
		parsed, err := uuid.Parse(filter.BranchID)
		if err != nil {
			return repoFilter, apperr.Validation("invalid branch id")
		}
		repoFilter.BranchID = &parsed
	}
	if filter.CoachID != "" {
		parsed, err := uuid.Parse(filter.CoachID)
		if err != nil {
			return repoFilter, apperr.Validation("invalid coach id")
		}
		repoFilter.CoachID = &parsed
	}

	// Scope non-owners: admins see their branch, coaches only their own members.
	if actor.IsAdmin() {
		repoFilter.BranchID = actor.BranchID
	}
	if actor.IsCoach() {
		repoFilter.BranchID = actor.BranchID
		repoFilter.CoachID = actor.ID
	}

	today := truncateDay(time.Now())
	switch filter.Status {
	case "":
	case model.StatusActive:
		repoFilter.ActiveOnly = true
		repoFilter.ExpiringAfter = &today
	case model.StatusExpired:
		repoFilter.ActiveOnly = true
		repoFilter.ExpiringBefore = &today
	case model.StatusInactive:
		repoFilter.InactiveOnly = true
	default:
		return repoFilter, apperr.Validation("status must be active, expired, or inactive")
	}

	return repoFilter, nil
}

// --- CSV interchange ---

func (s *memberService) ExportCSV(ctx context.Context, actor Actor, w io.Writer) error {
	repoFilter, err := s.buildFilter(actor, MemberListFilter{})
	if err != nil {
		return err
	}

	members, err := s.repo.ListAll(ctx, repoFilter)
	if err != nil {
		return apperr.Persistence(err)
	}

	branchNames := map[uuid.UUID]string{}
	coachNames := map[uuid.UUID]string{}
	now := time.Now()

	rows := make([]csvio.MemberRow, 0, len(members))
	for i := range members {
		m := &members[i]
		row := csvio.MemberRow{
			RandomID:  fmt.Sprintf("%d", m.RandomID),
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Mobile:    m.Mobile,
			Email:     m.Email,
			Gender:    m.Gender,
			Payment:   m.Payment.StringFixed(2),
			StartDate: m.StartDate.Format(dateLayout),
			Period:    m.Period,
			EndDate:   m.EndDate.Format(dateLayout),
			Status:    m.Status(now),
			Notes:     m.Notes,
		}
		if m.DateOfBirth != nil {
			row.DateOfBirth = m.DateOfBirth.Format(dateLayout)
		}

		if name, ok := branchNames[m.BranchID]; ok {
			row.Branch = name
		} else if branch, bErr := s.branches.GetByID(ctx, m.BranchID); bErr == nil {
			branchNames[m.BranchID] = branch.Name
			row.Branch = branch.Name
		}
		if m.CoachID != nil {
			if name, ok := coachNames[*m.CoachID]; ok {
				row.Coach = name
			} else if coach, cErr := s.users.GetByID(ctx, *m.CoachID); cErr == nil {
				coachNames[*m.CoachID] = coach.Username
				row.Coach = coach.Username
			}
		}

		rows = append(rows, row)
	}

	if err := csvio.WriteMembers(w, rows); err != nil {
		return apperr.Wrap(apperr.KindPersistence, "csv export failed", err)
	}
	return nil
}

func (s *memberService) ImportCSV(ctx context.Context, actor Actor, r io.Reader) (*ImportResult, error) {
	records, lineErrors, err := csvio.ReadMembers(r)
	if err != nil {
		return nil, apperr.Validation("could not parse CSV file: " + err.Error())
	}

	result := &ImportResult{Errors: lineErrors}

	for _, rec := range records {
		req, buildErr := s.buildImportRequest(ctx, rec)
		if buildErr != nil {
			result.Errors = append(result.Errors, csvio.LineError{Line: rec.Line, Err: buildErr.Error()})
			continue
		}
		if _, createErr := s.CreateMember(ctx, actor, req); createErr != nil {
			result.Errors = append(result.Errors, csvio.LineError{Line: rec.Line, Err: createErr.Error()})
			continue
		}
		result.Imported++
	}
	result.Failed = len(result.Errors)

	s.auditImport(ctx, actor, result)
	return result, nil
}

func (s *memberService) buildImportRequest(ctx context.Context, rec csvio.ImportRecord) (CreateMemberRequest, error) {
	var req CreateMemberRequest

	branch, err := s.branches.GetByName(ctx, rec.Branch)
	if err != nil {
		return req, fmt.Errorf("unknown branch %q", rec.Branch)
	}

	coachID := ""
	if rec.Coach != "" {
		coach, cErr := s.users.GetByUsername(ctx, rec.Coach)
		if cErr != nil {
			return req, fmt.Errorf("unknown coach %q", rec.Coach)
		}
		coachID = coach.ID.String()
	}

	return CreateMemberRequest{
		FirstName:   rec.FirstName,
		LastName:    rec.LastName,
		Mobile:      rec.Mobile,
		Email:       rec.Email,
		Gender:      rec.Gender,
		DateOfBirth: rec.DateOfBirth,
		Payment:     rec.Payment,
		StartDate:   rec.StartDate,
		BranchID:    branch.ID.String(),
		CoachID:     coachID,
		Notes:       rec.Notes,
	}, nil
}

func (s *memberService) auditImport(ctx context.Context, actor Actor, result *ImportResult) {
	details, _ := json.Marshal(map[string]interface{}{
		"imported": result.Imported,
		"failed":   result.Failed,
	})
	entry := &model.AuditLog{
		UserID:    actor.ID,
		Action:    model.ActionImportMembers,
		Details:   string(details),
		IPAddress: actor.IP,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Println("WARNING: failed to write audit log:", err)
	}
}

// --- Helpers ---

// scopeMember enforces branch/coach visibility on the actor: admins stay
// inside their branch, coaches inside their assigned members. Every read
// and mutation of a single member goes through this.
func scopeMember(actor Actor, member *model.Member) error {
	if !actor.SameBranch(member.BranchID) {
		return apperr.Permission("member belongs to another branch")
	}
	if actor.IsCoach() {
		if member.CoachID == nil || actor.ID == nil || *member.CoachID != *actor.ID {
			return apperr.Permission("member is not assigned to you")
		}
	}
	return nil
}

// loadScopedMember fetches a member and applies scopeMember.
func (s *memberService) loadScopedMember(ctx context.Context, actor Actor, id string) (*model.Member, error) {
	memberID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid member id")
	}
	member, err := s.repo.GetByID(ctx, memberID)
	if err != nil {
		return nil, apperr.NotFound("member not found")
	}
	if err := scopeMember(actor, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *memberService) resolveMemberBranch(ctx context.Context, actor Actor, branchID string) (*model.Branch, error) {
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
	if !actor.SameBranch(branch.ID) {
		return nil, apperr.Permission("cannot enroll members into another branch")
	}
	return branch, nil
}

// resolveCoach checks the referenced user is an active coach of the same
// branch as the member.
func (s *memberService) resolveCoach(ctx context.Context, coachID string, branchID uuid.UUID) (*uuid.UUID, error) {
	if coachID == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(coachID)
	if err != nil {
		return nil, apperr.Validation("invalid coach id")
	}
	coach, err := s.users.GetByID(ctx, parsed)
	if err != nil {
		return nil, apperr.Validation("coach not found")
	}
	if coach.Role != model.RoleCoach || !coach.Active {
		return nil, apperr.Validation("assigned user is not an active coach")
	}
	if coach.BranchID == nil || *coach.BranchID != branchID {
		return nil, apperr.Validation("coach belongs to a different branch")
	}
	return &coach.ID, nil
}

func (s *memberService) monthlyPrice(ctx context.Context) (decimal.Decimal, error) {
	setting, err := s.settings.Get(ctx, model.SettingMonthlyPrice)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.NewFromString(model.DefaultMonthlyPrice)
		}
		return decimal.Zero, apperr.Persistence(err)
	}
	price, err := decimal.NewFromString(setting.Value)
	if err != nil || price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, apperr.New(apperr.KindPersistence, "monthly price setting is invalid")
	}
	return price, nil
}

func (s *memberService) auditMember(txCtx context.Context, actor Actor, action string, member *model.Member, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     actor.ID,
		Action:     action,
		EntityID:   member.ID.String(),
		EntityName: member.FirstName + " " + member.LastName,
		Details:    string(payload),
		IPAddress:  actor.IP,
	}
	if err := s.auditRepo.Log(txCtx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
