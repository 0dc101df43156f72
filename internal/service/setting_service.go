package service

import (
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MonthlyPriceResponse struct {
	MonthlyPrice string `json:"monthly_price"`
}

type UpdateMonthlyPriceRequest struct {
	MonthlyPrice string `json:"monthly_price" binding:"required"`
}

// SettingService manages chain-wide settings such as the monthly price.
type SettingService interface {
	GetMonthlyPrice(ctx context.Context) (*MonthlyPriceResponse, error)
	UpdateMonthlyPrice(ctx context.Context, actor Actor, req UpdateMonthlyPriceRequest) (*MonthlyPriceResponse, error)
}

type settingService struct {
	repo      repository.SettingRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewSettingService(
	repo repository.SettingRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) SettingService {
	return &settingService{repo: repo, auditRepo: auditRepo, txManager: txManager}
}

func (s *settingService) GetMonthlyPrice(ctx context.Context) (*MonthlyPriceResponse, error) {
	setting, err := s.repo.Get(ctx, model.SettingMonthlyPrice)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &MonthlyPriceResponse{MonthlyPrice: model.DefaultMonthlyPrice}, nil
		}
		return nil, apperr.Persistence(err)
	}
	return &MonthlyPriceResponse{MonthlyPrice: setting.Value}, nil
}

func (s *settingService) UpdateMonthlyPrice(ctx context.Context, actor Actor, req UpdateMonthlyPriceRequest) (*MonthlyPriceResponse, error) {
	if !actor.IsOwner() {
		return nil, apperr.Permission("only the owner can change the monthly price")
	}

	price, err := decimal.NewFromString(req.MonthlyPrice)
	if err != nil || price.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.Validation("monthly price must be a positive amount")
	}
	value := price.StringFixed(2)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if setErr := s.repo.Set(txCtx, model.SettingMonthlyPrice, value); setErr != nil {
			return apperr.Persistence(setErr)
		}
		details, _ := json.Marshal(map[string]interface{}{"monthly_price": value})
		entry := &model.AuditLog{
			UserID:     actor.ID,
			Action:     model.ActionUpdateSetting,
			EntityID:   model.SettingMonthlyPrice,
			EntityName: model.SettingMonthlyPrice,
			Details:    string(details),
			IPAddress:  actor.IP,
		}
		if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &MonthlyPriceResponse{MonthlyPrice: value}, nil
}
