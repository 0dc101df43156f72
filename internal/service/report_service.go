package service

import (
	"backend/internal/model"
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BranchCount struct {
	BranchID   string `json:"branch_id"`
	BranchName string `json:"branch_name"`
	Count      int64  `json:"count"`
}

type MonthlyCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int64  `json:"count"`
}

type MonthlyRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

type MembershipReport struct {
	TotalMembers    int64            `json:"total_members"`
	ActiveMembers   int64            `json:"active_members"`
	ExpiredMembers  int64            `json:"expired_members"`
	InactiveMembers int64            `json:"inactive_members"`
	PerBranch       []BranchCount    `json:"per_branch"`
	Enrollments     []MonthlyCount   `json:"enrollments_per_month"`
	Revenue         []MonthlyRevenue `json:"revenue_per_month"`
}

type ExpiringMember struct {
	ID        string `json:"id"`
	RandomID  int    `json:"random_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Mobile    string `json:"mobile"`
	EndDate   string `json:"end_date"`
}

// ReportService aggregates membership and revenue figures for dashboards.
type ReportService interface {
	MembershipReport(ctx context.Context, from, to time.Time) (MembershipReport, error)
	ExpiringWithin(ctx context.Context, days int) ([]ExpiringMember, error)
}

type reportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) ReportService {
	return &reportService{db: db}
}

// MembershipReport computes the headline counts plus per-branch and
// per-month breakdowns over the given enrollment window.
func (s *reportService) MembershipReport(ctx context.Context, from, to time.Time) (MembershipReport, error) {
	var report MembershipReport
	today := time.Now()

	db := s.db.WithContext(ctx)

	if err := db.Model(&model.Member{}).Count(&report.TotalMembers).Error; err != nil {
		return report, err
	}
	if err := db.Model(&model.Member{}).
		Where("active = ? AND end_date >= ?", true, today).
		Count(&report.ActiveMembers).Error; err != nil {
		return report, err
	}
	if err := db.Model(&model.Member{}).
		Where("active = ? AND end_date < ?", true, today).
		Count(&report.ExpiredMembers).Error; err != nil {
		return report, err
	}
	if err := db.Model(&model.Member{}).
		Where("active = ?", false).
		Count(&report.InactiveMembers).Error; err != nil {
		return report, err
	}

	var perBranch []BranchCount
	if err := db.Table("members").
		Select("branches.id as branch_id, branches.name as branch_name, COUNT(members.id) as count").
		Joins("JOIN branches ON branches.id = members.branch_id").
		Where("members.active = ?", true).
		Group("branches.id, branches.name").
		Order("count DESC").
		Scan(&perBranch).Error; err != nil {
		return report, err
	}
	report.PerBranch = perBranch

	type monthlyRow struct {
		Month   string
		Count   int64
		Revenue decimal.Decimal
	}
	// Month bucketing differs per dialect; the test suite runs on sqlite.
	monthExpr := "to_char(start_date, 'YYYY-MM')"
	if s.db.Dialector.Name() == "sqlite" {
		monthExpr = "strftime('%Y-%m', start_date)"
	}

	var rows []monthlyRow
	if err := db.Table("members").
		Select(monthExpr + " as month, COUNT(id) as count, SUM(payment) as revenue").
		Where("start_date >= ? AND start_date <= ?", from, to).
		Group("month").
		Order("month asc").
		Scan(&rows).Error; err != nil {
		return report, err
	}
	for _, r := range rows {
		report.Enrollments = append(report.Enrollments, MonthlyCount{Month: r.Month, Count: r.Count})
		report.Revenue = append(report.Revenue, MonthlyRevenue{Month: r.Month, Revenue: r.Revenue})
	}

	return report, nil
}

// ExpiringWithin lists active members whose membership ends inside the
// next N days, soonest first.
func (s *reportService) ExpiringWithin(ctx context.Context, days int) ([]ExpiringMember, error) {
	if days <= 0 {
		days = 7
	}
	now := time.Now()
	cutoff := now.AddDate(0, 0, days)

	var members []model.Member
	if err := s.db.WithContext(ctx).
		Where("active = ? AND end_date >= ? AND end_date <= ?", true, now, cutoff).
		Order("end_date asc").
		Find(&members).Error; err != nil {
		return nil, err
	}

	result := make([]ExpiringMember, 0, len(members))
	for _, m := range members {
		result = append(result, ExpiringMember{
			ID:        m.ID.String(),
			RandomID:  m.RandomID,
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Mobile:    m.Mobile,
			EndDate:   m.EndDate.Format(dateLayout),
		})
	}
	return result, nil
}
