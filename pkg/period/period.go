// Package period turns a payment amount into a membership duration.
package period

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var thirty = decimal.NewFromInt(30)

// Plan is the derived billing period of a membership. Label and EndDate
// come out of a single computation so they can never disagree for the
// same (payment, startDate) pair.
type Plan struct {
	Label   string
	EndDate time.Time
}

// Compute divides the payment by the monthly price, rounds to two decimal
// places half-up, and renders the result either in whole months or, below
// one month, in days at 30 days per month.
func Compute(payment, monthlyPrice decimal.Decimal, start time.Time) (Plan, error) {
	if monthlyPrice.LessThanOrEqual(decimal.Zero) {
		return Plan{}, errors.New("monthly price must be positive")
	}
	if payment.LessThanOrEqual(decimal.Zero) {
		return Plan{}, errors.New("payment must be positive")
	}

	months := payment.Div(monthlyPrice).Round(2)

	if months.LessThan(decimal.NewFromInt(1)) {
		days := int(months.Mul(thirty).IntPart())
		if days < 1 {
			return Plan{}, errors.New("payment is too small for a membership period")
		}
		return Plan{
			Label:   fmt.Sprintf("%d %s", days, pluralize("day", days)),
			EndDate: start.AddDate(0, 0, days),
		}, nil
	}

	whole := int(months.IntPart())
	return Plan{
		Label:   fmt.Sprintf("%d %s", whole, pluralize("month", whole)),
		EndDate: start.AddDate(0, whole, 0),
	}, nil
}

func pluralize(unit string, n int) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
