package period

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeWholeMonth(t *testing.T) {
	plan, err := Compute(decimal.RequireFromString("150.00"), decimal.RequireFromString("150.00"), date(2025, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, "1 month", plan.Label)
	assert.Equal(t, date(2025, time.February, 1), plan.EndDate)
}

func TestComputePartialMonthInDays(t *testing.T) {
	plan, err := Compute(decimal.RequireFromString("75.00"), decimal.RequireFromString("150.00"), date(2025, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, "15 days", plan.Label)
	assert.Equal(t, date(2025, time.January, 16), plan.EndDate)
}

func TestComputeMultipleMonths(t *testing.T) {
	plan, err := Compute(decimal.RequireFromString("450.00"), decimal.RequireFromString("150.00"), date(2025, time.January, 15))
	require.NoError(t, err)
	assert.Equal(t, "3 months", plan.Label)
	assert.Equal(t, date(2025, time.April, 15), plan.EndDate)
}

func TestComputeTruncatesFractionAboveOneMonth(t *testing.T) {
	// 1.5 months truncates to 1 whole month.
	plan, err := Compute(decimal.RequireFromString("225.00"), decimal.RequireFromString("150.00"), date(2025, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, "1 month", plan.Label)
	assert.Equal(t, date(2025, time.April, 10), plan.EndDate)
}

func TestComputeSingleDay(t *testing.T) {
	// 5/150 = 0.03 (rounded) -> floor(0.03*30) = 0 days, rejected.
	_, err := Compute(decimal.RequireFromString("1.00"), decimal.RequireFromString("150.00"), date(2025, time.January, 1))
	assert.Error(t, err)

	// 10/150 = 0.07 -> floor(2.1) = 2 days.
	plan, err := Compute(decimal.RequireFromString("10.00"), decimal.RequireFromString("150.00"), date(2025, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, "2 days", plan.Label)
	assert.Equal(t, date(2025, time.January, 3), plan.EndDate)
}

func TestComputeRejectsNonPositiveInputs(t *testing.T) {
	_, err := Compute(decimal.Zero, decimal.RequireFromString("150.00"), date(2025, time.January, 1))
	assert.Error(t, err)
	_, err = Compute(decimal.RequireFromString("150.00"), decimal.Zero, date(2025, time.January, 1))
	assert.Error(t, err)
	_, err = Compute(decimal.RequireFromString("-10"), decimal.RequireFromString("150.00"), date(2025, time.January, 1))
	assert.Error(t, err)
}

// The label and the end date must describe the same duration: re-deriving
// the end date from the label always lands on plan.EndDate.
func TestLabelAndEndDateAgree(t *testing.T) {
	price := decimal.RequireFromString("150.00")
	start := date(2025, time.January, 1)

	for cents := int64(1000); cents <= 60000; cents += 731 {
		payment := decimal.New(cents, -2)
		plan, err := Compute(payment, price, start)
		if err != nil {
			continue
		}

		var n int
		var unit string
		_, scanErr := fmt.Sscanf(plan.Label, "%d %s", &n, &unit)
		require.NoError(t, scanErr, "label %q", plan.Label)

		var expected time.Time
		switch unit {
		case "day", "days":
			expected = start.AddDate(0, 0, n)
		case "month", "months":
			expected = start.AddDate(0, n, 0)
		default:
			t.Fatalf("unexpected unit in label %q", plan.Label)
		}
		assert.Equal(t, expected, plan.EndDate, "payment %s label %q", payment, plan.Label)
	}
}
