package reports

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/mmdatafocus/membership_backend/config"
	"github.com/mmdatafocus/membership_backend/models"
	"github.com/mmdatafocus/membership_backend/utils"
	"github.com/shopspring/decimal"
)

const defaultYearlyTarget = 10000000

// AccrualEntryRow is one accrual joined with the invoice fields the report
// buckets on. Flat so it scans straight out of the join.
type AccrualEntryRow struct {
	AccrualMonth     string          `json:"accrual_month"`
	Amount           decimal.Decimal `json:"amount"`
	RenewalType      *string         `json:"renewal_type"`
	BillingCycle     *string         `json:"billing_cycle"`
	CalculationMonth *int            `json:"calculation_month"`
	MemberId         int             `json:"member_id"`
}

type TenureSplit struct {
	OneYear  decimal.Decimal `json:"oneYear"`
	FiveYear decimal.Decimal `json:"fiveYear"`
}

type MonthlyAccrualRow struct {
	Month           string          `json:"month"`
	TotalAccrual    decimal.Decimal `json:"totalAccrual"`
	QuarterlyTenure TenureSplit     `json:"quarterlyTenure"`
	IntakeTenure    TenureSplit     `json:"intakeTenure"`
	RenewalTenure   TenureSplit     `json:"renewalTenure"`
}

type ChartPoint struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

type AccrualReportResponse struct {
	TotalYTD           decimal.Decimal     `json:"totalYTD"`
	CurrentMonth       decimal.Decimal     `json:"currentMonth"`
	CurrentMonthGrowth int                 `json:"currentMonthGrowth"`
	YearlyTarget       decimal.Decimal     `json:"yearlyTarget"`
	MembersWithAccrual int                 `json:"membersWithAccruals"`
	MonthlyData        []MonthlyAccrualRow `json:"monthlyData"`
	ChartData          []ChartPoint        `json:"chartData"`
}

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var shortMonthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// GetAccrualReport loads one calendar year of accrual entries and aggregates
// them. The optional product filter narrows by the invoice's product column.
func GetAccrualReport(ctx context.Context, year int, product string, now time.Time) (*AccrualReportResponse, error) {
	sqlT := `
SELECT
    accruals.accrual_month,
    accruals.amount,
    invoices.renewal_type,
    invoices.billing_cycle,
    invoices.calculation_month,
    invoices.member_id
FROM
    accruals
        JOIN
    invoices ON invoices.id = accruals.invoice_id
WHERE
    accruals.accrual_month BETWEEN @startMonth AND @endMonth
    {{- if .product }} AND invoices.product = @product {{- end }}
`
	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"product": product,
	})
	if err != nil {
		return nil, err
	}

	var entries []AccrualEntryRow
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"startMonth": fmt.Sprintf("%04d-01", year),
		"endMonth":   fmt.Sprintf("%04d-12", year),
		"product":    product,
	}).Scan(&entries).Error; err != nil {
		return nil, err
	}

	return BuildAccrualReport(entries, year, now, yearlyTargetFromEnv()), nil
}

// BuildAccrualReport aggregates one year of entries. Each entry lands in every
// bucket whose predicate it satisfies; buckets overlap, so the headline totals
// are computed independently rather than summed from bucket rows.
func BuildAccrualReport(entries []AccrualEntryRow, year int, now time.Time, yearlyTarget decimal.Decimal) *AccrualReportResponse {
	report := &AccrualReportResponse{
		TotalYTD:     decimal.Zero,
		CurrentMonth: decimal.Zero,
		YearlyTarget: yearlyTarget,
	}

	currentMonthStr := fmt.Sprintf("%04d-%02d", year, int(now.Month()))
	prevMonthStr := fmt.Sprintf("%04d-%02d", year, int(now.Month())-1)
	if now.Month() == time.January {
		prevMonthStr = fmt.Sprintf("%04d-12", year-1)
	}

	prevMonthTotal := decimal.Zero
	memberIds := map[int]bool{}
	monthly := make([]MonthlyAccrualRow, 12)
	for i := range monthly {
		monthly[i] = MonthlyAccrualRow{
			Month:           monthNames[i],
			TotalAccrual:    decimal.Zero,
			QuarterlyTenure: TenureSplit{OneYear: decimal.Zero, FiveYear: decimal.Zero},
			IntakeTenure:    TenureSplit{OneYear: decimal.Zero, FiveYear: decimal.Zero},
			RenewalTenure:   TenureSplit{OneYear: decimal.Zero, FiveYear: decimal.Zero},
		}
	}

	for _, entry := range entries {
		report.TotalYTD = report.TotalYTD.Add(entry.Amount)
		memberIds[entry.MemberId] = true

		if entry.AccrualMonth == currentMonthStr {
			report.CurrentMonth = report.CurrentMonth.Add(entry.Amount)
		}
		if entry.AccrualMonth == prevMonthStr {
			prevMonthTotal = prevMonthTotal.Add(entry.Amount)
		}

		monthIdx := monthIndexInYear(entry.AccrualMonth, year)
		if monthIdx < 0 {
			continue
		}
		row := &monthly[monthIdx]
		row.TotalAccrual = row.TotalAccrual.Add(entry.Amount)

		// Tenure split: accrual horizons up to a year versus multi-year deals.
		longTenure := entry.CalculationMonth != nil && *entry.CalculationMonth > 12

		if entry.BillingCycle != nil && *entry.BillingCycle == string(models.BillingCycleQuarterly) {
			addToSplit(&row.QuarterlyTenure, entry.Amount, longTenure)
		}
		if models.IsIntakeText(entry.RenewalType) {
			addToSplit(&row.IntakeTenure, entry.Amount, longTenure)
		}
		if models.IsRenewalText(entry.RenewalType) {
			addToSplit(&row.RenewalTenure, entry.Amount, longTenure)
		}
	}

	report.CurrentMonthGrowth = growthPercent(prevMonthTotal, report.CurrentMonth)
	report.MembersWithAccrual = len(memberIds)
	report.MonthlyData = monthly

	report.ChartData = make([]ChartPoint, 12)
	for i := range monthly {
		report.ChartData[i] = ChartPoint{Month: shortMonthNames[i], Amount: monthly[i].TotalAccrual}
	}

	return report
}

func addToSplit(split *TenureSplit, amount decimal.Decimal, longTenure bool) {
	if longTenure {
		split.FiveYear = split.FiveYear.Add(amount)
	} else {
		split.OneYear = split.OneYear.Add(amount)
	}
}

// growthPercent returns the month-over-month change as a rounded percentage.
// A zero prior month yields 0 when the current month is also zero, otherwise
// 100, so a first month of revenue reads as growth instead of dividing by zero.
func growthPercent(prior, current decimal.Decimal) int {
	if prior.IsZero() {
		if current.IsZero() {
			return 0
		}
		return 100
	}
	ratio, _ := current.Sub(prior).Div(prior).Float64()
	return int(math.Round(ratio * 100))
}

// monthIndexInYear returns 0-11 for a YYYY-MM label inside year, -1 otherwise.
func monthIndexInYear(accrualMonth string, year int) int {
	var y, m int
	if _, err := fmt.Sscanf(accrualMonth, "%d-%d", &y, &m); err != nil {
		return -1
	}
	if y != year || m < 1 || m > 12 {
		return -1
	}
	return m - 1
}

func yearlyTargetFromEnv() decimal.Decimal {
	if raw := os.Getenv("YEARLY_ACCRUAL_TARGET"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			return decimal.NewFromFloat(v)
		}
	}
	return decimal.NewFromInt(defaultYearlyTarget)
}
