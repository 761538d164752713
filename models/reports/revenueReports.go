package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/membership_backend/config"
	"github.com/shopspring/decimal"
)

// ReportPeriod is the inclusive invoice-date window a revenue report covers.
type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ResolveReportPeriod picks the reporting window: an explicit YYYY-MM month
// wins, then a financial-year quarter (Q1 is Apr-Jun; Q4 spills into the next
// calendar year), otherwise the current month.
func ResolveReportPeriod(month string, year int, quarter string, now time.Time) ReportPeriod {
	if month != "" {
		var y, m int
		if _, err := fmt.Sscanf(month, "%d-%d", &y, &m); err == nil && m >= 1 && m <= 12 {
			start := time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
			return ReportPeriod{Start: start, End: endOfMonth(start)}
		}
	}

	if quarter != "" {
		if year == 0 {
			year = now.Year()
		}
		var start time.Time
		switch quarter {
		case "Q1":
			start = time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC)
		case "Q2":
			start = time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC)
		case "Q3":
			start = time.Date(year, time.October, 1, 0, 0, 0, 0, time.UTC)
		default: // Q4 runs Jan-Mar of the following calendar year
			start = time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
		}
		return ReportPeriod{Start: start, End: endOfMonth(start.AddDate(0, 2, 0))}
	}

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return ReportPeriod{Start: start, End: endOfMonth(start)}
}

func endOfMonth(start time.Time) time.Time {
	return start.AddDate(0, 1, 0).Add(-time.Second)
}

type RevenueSummaryResponse struct {
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	TotalTax        decimal.Decimal `json:"totalTax"`
	NetRevenue      decimal.Decimal `json:"netRevenue"`
	Cgst            decimal.Decimal `json:"cgst"`
	Sgst            decimal.Decimal `json:"sgst"`
	Igst            decimal.Decimal `json:"igst"`
	MembershipTotal decimal.Decimal `json:"membershipTotal"`
	InvoiceCount    int             `json:"invoiceCount"`
}

func GetRevenueSummary(ctx context.Context, period ReportPeriod) (*RevenueSummaryResponse, error) {
	sql := `
SELECT
    COALESCE(SUM(total_amount), 0) AS total_revenue,
    COALESCE(SUM(total_tax), 0) AS total_tax,
    COALESCE(SUM(total_amount), 0) - COALESCE(SUM(total_tax), 0) AS net_revenue,
    COALESCE(SUM(cgst), 0) AS cgst,
    COALESCE(SUM(sgst), 0) AS sgst,
    COALESCE(SUM(igst), 0) AS igst,
    COALESCE(SUM(membership_total), 0) AS membership_total,
    COUNT(*) AS invoice_count
FROM
    invoices
WHERE
    invoice_date BETWEEN @fromDate AND @toDate
`
	var record RevenueSummaryResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"fromDate": period.Start,
		"toDate":   period.End,
	}).Scan(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

type ProductRevenueResponse struct {
	Product      string          `json:"product"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalTax     decimal.Decimal `json:"totalTax"`
	NetRevenue   decimal.Decimal `json:"netRevenue"`
	Count        int             `json:"count"`
}

func GetProductRevenue(ctx context.Context, period ReportPeriod) ([]*ProductRevenueResponse, error) {
	sql := `
SELECT
    COALESCE(product, 'Unknown') AS product,
    COALESCE(SUM(total_amount), 0) AS total_revenue,
    COALESCE(SUM(total_tax), 0) AS total_tax,
    COALESCE(SUM(total_amount), 0) - COALESCE(SUM(total_tax), 0) AS net_revenue,
    COUNT(*) AS count
FROM
    invoices
WHERE
    invoice_date BETWEEN @fromDate AND @toDate
GROUP BY product
ORDER BY total_revenue DESC
`
	var records []*ProductRevenueResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"fromDate": period.Start,
		"toDate":   period.End,
	}).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

type MembershipTypeRevenueResponse struct {
	MembershipType string          `json:"membershipType"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	TotalTax       decimal.Decimal `json:"totalTax"`
	NetRevenue     decimal.Decimal `json:"netRevenue"`
	Count          int             `json:"count"`
}

func GetMembershipTypeRevenue(ctx context.Context, period ReportPeriod) ([]*MembershipTypeRevenueResponse, error) {
	sql := `
SELECT
    COALESCE(billing_cycle, 'Unknown') AS membership_type,
    COALESCE(SUM(total_amount), 0) AS total_revenue,
    COALESCE(SUM(total_tax), 0) AS total_tax,
    COALESCE(SUM(total_amount), 0) - COALESCE(SUM(total_tax), 0) AS net_revenue,
    COUNT(*) AS count
FROM
    invoices
WHERE
    invoice_date BETWEEN @fromDate AND @toDate
GROUP BY billing_cycle
ORDER BY total_revenue DESC
`
	var records []*MembershipTypeRevenueResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"fromDate": period.Start,
		"toDate":   period.End,
	}).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

type RenewalBucket struct {
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type RenewalTypeRow struct {
	Type    string          `json:"type"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type RenewalsVsNewResponse struct {
	Renewals  RenewalBucket     `json:"renewals"`
	NewIntake RenewalBucket     `json:"newIntake"`
	Breakdown []*RenewalTypeRow `json:"breakdown"`
}

// GetRenewalsVsNew splits the period's invoices by renewal-type text. Anything
// whose type does not mention "renewal" counts as new intake.
func GetRenewalsVsNew(ctx context.Context, period ReportPeriod) (*RenewalsVsNewResponse, error) {
	sql := `
SELECT
    COALESCE(renewal_type, 'New') AS type,
    COUNT(*) AS count,
    COALESCE(SUM(total_amount), 0) AS revenue
FROM
    invoices
WHERE
    invoice_date BETWEEN @fromDate AND @toDate
GROUP BY renewal_type
ORDER BY revenue DESC
`
	var breakdown []*RenewalTypeRow
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"fromDate": period.Start,
		"toDate":   period.End,
	}).Scan(&breakdown).Error; err != nil {
		return nil, err
	}

	response := &RenewalsVsNewResponse{
		Renewals:  RenewalBucket{Revenue: decimal.Zero},
		NewIntake: RenewalBucket{Revenue: decimal.Zero},
		Breakdown: breakdown,
	}
	for _, row := range breakdown {
		if strings.Contains(strings.ToLower(row.Type), "renewal") {
			response.Renewals.Count += row.Count
			response.Renewals.Revenue = response.Renewals.Revenue.Add(row.Revenue)
		} else {
			response.NewIntake.Count += row.Count
			response.NewIntake.Revenue = response.NewIntake.Revenue.Add(row.Revenue)
		}
	}
	return response, nil
}

type StateTaxResponse struct {
	State       string          `json:"state"`
	Cgst        decimal.Decimal `json:"cgst"`
	Sgst        decimal.Decimal `json:"sgst"`
	Igst        decimal.Decimal `json:"igst"`
	TotalTax    decimal.Decimal `json:"totalTax"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Count       int             `json:"count"`
}

func GetStateTaxReport(ctx context.Context, period ReportPeriod) ([]*StateTaxResponse, error) {
	sql := `
SELECT
    COALESCE(state, 'Unknown') AS state,
    COALESCE(SUM(cgst), 0) AS cgst,
    COALESCE(SUM(sgst), 0) AS sgst,
    COALESCE(SUM(igst), 0) AS igst,
    COALESCE(SUM(total_tax), 0) AS total_tax,
    COALESCE(SUM(total_amount), 0) AS total_amount,
    COUNT(*) AS count
FROM
    invoices
WHERE
    invoice_date BETWEEN @fromDate AND @toDate
GROUP BY state
ORDER BY total_tax DESC
`
	var records []*StateTaxResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"fromDate": period.Start,
		"toDate":   period.End,
	}).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

type StatusCountRow struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type ProductStatusCountRow struct {
	Product string `json:"product"`
	Status  string `json:"status"`
	Count   int    `json:"count"`
}

type MemberStatusResponse struct {
	ByStatus           []*StatusCountRow        `json:"byStatus"`
	ByProductAndStatus []*ProductStatusCountRow `json:"byProductAndStatus"`
	Totals             map[string]int           `json:"totals"`
}

func GetMemberStatusReport(ctx context.Context) (*MemberStatusResponse, error) {
	db := config.GetDB()

	var byStatus []*StatusCountRow
	err := db.WithContext(ctx).Raw(`
SELECT status, COUNT(*) AS count FROM members GROUP BY status
`).Scan(&byStatus).Error
	if err != nil {
		return nil, err
	}

	var byProduct []*ProductStatusCountRow
	err = db.WithContext(ctx).Raw(`
SELECT COALESCE(product, 'Unknown') AS product, status, COUNT(*) AS count
FROM members GROUP BY product, status
`).Scan(&byProduct).Error
	if err != nil {
		return nil, err
	}

	totals := map[string]int{
		"active": 0, "expired": 0, "renewed": 0, "quarterly": 0, "frozen": 0,
	}
	keys := map[string]string{
		"ACTIVE": "active", "EXPIRED": "expired", "RENEWED": "renewed",
		"QUARTERLY": "quarterly", "FROZEN": "frozen",
	}
	for _, row := range byStatus {
		if key, ok := keys[row.Status]; ok {
			totals[key] = row.Count
		}
	}

	return &MemberStatusResponse{
		ByStatus:           byStatus,
		ByProductAndStatus: byProduct,
		Totals:             totals,
	}, nil
}

type RenewalMemberRow struct {
	ID                int        `json:"id"`
	GlobalId          string     `json:"global_id"`
	Name              string     `json:"name"`
	Email             *string    `json:"email"`
	MembershipEndDate *time.Time `json:"membership_end_date"`
	Product           *string    `json:"product"`
}

type RenewalWindow struct {
	Count   int                 `json:"count"`
	Members []*RenewalMemberRow `json:"members"`
}

type UpcomingRenewalsResponse struct {
	Next30Days RenewalWindow `json:"next30Days"`
	Next60Days RenewalWindow `json:"next60Days"`
	Next90Days RenewalWindow `json:"next90Days"`
	Total      int           `json:"total"`
}

// GetUpcomingRenewals buckets non-expired members by how soon their membership
// ends: within 30 days, 31-60, 61-90. Windows are disjoint.
func GetUpcomingRenewals(ctx context.Context, now time.Time) (*UpcomingRenewalsResponse, error) {
	window := func(from, to time.Time) (*RenewalWindow, error) {
		sql := `
SELECT id, global_id, name, email, membership_end_date, product
FROM members
WHERE membership_end_date > @fromDate
    AND membership_end_date <= @toDate
    AND status <> 'EXPIRED'
ORDER BY membership_end_date ASC
`
		var members []*RenewalMemberRow
		db := config.GetDB()
		if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
			"fromDate": from,
			"toDate":   to,
		}).Scan(&members).Error; err != nil {
			return nil, err
		}
		return &RenewalWindow{Count: len(members), Members: members}, nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	first, err := window(today.AddDate(0, 0, -1), today.AddDate(0, 0, 30))
	if err != nil {
		return nil, err
	}
	second, err := window(today.AddDate(0, 0, 30), today.AddDate(0, 0, 60))
	if err != nil {
		return nil, err
	}
	third, err := window(today.AddDate(0, 0, 60), today.AddDate(0, 0, 90))
	if err != nil {
		return nil, err
	}

	return &UpcomingRenewalsResponse{
		Next30Days: *first,
		Next60Days: *second,
		Next90Days: *third,
		Total:      first.Count + second.Count + third.Count,
	}, nil
}

type QuarterRevenueRow struct {
	Quarter      string          `json:"quarter"`
	Period       string          `json:"period"`
	Revenue      decimal.Decimal `json:"revenue"`
	Tax          decimal.Decimal `json:"tax"`
	NetRevenue   decimal.Decimal `json:"netRevenue"`
	InvoiceCount int             `json:"invoiceCount"`
}

type QuarterlyComparisonResponse struct {
	FinancialYear string               `json:"financialYear"`
	Quarters      []*QuarterRevenueRow `json:"data"`
}

// GetQuarterlyComparison reports one financial year, April through March.
func GetQuarterlyComparison(ctx context.Context, year int) (*QuarterlyComparisonResponse, error) {
	response := &QuarterlyComparisonResponse{
		FinancialYear: fmt.Sprintf("FY %d-%02d", year, (year+1)%100),
	}

	for _, quarter := range []string{"Q1", "Q2", "Q3", "Q4"} {
		period := ResolveReportPeriod("", year, quarter, time.Time{})
		summary, err := GetRevenueSummary(ctx, period)
		if err != nil {
			return nil, err
		}
		response.Quarters = append(response.Quarters, &QuarterRevenueRow{
			Quarter:      quarter,
			Period:       fmt.Sprintf("%s - %s", period.Start.Format("Jan 2006"), period.End.Format("Jan 2006")),
			Revenue:      summary.TotalRevenue,
			Tax:          summary.TotalTax,
			NetRevenue:   summary.NetRevenue,
			InvoiceCount: summary.InvoiceCount,
		})
	}

	return response, nil
}

type PaymentTrackingResponse struct {
	CurrentPeriod int64 `json:"currentPeriod"`
	FuturePeriod  int64 `json:"futurePeriod"`
	ExpiredPeriod int64 `json:"expiredPeriod"`
}

// GetPaymentTracking counts members by where today falls in their payment window.
func GetPaymentTracking(ctx context.Context, now time.Time) (*PaymentTrackingResponse, error) {
	sql := `
SELECT
    COALESCE(SUM(CASE WHEN payment_start_date <= @today AND payment_end_date >= @today THEN 1 ELSE 0 END), 0) AS current_period,
    COALESCE(SUM(CASE WHEN payment_start_date > @today THEN 1 ELSE 0 END), 0) AS future_period,
    COALESCE(SUM(CASE WHEN payment_end_date < @today THEN 1 ELSE 0 END), 0) AS expired_period
FROM
    members
`
	var record PaymentTrackingResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"today": now,
	}).Scan(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}
