package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/membership_backend/config"
	"github.com/mmdatafocus/membership_backend/utils"
	"github.com/shopspring/decimal"
)

// ExpiringMemberRow is a member whose membership ends inside the forecast
// window, joined with their most recent invoice. The last invoice is the best
// available estimate of what a renewal would bill.
type ExpiringMemberRow struct {
	ID                int             `json:"id"`
	GlobalId          string          `json:"global_id"`
	Name              string          `json:"name"`
	Email             *string         `json:"email"`
	Product           *string         `json:"product"`
	MembershipEndDate time.Time       `json:"membership_end_date"`
	MembershipTotal   decimal.Decimal `json:"membership_total"`
	TotalTax          decimal.Decimal `json:"total_tax"`
	BillingCycle      *string         `json:"billing_cycle"`
}

type ForecastMemberRow struct {
	ID                int             `json:"id"`
	GlobalId          string          `json:"globalId"`
	Name              string          `json:"name"`
	Email             *string         `json:"email"`
	Product           *string         `json:"product"`
	MembershipEndDate time.Time       `json:"membershipEndDate"`
	ExpectedAmount    decimal.Decimal `json:"expectedAmount"`
	BeforeTax         decimal.Decimal `json:"beforeTax"`
	Tax               decimal.Decimal `json:"tax"`
	BillingCycle      *string         `json:"billingCycle"`
}

type MonthlyForecastRow struct {
	Month           string               `json:"month"`
	MonthLabel      string               `json:"monthLabel"`
	RenewalCount    int                  `json:"renewalCount"`
	ExpectedRevenue decimal.Decimal      `json:"expectedRevenue"`
	BeforeTax       decimal.Decimal      `json:"beforeTax"`
	Members         []*ForecastMemberRow `json:"members"`
}

type ProductForecastRow struct {
	Product   string          `json:"product"`
	Count     int             `json:"count"`
	Revenue   decimal.Decimal `json:"revenue"`
	BeforeTax decimal.Decimal `json:"beforeTax"`
}

type ForecastSummary struct {
	TotalExpectedRevenue decimal.Decimal `json:"totalExpectedRevenue"`
	TotalBeforeTax       decimal.Decimal `json:"totalBeforeTax"`
	TotalRenewalsDue     int             `json:"totalRenewalsDue"`
	AtRiskCount          int             `json:"atRiskCount"`
	ForecastPeriod       int             `json:"forecastPeriod"`
}

type ForecastResponse struct {
	Summary          ForecastSummary       `json:"summary"`
	MonthlyForecast  []*MonthlyForecastRow `json:"monthlyForecast"`
	ProductBreakdown []*ProductForecastRow `json:"productBreakdown"`
	AtRiskMembers    []*ForecastMemberRow  `json:"atRiskMembers"`
	Products         []string              `json:"products"`
}

// GetForecast projects renewal revenue for the next `months` months from members
// whose memberships expire in the window, pricing each at their latest invoice.
// Members expiring within 30 days are additionally flagged as at risk.
func GetForecast(ctx context.Context, months int, product string, now time.Time) (*ForecastResponse, error) {
	if months < 1 {
		months = 3
	}

	endDate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months+1, -1)

	sqlT := `
SELECT
    members.id,
    members.global_id,
    members.name,
    members.email,
    members.product,
    members.membership_end_date,
    COALESCE(last_invoice.membership_total, 0) AS membership_total,
    COALESCE(last_invoice.total_tax, 0) AS total_tax,
    last_invoice.billing_cycle
FROM
    members
        LEFT JOIN
    (SELECT i1.member_id, i1.membership_total, i1.total_tax, i1.billing_cycle
     FROM invoices i1
     JOIN (SELECT member_id, MAX(invoice_date) AS max_date FROM invoices GROUP BY member_id) i2
         ON i2.member_id = i1.member_id AND i2.max_date = i1.invoice_date
    ) AS last_invoice ON last_invoice.member_id = members.id
WHERE
    members.membership_end_date >= @fromDate
    AND members.membership_end_date <= @toDate
    {{- if .product }} AND members.product LIKE @product {{- end }}
ORDER BY members.membership_end_date ASC
`
	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"product": product,
	})
	if err != nil {
		return nil, err
	}

	var expiring []*ExpiringMemberRow
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"fromDate": now,
		"toDate":   endDate,
		"product":  "%" + product + "%",
	}).Scan(&expiring).Error; err != nil {
		return nil, err
	}

	var products []string
	err = db.WithContext(ctx).Raw(`
SELECT DISTINCT product FROM members WHERE product IS NOT NULL ORDER BY product
`).Scan(&products).Error
	if err != nil {
		return nil, err
	}

	response := buildForecast(expiring, months, now)
	response.Products = products
	return response, nil
}

func buildForecast(expiring []*ExpiringMemberRow, months int, now time.Time) *ForecastResponse {
	response := &ForecastResponse{
		Summary: ForecastSummary{
			TotalExpectedRevenue: decimal.Zero,
			TotalBeforeTax:       decimal.Zero,
			TotalRenewalsDue:     len(expiring),
			ForecastPeriod:       months,
		},
	}

	monthly := map[string]*MonthlyForecastRow{}
	for i := 0; i < months; i++ {
		forecastDate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, i+1, 0)
		key := forecastDate.Format("2006-01")
		row := &MonthlyForecastRow{
			Month:           key,
			MonthLabel:      forecastDate.Format("Jan 2006"),
			ExpectedRevenue: decimal.Zero,
			BeforeTax:       decimal.Zero,
		}
		monthly[key] = row
		response.MonthlyForecast = append(response.MonthlyForecast, row)
	}

	atRiskCutoff := now.AddDate(0, 0, 30)
	productIndex := map[string]*ProductForecastRow{}

	for _, member := range expiring {
		beforeTax := member.MembershipTotal
		expected := beforeTax.Add(member.TotalTax)

		forecastMember := &ForecastMemberRow{
			ID:                member.ID,
			GlobalId:          member.GlobalId,
			Name:              member.Name,
			Email:             member.Email,
			Product:           member.Product,
			MembershipEndDate: member.MembershipEndDate,
			ExpectedAmount:    expected,
			BeforeTax:         beforeTax,
			Tax:               member.TotalTax,
			BillingCycle:      member.BillingCycle,
		}

		key := member.MembershipEndDate.Format("2006-01")
		if row, ok := monthly[key]; ok {
			row.RenewalCount++
			row.ExpectedRevenue = row.ExpectedRevenue.Add(expected)
			row.BeforeTax = row.BeforeTax.Add(beforeTax)
			row.Members = append(row.Members, forecastMember)
			response.Summary.TotalExpectedRevenue = response.Summary.TotalExpectedRevenue.Add(expected)
			response.Summary.TotalBeforeTax = response.Summary.TotalBeforeTax.Add(beforeTax)
		}

		productName := "Unknown"
		if member.Product != nil && *member.Product != "" {
			productName = *member.Product
		}
		productRow, ok := productIndex[productName]
		if !ok {
			productRow = &ProductForecastRow{
				Product:   productName,
				Revenue:   decimal.Zero,
				BeforeTax: decimal.Zero,
			}
			productIndex[productName] = productRow
			response.ProductBreakdown = append(response.ProductBreakdown, productRow)
		}
		productRow.Count++
		productRow.Revenue = productRow.Revenue.Add(expected)
		productRow.BeforeTax = productRow.BeforeTax.Add(beforeTax)

		if !member.MembershipEndDate.After(atRiskCutoff) {
			response.AtRiskMembers = append(response.AtRiskMembers, forecastMember)
			response.Summary.AtRiskCount++
		}
	}

	return response
}
