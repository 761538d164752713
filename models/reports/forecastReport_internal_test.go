package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func expiring(id int, globalId string, product string, end time.Time, total int64, tax int64) *ExpiringMemberRow {
	row := &ExpiringMemberRow{
		ID:                id,
		GlobalId:          globalId,
		Name:              "Member " + globalId,
		MembershipEndDate: end,
		MembershipTotal:   decimal.NewFromInt(total),
		TotalTax:          decimal.NewFromInt(tax),
	}
	if product != "" {
		row.Product = &product
	}
	return row
}

func TestBuildForecastMonthlyBuckets(t *testing.T) {
	now := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	rows := []*ExpiringMemberRow{
		expiring(1, "G-1", "Gold", time.Date(2026, time.October, 10, 0, 0, 0, 0, time.UTC), 10000, 1800),
		expiring(2, "G-2", "Gold", time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC), 5000, 900),
		expiring(3, "G-3", "Silver", time.Date(2026, time.November, 5, 0, 0, 0, 0, time.UTC), 2000, 360),
	}

	forecast := buildForecast(rows, 3, now)

	if forecast.Summary.TotalRenewalsDue != 3 {
		t.Fatalf("renewalsDue = %d, want 3", forecast.Summary.TotalRenewalsDue)
	}
	// Expected revenue prices each member at last invoice total plus tax.
	if forecast.Summary.TotalExpectedRevenue.String() != "20060" {
		t.Fatalf("expectedRevenue = %s, want 20060", forecast.Summary.TotalExpectedRevenue)
	}
	if forecast.Summary.TotalBeforeTax.String() != "17000" {
		t.Fatalf("beforeTax = %s, want 17000", forecast.Summary.TotalBeforeTax)
	}

	if len(forecast.MonthlyForecast) != 3 {
		t.Fatalf("expected 3 monthly rows, got %d", len(forecast.MonthlyForecast))
	}
	october := forecast.MonthlyForecast[0]
	if october.Month != "2026-10" || october.RenewalCount != 2 {
		t.Fatalf("october row = %+v", october)
	}
	if october.ExpectedRevenue.String() != "17700" {
		t.Fatalf("october revenue = %s, want 17700", october.ExpectedRevenue)
	}
}

func TestBuildForecastAtRisk(t *testing.T) {
	now := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	rows := []*ExpiringMemberRow{
		expiring(1, "G-1", "", time.Date(2026, time.September, 20, 0, 0, 0, 0, time.UTC), 1000, 0),
		expiring(2, "G-2", "", time.Date(2026, time.November, 20, 0, 0, 0, 0, time.UTC), 1000, 0),
	}

	forecast := buildForecast(rows, 3, now)
	if forecast.Summary.AtRiskCount != 1 {
		t.Fatalf("atRisk = %d, want 1", forecast.Summary.AtRiskCount)
	}
	if len(forecast.AtRiskMembers) != 1 || forecast.AtRiskMembers[0].GlobalId != "G-1" {
		t.Fatalf("wrong at-risk member: %+v", forecast.AtRiskMembers)
	}
}

func TestBuildForecastProductBreakdown(t *testing.T) {
	now := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	rows := []*ExpiringMemberRow{
		expiring(1, "G-1", "Gold", time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), 100, 18),
		expiring(2, "G-2", "Gold", time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC), 200, 36),
		expiring(3, "G-3", "", time.Date(2026, time.November, 2, 0, 0, 0, 0, time.UTC), 50, 9),
	}

	forecast := buildForecast(rows, 3, now)

	byProduct := map[string]*ProductForecastRow{}
	for _, row := range forecast.ProductBreakdown {
		byProduct[row.Product] = row
	}
	gold := byProduct["Gold"]
	if gold == nil || gold.Count != 2 || gold.Revenue.String() != "354" {
		t.Fatalf("gold breakdown = %+v", gold)
	}
	if unknown := byProduct["Unknown"]; unknown == nil || unknown.Count != 1 {
		t.Fatalf("members without a product should group under Unknown: %+v", unknown)
	}
}

func TestGrowthPercent(t *testing.T) {
	cases := []struct {
		prior, current int64
		want           int
	}{
		{0, 0, 0},
		{0, 500, 100},
		{1000, 1500, 50},
		{1000, 750, -25},
		{300, 400, 33},
	}
	for _, tc := range cases {
		got := growthPercent(decimal.NewFromInt(tc.prior), decimal.NewFromInt(tc.current))
		if got != tc.want {
			t.Fatalf("growthPercent(%d, %d) = %d, want %d", tc.prior, tc.current, got, tc.want)
		}
	}
}
