package models_test

import (
	"testing"
	"time"

	"github.com/mmdatafocus/membership_backend/models"
	"github.com/shopspring/decimal"
)

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

func TestBuildAccrualScheduleEqualDivision(t *testing.T) {
	inv := &models.Invoice{
		ID:                  7,
		InvoiceDate:         time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		MembershipStartDate: timePtr(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)),
		TotalAmount:         decimal.NewFromInt(120000),
		TotalTax:            decimal.NewFromInt(21600),
		CalculationMonth:    intPtr(12),
	}

	accruals := models.BuildAccrualSchedule(inv)
	if len(accruals) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(accruals))
	}

	for i, a := range accruals {
		if a.InvoiceId != 7 {
			t.Fatalf("row %d has invoice id %d", i, a.InvoiceId)
		}
		if a.Amount.String() != "10000" {
			t.Fatalf("row %d amount = %s, want 10000", i, a.Amount)
		}
		if a.TaxAmount.String() != "1800" {
			t.Fatalf("row %d tax = %s, want 1800", i, a.TaxAmount)
		}
	}

	// Anchored at the membership start, not the invoice date.
	if accruals[0].AccrualMonth != "2024-02" {
		t.Fatalf("first month = %s, want 2024-02", accruals[0].AccrualMonth)
	}
	if accruals[11].AccrualMonth != "2025-01" {
		t.Fatalf("last month = %s, want 2025-01", accruals[11].AccrualMonth)
	}
}

func TestBuildAccrualScheduleAnchorsOnInvoiceDateWhenStartMissing(t *testing.T) {
	inv := &models.Invoice{
		InvoiceDate:      time.Date(2024, time.November, 3, 0, 0, 0, 0, time.UTC),
		TotalAmount:      decimal.NewFromInt(3000),
		CalculationMonth: intPtr(3),
	}

	accruals := models.BuildAccrualSchedule(inv)
	want := []string{"2024-11", "2024-12", "2025-01"}
	for i, a := range accruals {
		if a.AccrualMonth != want[i] {
			t.Fatalf("month %d = %s, want %s", i, a.AccrualMonth, want[i])
		}
	}
}

func TestBuildAccrualScheduleEndOfMonthAnchor(t *testing.T) {
	// A January 31 anchor must land the second bucket in February, never March.
	inv := &models.Invoice{
		InvoiceDate:      time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
		TotalAmount:      decimal.NewFromInt(200),
		CalculationMonth: intPtr(2),
	}

	accruals := models.BuildAccrualSchedule(inv)
	if accruals[0].AccrualMonth != "2024-01" || accruals[1].AccrualMonth != "2024-02" {
		t.Fatalf("got months %s, %s; want 2024-01, 2024-02", accruals[0].AccrualMonth, accruals[1].AccrualMonth)
	}
}

func TestBuildAccrualScheduleRounding(t *testing.T) {
	inv := &models.Invoice{
		InvoiceDate:      time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount:      decimal.NewFromInt(100),
		CalculationMonth: intPtr(3),
	}

	accruals := models.BuildAccrualSchedule(inv)
	// 100/3 rounded per bucket; the schedule does not reconcile the drift.
	for i, a := range accruals {
		if a.Amount.String() != "33.33" {
			t.Fatalf("row %d amount = %s, want 33.33", i, a.Amount)
		}
	}
}

func TestBuildAccrualScheduleFallbacks(t *testing.T) {
	// Tenure fallback.
	inv := &models.Invoice{
		InvoiceDate:  time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount:  decimal.NewFromInt(600),
		MonthsTenure: intPtr(6),
	}
	if got := len(models.BuildAccrualSchedule(inv)); got != 6 {
		t.Fatalf("tenure fallback: got %d rows, want 6", got)
	}

	// No hints at all: the whole amount accrues in the anchor month.
	inv = &models.Invoice{
		InvoiceDate: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount: decimal.NewFromInt(600),
	}
	accruals := models.BuildAccrualSchedule(inv)
	if len(accruals) != 1 {
		t.Fatalf("default: got %d rows, want 1", len(accruals))
	}
	if accruals[0].Amount.String() != "600" {
		t.Fatalf("default amount = %s, want 600", accruals[0].Amount)
	}
}

func TestBuildAccrualScheduleNonPositiveMonths(t *testing.T) {
	inv := &models.Invoice{
		InvoiceDate:      time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount:      decimal.NewFromInt(600),
		CalculationMonth: intPtr(-3),
	}
	if got := models.BuildAccrualSchedule(inv); got != nil {
		t.Fatalf("negative month count must not accrue, got %d rows", len(got))
	}
}

func TestResolveCalculationMonths(t *testing.T) {
	if got := models.ResolveCalculationMonths(intPtr(24), intPtr(12)); got != 24 {
		t.Fatalf("explicit value should win, got %d", got)
	}
	if got := models.ResolveCalculationMonths(nil, intPtr(12)); got != 12 {
		t.Fatalf("tenure fallback, got %d", got)
	}
	if got := models.ResolveCalculationMonths(intPtr(0), nil); got != 1 {
		t.Fatalf("zero counts as absent, got %d", got)
	}
	if got := models.ResolveCalculationMonths(nil, nil); got != 1 {
		t.Fatalf("default, got %d", got)
	}
}
