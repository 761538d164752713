package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Accrual is one month's recognized slice of an invoice. Rows are created together
// with the owning invoice and only ever deleted by deleting the upload batch.
type Accrual struct {
	ID           int             `gorm:"primary_key" json:"id"`
	InvoiceId    int             `gorm:"index;not null" json:"invoice_id"`
	AccrualMonth string          `gorm:"index;size:7;not null" json:"accrual_month"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	TaxAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// ResolveCalculationMonths resolves the accrual month count for an invoice:
// calculationMonth, falling back to monthsTenure, falling back to 1.
func ResolveCalculationMonths(calculationMonth *int, monthsTenure *int) int {
	if calculationMonth != nil && *calculationMonth != 0 {
		return *calculationMonth
	}
	if monthsTenure != nil && *monthsTenure != 0 {
		return *monthsTenure
	}
	return 1
}

// BuildAccrualSchedule spreads an invoice's amount and tax evenly across N monthly
// buckets anchored at the membership start date (invoice date if absent).
//
// Buckets are addressed by calendar month index only, so a day-31 anchor can never
// overflow into the wrong month. Each bucket gets total/N rounded to 2 decimals;
// the bucket sum may drift from the invoice total by at most N cents and is never
// reconciled back.
func BuildAccrualSchedule(inv *Invoice) []Accrual {
	months := ResolveCalculationMonths(inv.CalculationMonth, inv.MonthsTenure)
	if months <= 0 {
		// Non-accruable, e.g. one-off non-membership charges.
		return nil
	}

	anchor := inv.InvoiceDate
	if inv.MembershipStartDate != nil {
		anchor = *inv.MembershipStartDate
	}

	n := decimal.NewFromInt(int64(months))
	monthlyAmount := inv.TotalAmount.Div(n).Round(2)
	monthlyTax := inv.TotalTax.Div(n).Round(2)

	monthIndex := anchor.Year()*12 + int(anchor.Month()) - 1

	accruals := make([]Accrual, 0, months)
	for i := 0; i < months; i++ {
		idx := monthIndex + i
		accruals = append(accruals, Accrual{
			InvoiceId:    inv.ID,
			AccrualMonth: fmt.Sprintf("%04d-%02d", idx/12, idx%12+1),
			Amount:       monthlyAmount,
			TaxAmount:    monthlyTax,
		})
	}
	return accruals
}
