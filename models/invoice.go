package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/membership_backend/config"
	"github.com/shopspring/decimal"
)

// Invoice is created once at import time and never edited afterwards; corrective
// re-uploads are rejected as duplicates rather than merged.
type Invoice struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	InvoiceNo           string          `gorm:"uniqueIndex;size:100;not null" json:"invoice_no"`
	InvoiceDate         time.Time       `gorm:"index;not null" json:"invoice_date"`
	MemberId            int             `gorm:"index;not null" json:"member_id"`
	Name                string          `gorm:"size:191" json:"name"`
	PinCode             *string         `gorm:"size:20" json:"pin_code"`
	State               *string         `gorm:"size:100" json:"state"`
	Email               *string         `gorm:"size:191" json:"email"`
	Registration        *string         `gorm:"size:100" json:"registration"`
	Membership          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"membership"`
	MembershipTotal     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"membership_total"`
	Cgst                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cgst"`
	Sgst                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sgst"`
	Igst                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"igst"`
	TotalTax            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_tax"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Description         *string         `gorm:"type:text" json:"description"`
	MembershipStartDate *time.Time      `json:"membership_start_date"`
	MembershipEndDate   *time.Time      `json:"membership_end_date"`
	PaymentStartDate    *time.Time      `json:"payment_start_date"`
	PaymentEndDate      *time.Time      `json:"payment_end_date"`
	RenewalType         *string         `gorm:"size:100" json:"renewal_type"`
	Month               *string         `gorm:"size:20" json:"month"`
	Product             *string         `gorm:"size:191" json:"product"`
	MonthsTenure        *int            `json:"months_tenure"`
	CalculationMonth    *int            `json:"calculation_month"`
	BillingCycle        *BillingCycle   `gorm:"size:20" json:"billing_cycle"`
	UploadMonth         string          `gorm:"index;size:7;not null" json:"upload_month"`
	UploadLogId         *int            `gorm:"index" json:"upload_log_id"`
	Accruals            []Accrual       `gorm:"foreignKey:InvoiceId" json:"-"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type InvoiceWithMember struct {
	Invoice
	MemberGlobalId string       `json:"member_global_id"`
	MemberStatus   MemberStatus `json:"member_status"`
}

func GetInvoices(ctx context.Context, page int, limit int, search string, uploadMonth string, memberId int) ([]*InvoiceWithMember, int64, error) {
	db := config.GetDB()

	query := db.WithContext(ctx).Model(&Invoice{}).
		Joins("LEFT JOIN members ON members.id = invoices.member_id")
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("invoices.invoice_no LIKE ? OR invoices.name LIKE ? OR members.global_id LIKE ?", like, like, like)
	}
	if uploadMonth != "" {
		query = query.Where("invoices.upload_month = ?", uploadMonth)
	}
	if memberId != 0 {
		query = query.Where("invoices.member_id = ?", memberId)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoices []*InvoiceWithMember
	err := query.
		Select("invoices.*, members.global_id AS member_global_id, members.status AS member_status").
		Order("invoices.invoice_date DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&invoices).Error
	if err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

// GetAllInvoiceNos loads every invoice number in the system for the global duplicate
// check at the start of batch processing. The read is not coordinated with concurrent
// uploads; the unique index on invoice_no is the final backstop.
func GetAllInvoiceNos(ctx context.Context) (map[string]bool, error) {
	db := config.GetDB()

	var invoiceNos []string
	if err := db.WithContext(ctx).Model(&Invoice{}).Pluck("invoice_no", &invoiceNos).Error; err != nil {
		return nil, err
	}

	existing := make(map[string]bool, len(invoiceNos))
	for _, no := range invoiceNos {
		existing[no] = true
	}
	return existing, nil
}
