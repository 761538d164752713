package ingest

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError is a collected, per-row problem. It is reported to the caller,
// never thrown: one bad row must not take the batch down with it.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator runs the required-field and uniqueness checks for one upload batch.
// existing holds every invoice number already persisted; numbers seen earlier in
// the same batch accumulate as rows pass.
type Validator struct {
	resolver *Resolver
	existing map[string]bool
	seen     map[string]bool
}

func NewValidator(resolver *Resolver, existing map[string]bool) *Validator {
	if existing == nil {
		existing = map[string]bool{}
	}
	return &Validator{
		resolver: resolver,
		existing: existing,
		seen:     map[string]bool{},
	}
}

// RowVerdict carries the outcome of validating one row plus the resolved
// mandatory values, so the processor does not resolve them twice.
type RowVerdict struct {
	Blank       bool
	Errors      []ValidationError
	InvoiceNo   string
	GlobalId    string
	InvoiceDate *time.Time
}

// CheckRow validates one data row. rowNum is the 1-based sheet row for error
// messages (first data row is 2, after the header).
func (v *Validator) CheckRow(row RawRow, rowNum int) *RowVerdict {
	verdict := &RowVerdict{}

	invoiceNo, _ := v.resolver.Resolve(row, FieldInvoiceNo)
	globalId, _ := v.resolver.Resolve(row, FieldGlobalId)
	invoiceDateRaw, _ := v.resolver.Resolve(row, FieldInvoiceDate)
	monthTotal, _ := v.resolver.Resolve(row, FieldMonthTotal)

	invoiceNo = strings.TrimSpace(invoiceNo)
	globalId = strings.TrimSpace(globalId)
	invoiceDateRaw = strings.TrimSpace(invoiceDateRaw)
	monthTotal = strings.TrimSpace(monthTotal)

	// Trailing filler rows at the bottom of real sheets: no key fields at all.
	// Skipped silently, not errors.
	if invoiceNo == "" && globalId == "" && invoiceDateRaw == "" && monthTotal == "" {
		verdict.Blank = true
		return verdict
	}

	verdict.InvoiceNo = invoiceNo
	verdict.GlobalId = globalId

	if invoiceNo == "" {
		verdict.Errors = append(verdict.Errors, ValidationError{Row: rowNum, Field: "Invoice No", Message: "Invoice No is required"})
	}
	if globalId == "" {
		verdict.Errors = append(verdict.Errors, ValidationError{Row: rowNum, Field: "Global ID", Message: "Global ID is required"})
	}
	if invoiceDateRaw == "" {
		verdict.Errors = append(verdict.Errors, ValidationError{Row: rowNum, Field: "Invoice Date", Message: "Invoice Date is required"})
	}
	if monthTotal == "" {
		// Zero is a valid amount; only an empty cell fails.
		verdict.Errors = append(verdict.Errors, ValidationError{Row: rowNum, Field: "Month Total", Message: "Month Total is required"})
	}
	if len(verdict.Errors) > 0 {
		return verdict
	}

	if v.existing[invoiceNo] {
		verdict.Errors = append(verdict.Errors, ValidationError{
			Row: rowNum, Field: "Invoice No",
			Message: fmt.Sprintf("Invoice %s already exists in the system", invoiceNo),
		})
		return verdict
	}
	if v.seen[invoiceNo] {
		verdict.Errors = append(verdict.Errors, ValidationError{
			Row: rowNum, Field: "Invoice No",
			Message: fmt.Sprintf("Duplicate invoice %s in upload file", invoiceNo),
		})
		return verdict
	}
	v.seen[invoiceNo] = true

	invoiceDate, err := ParseCellDate(invoiceDateRaw)
	if err != nil || invoiceDate == nil {
		verdict.Errors = append(verdict.Errors, ValidationError{Row: rowNum, Field: "Invoice Date", Message: "Invalid Invoice Date format"})
		return verdict
	}
	verdict.InvoiceDate = invoiceDate

	return verdict
}
