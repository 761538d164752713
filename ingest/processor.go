package ingest

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// InvoiceDraft is a fully-typed, validated row ready for persistence. It carries
// everything the import workflow needs; persistence identity (ids, batch links)
// is added downstream.
type InvoiceDraft struct {
	InvoiceNo           string          `json:"invoice_no"`
	InvoiceDate         time.Time       `json:"invoice_date"`
	GlobalId            string          `json:"global_id"`
	Name                string          `json:"name"`
	State               *string         `json:"state"`
	Email               *string         `json:"email"`
	Registration        *string         `json:"registration"`
	Membership          decimal.Decimal `json:"membership"`
	MembershipTotal     decimal.Decimal `json:"membership_total"`
	Cgst                decimal.Decimal `json:"cgst"`
	Sgst                decimal.Decimal `json:"sgst"`
	Igst                decimal.Decimal `json:"igst"`
	TotalTax            decimal.Decimal `json:"total_tax"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	Description         *string         `json:"description"`
	MembershipStartDate *time.Time      `json:"membership_start_date"`
	MembershipEndDate   *time.Time      `json:"membership_end_date"`
	PaymentStartDate    *time.Time      `json:"payment_start_date"`
	PaymentEndDate      *time.Time      `json:"payment_end_date"`
	RenewalType         *string         `json:"renewal_type"`
	Month               *string         `json:"month"`
	Product             *string         `json:"product"`
	MonthsTenure        *int            `json:"months_tenure"`
	CalculationMonth    *int            `json:"calculation_month"`
	BillingCycle        string          `json:"billing_cycle"`
}

type SheetSummary struct {
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	TotalTax      decimal.Decimal `json:"totalTax"`
	UniqueMembers int             `json:"uniqueMembers"`
}

// SheetResult is everything one pass over a sheet produces: ordered drafts,
// ordered row errors and the aggregate summary. TotalRows counts data rows
// including silently skipped blanks, so validRows + errorRows <= TotalRows.
type SheetResult struct {
	TotalRows int               `json:"totalRows"`
	Drafts    []*InvoiceDraft   `json:"-"`
	Errors    []ValidationError `json:"errors"`
	Summary   SheetSummary      `json:"summary"`
}

var ErrEmptySheet = errors.New("sheet has no data rows")

// Processor turns raw sheet rows into invoice drafts using the flexible
// alias-based column scheme.
type Processor struct {
	resolver *Resolver
}

func NewProcessor(columns ColumnMap) *Processor {
	return &Processor{resolver: NewResolver(columns)}
}

// ReadFirstSheet loads the first worksheet of an xlsx stream as raw cell rows.
// RawCellValue keeps date cells as Excel serial numbers instead of locale-
// formatted strings.
func ReadFirstSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ProcessSheet validates and types every data row. rows[0] is the header row;
// existing holds invoice numbers already persisted. Row-level problems land in
// the error list and processing continues.
func (p *Processor) ProcessSheet(rows [][]string, existing map[string]bool) (*SheetResult, error) {
	if len(rows) < 2 {
		return nil, ErrEmptySheet
	}

	headers := rows[0]
	validator := NewValidator(p.resolver, existing)

	result := &SheetResult{
		TotalRows: len(rows) - 1,
		Summary: SheetSummary{
			TotalAmount: decimal.Zero,
			TotalTax:    decimal.Zero,
		},
	}
	uniqueMembers := map[string]bool{}

	for i, cells := range rows[1:] {
		rowNum := i + 2 // 1-based sheet row, after the header
		row := NewRawRow(headers, cells)

		verdict := validator.CheckRow(row, rowNum)
		if verdict.Blank {
			continue
		}
		if len(verdict.Errors) > 0 {
			result.Errors = append(result.Errors, verdict.Errors...)
			continue
		}

		draft := p.buildDraft(row, verdict)
		result.Drafts = append(result.Drafts, draft)
		result.Summary.TotalAmount = result.Summary.TotalAmount.Add(draft.TotalAmount)
		result.Summary.TotalTax = result.Summary.TotalTax.Add(draft.TotalTax)
		uniqueMembers[draft.GlobalId] = true
	}

	result.Summary.UniqueMembers = len(uniqueMembers)
	return result, nil
}

func (p *Processor) buildDraft(row RawRow, verdict *RowVerdict) *InvoiceDraft {
	monthTotal := p.amount(row, FieldMonthTotal)

	// Sheets carry 9% columns for intrastate invoices and 18% columns for
	// interstate ones; both may be present. The 18% components double as the
	// IGST cross-check.
	cgst9 := p.amount(row, FieldCgst9)
	sgst9 := p.amount(row, FieldSgst9)
	cgst18 := p.amount(row, FieldCgst18)
	sgst18 := p.amount(row, FieldSgst18)

	totalTax := p.amount(row, FieldTotalTax)
	if totalTax.IsZero() {
		totalTax = cgst9.Add(sgst9).Add(cgst18).Add(sgst18)
	}

	monthsTenure := p.optionalInt(row, FieldMonths)
	calculationMonth := p.optionalInt(row, FieldCalculationMonth)
	resolvedMonths := 1
	if calculationMonth != nil {
		resolvedMonths = *calculationMonth
	} else if monthsTenure != nil {
		resolvedMonths = *monthsTenure
		calculationMonth = monthsTenure
	} else {
		one := 1
		calculationMonth = &one
	}

	billingCycle := "Quarterly"
	if resolvedMonths >= 12 {
		billingCycle = "Annual"
	} else if resolvedMonths >= 6 {
		billingCycle = "Half-Yearly"
	}

	return &InvoiceDraft{
		InvoiceNo:           verdict.InvoiceNo,
		InvoiceDate:         *verdict.InvoiceDate,
		GlobalId:            verdict.GlobalId,
		Name:                p.text(row, FieldName),
		State:               p.optionalText(row, FieldState),
		Email:               p.optionalText(row, FieldEmail),
		Registration:        p.optionalText(row, FieldRegistration),
		Membership:          p.amount(row, FieldMembership),
		MembershipTotal:     monthTotal,
		Cgst:                cgst9.Add(cgst18),
		Sgst:                sgst9.Add(sgst18),
		Igst:                cgst18.Add(sgst18),
		TotalTax:            totalTax,
		TotalAmount:         monthTotal,
		Description:         p.optionalText(row, FieldDescription),
		MembershipStartDate: p.date(row, FieldMembershipStartDate),
		MembershipEndDate:   p.date(row, FieldMembershipEndDate),
		PaymentStartDate:    p.date(row, FieldPaymentStartDate),
		PaymentEndDate:      p.date(row, FieldPaymentEndDate),
		RenewalType:         p.optionalText(row, FieldRenewalType),
		Month:               p.optionalText(row, FieldCalculationMonth),
		Product:             p.optionalText(row, FieldProduct),
		MonthsTenure:        monthsTenure,
		CalculationMonth:    calculationMonth,
		BillingCycle:        billingCycle,
	}
}

func (p *Processor) text(row RawRow, field CanonicalField) string {
	value, _ := p.resolver.Resolve(row, field)
	return strings.TrimSpace(value)
}

func (p *Processor) optionalText(row RawRow, field CanonicalField) *string {
	value := p.text(row, field)
	if value == "" {
		return nil
	}
	return &value
}

// amount reads a monetary cell; anything unparseable counts as zero, matching
// how the sheets mix blanks, dashes and stray text into numeric columns.
func (p *Processor) amount(row RawRow, field CanonicalField) decimal.Decimal {
	value := p.text(row, field)
	if value == "" {
		return decimal.Zero
	}
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return dec
}

func (p *Processor) optionalInt(row RawRow, field CanonicalField) *int {
	value := p.text(row, field)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	if n == 0 {
		return nil
	}
	return &n
}

func (p *Processor) date(row RawRow, field CanonicalField) *time.Time {
	value := p.text(row, field)
	parsed, err := ParseCellDate(value)
	if err != nil {
		return nil
	}
	return parsed
}
