package ingest_test

import (
	"strings"
	"testing"

	"github.com/mmdatafocus/membership_backend/ingest"
)

var sheetHeaders = []string{
	"Invoice No.", "Invoice Date", "Global ID", "Name", "State", "Email Id",
	"Month Total", "CGST 9%", "SGST 9%", "CGST 18%", "SGST 18%", "Total Tax",
	"Renewal/Quarterly", "Product", "Months", "Calculations of Month",
}

// row builds a full-width data row; unspecified cells stay empty.
func row(cells map[string]string) []string {
	out := make([]string, len(sheetHeaders))
	for i, header := range sheetHeaders {
		out[i] = cells[header]
	}
	return out
}

func processOne(t *testing.T, cells map[string]string, existing map[string]bool) *ingest.SheetResult {
	t.Helper()
	p := ingest.NewProcessor(ingest.DefaultColumns())
	result, err := p.ProcessSheet([][]string{sheetHeaders, row(cells)}, existing)
	if err != nil {
		t.Fatalf("ProcessSheet: %v", err)
	}
	return result
}

func validCells(invoiceNo string) map[string]string {
	return map[string]string{
		"Invoice No.": invoiceNo,
		// 2024-01-15 as an Excel serial.
		"Invoice Date": "45306",
		"Global ID":    "GID-7",
		"Name":         "Sharma Industries",
		"Month Total":  "11800",
		"CGST 9%":      "900",
		"SGST 9%":      "900",
	}
}

func TestProcessSheetValidRow(t *testing.T) {
	result := processOne(t, validCells("INV-1"), nil)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(result.Drafts))
	}

	draft := result.Drafts[0]
	if draft.InvoiceNo != "INV-1" || draft.GlobalId != "GID-7" {
		t.Fatalf("draft identity wrong: %+v", draft)
	}
	if !draft.TotalAmount.Equal(draft.MembershipTotal) {
		t.Fatalf("total amount should mirror month total")
	}
	if draft.TotalAmount.String() != "11800" {
		t.Fatalf("total amount = %s, want 11800", draft.TotalAmount)
	}
}

func TestProcessSheetRequiredFields(t *testing.T) {
	cells := validCells("INV-1")
	delete(cells, "Global ID")
	delete(cells, "Month Total")

	result := processOne(t, cells, nil)
	if len(result.Drafts) != 0 {
		t.Fatalf("row with missing fields must not produce a draft")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected one error per missing field, got %+v", result.Errors)
	}
	fields := map[string]bool{}
	for _, e := range result.Errors {
		fields[e.Field] = true
		if e.Row != 2 {
			t.Fatalf("first data row should report row 2, got %d", e.Row)
		}
	}
	if !fields["Global ID"] || !fields["Month Total"] {
		t.Fatalf("wrong fields reported: %+v", result.Errors)
	}
}

func TestProcessSheetBlankRowSkippedSilently(t *testing.T) {
	p := ingest.NewProcessor(ingest.DefaultColumns())
	rows := [][]string{
		sheetHeaders,
		row(validCells("INV-1")),
		row(map[string]string{"Name": "stray note"}), // no key fields at all
	}

	result, err := p.ProcessSheet(rows, nil)
	if err != nil {
		t.Fatalf("ProcessSheet: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("blank row must not error: %+v", result.Errors)
	}
	if result.TotalRows != 2 {
		t.Fatalf("TotalRows should count skipped blanks, got %d", result.TotalRows)
	}
	if len(result.Drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(result.Drafts))
	}
}

func TestProcessSheetDuplicateAgainstDatabase(t *testing.T) {
	result := processOne(t, validCells("INV-9"), map[string]bool{"INV-9": true})

	if len(result.Drafts) != 0 {
		t.Fatalf("existing invoice must be rejected")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0].Message, "already exists in the system") {
		t.Fatalf("wrong error: %+v", result.Errors)
	}
}

func TestProcessSheetDuplicateWithinUpload(t *testing.T) {
	p := ingest.NewProcessor(ingest.DefaultColumns())
	rows := [][]string{
		sheetHeaders,
		row(validCells("INV-1")),
		row(validCells("INV-1")),
	}

	result, err := p.ProcessSheet(rows, nil)
	if err != nil {
		t.Fatalf("ProcessSheet: %v", err)
	}
	if len(result.Drafts) != 1 {
		t.Fatalf("first occurrence should survive, got %d drafts", len(result.Drafts))
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0].Message, "Duplicate invoice INV-1 in upload file") {
		t.Fatalf("wrong error: %+v", result.Errors)
	}
	if result.Errors[0].Row != 3 {
		t.Fatalf("duplicate should be reported on row 3, got %d", result.Errors[0].Row)
	}
}

func TestProcessSheetInvalidDate(t *testing.T) {
	cells := validCells("INV-1")
	cells["Invoice Date"] = "soon"

	result := processOne(t, cells, nil)
	if len(result.Errors) != 1 || result.Errors[0].Message != "Invalid Invoice Date format" {
		t.Fatalf("wrong error: %+v", result.Errors)
	}
}

func TestProcessSheetTaxDerivation(t *testing.T) {
	cells := validCells("INV-1")
	cells["CGST 9%"] = "450"
	cells["SGST 9%"] = "450"
	cells["CGST 18%"] = "90"
	cells["SGST 18%"] = "10"
	delete(cells, "Total Tax")

	draft := processOne(t, cells, nil).Drafts[0]
	if draft.Cgst.String() != "540" { // 450 + 90
		t.Fatalf("cgst = %s, want 540", draft.Cgst)
	}
	if draft.Sgst.String() != "460" { // 450 + 10
		t.Fatalf("sgst = %s, want 460", draft.Sgst)
	}
	if draft.Igst.String() != "100" { // 90 + 10
		t.Fatalf("igst = %s, want 100", draft.Igst)
	}
	if draft.TotalTax.String() != "1000" { // summed because Total Tax cell is empty
		t.Fatalf("totalTax = %s, want 1000", draft.TotalTax)
	}
}

func TestProcessSheetExplicitTotalTaxWins(t *testing.T) {
	cells := validCells("INV-1")
	cells["Total Tax"] = "1234.50"

	draft := processOne(t, cells, nil).Drafts[0]
	if draft.TotalTax.String() != "1234.5" {
		t.Fatalf("totalTax = %s, want 1234.5", draft.TotalTax)
	}
}

func TestProcessSheetCalculationMonthFallback(t *testing.T) {
	// Explicit calculation month.
	cells := validCells("INV-1")
	cells["Calculations of Month"] = "24"
	draft := processOne(t, cells, nil).Drafts[0]
	if draft.CalculationMonth == nil || *draft.CalculationMonth != 24 {
		t.Fatalf("calculationMonth = %v, want 24", draft.CalculationMonth)
	}
	if draft.BillingCycle != "Annual" {
		t.Fatalf("billingCycle = %s, want Annual", draft.BillingCycle)
	}

	// Falls back to months tenure.
	cells = validCells("INV-2")
	cells["Months"] = "6"
	draft = processOne(t, cells, nil).Drafts[0]
	if draft.CalculationMonth == nil || *draft.CalculationMonth != 6 {
		t.Fatalf("calculationMonth = %v, want 6", draft.CalculationMonth)
	}
	if draft.BillingCycle != "Half-Yearly" {
		t.Fatalf("billingCycle = %s, want Half-Yearly", draft.BillingCycle)
	}

	// Both absent: defaults to 1 and the shortest cycle.
	cells = validCells("INV-3")
	draft = processOne(t, cells, nil).Drafts[0]
	if draft.CalculationMonth == nil || *draft.CalculationMonth != 1 {
		t.Fatalf("calculationMonth = %v, want 1", draft.CalculationMonth)
	}
	if draft.BillingCycle != "Quarterly" {
		t.Fatalf("billingCycle = %s, want Quarterly", draft.BillingCycle)
	}
}

func TestProcessSheetSummary(t *testing.T) {
	p := ingest.NewProcessor(ingest.DefaultColumns())

	second := validCells("INV-2")
	second["Global ID"] = "GID-7" // same member as INV-1
	third := validCells("INV-3")
	third["Global ID"] = "GID-8"

	rows := [][]string{
		sheetHeaders,
		row(validCells("INV-1")),
		row(second),
		row(third),
	}
	result, err := p.ProcessSheet(rows, nil)
	if err != nil {
		t.Fatalf("ProcessSheet: %v", err)
	}

	if result.Summary.UniqueMembers != 2 {
		t.Fatalf("uniqueMembers = %d, want 2", result.Summary.UniqueMembers)
	}
	if result.Summary.TotalAmount.String() != "35400" { // 3 x 11800
		t.Fatalf("totalAmount = %s, want 35400", result.Summary.TotalAmount)
	}
}

func TestProcessSheetEmpty(t *testing.T) {
	p := ingest.NewProcessor(ingest.DefaultColumns())
	if _, err := p.ProcessSheet([][]string{sheetHeaders}, nil); err != ingest.ErrEmptySheet {
		t.Fatalf("expected ErrEmptySheet, got %v", err)
	}
}
