package ingest

import (
	"sort"
	"strings"
)

// CanonicalField identifies one logical invoice column regardless of how the
// spreadsheet labels it.
type CanonicalField string

const (
	FieldInvoiceNo           CanonicalField = "invoiceNo"
	FieldInvoiceDate         CanonicalField = "invoiceDate"
	FieldGlobalId            CanonicalField = "globalId"
	FieldName                CanonicalField = "name"
	FieldState               CanonicalField = "state"
	FieldEmail               CanonicalField = "email"
	FieldRegistration        CanonicalField = "registration"
	FieldMembership          CanonicalField = "membership"
	FieldMonthTotal          CanonicalField = "monthTotal"
	FieldCgst9               CanonicalField = "cgst9"
	FieldSgst9               CanonicalField = "sgst9"
	FieldCgst18              CanonicalField = "cgst18"
	FieldSgst18              CanonicalField = "sgst18"
	FieldTotalTax            CanonicalField = "totalTax"
	FieldDescription         CanonicalField = "description"
	FieldMembershipStartDate CanonicalField = "membershipStartDate"
	FieldMembershipEndDate   CanonicalField = "membershipEndDate"
	FieldPaymentStartDate    CanonicalField = "paymentStartDate"
	FieldPaymentEndDate      CanonicalField = "paymentEndDate"
	FieldRenewalType         CanonicalField = "renewalType"
	FieldProduct             CanonicalField = "product"
	FieldMonths              CanonicalField = "months"
	FieldCalculationMonth    CanonicalField = "calculationMonth"
)

// ColumnMap holds the accepted header aliases per canonical field, in priority
// order. It is plain configuration handed to NewResolver, not package state, so
// tests can run against synthetic alias sets.
type ColumnMap map[CanonicalField][]string

// DefaultColumns returns the alias table the monthly invoice sheets use in the
// wild. Earlier aliases win when a sheet carries more than one matching header.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		FieldInvoiceNo:           {"Invoice No.", "Invoice No", "Invoice Number", "Inv No"},
		FieldInvoiceDate:         {"Invoice Date", "Inv Date", "Date"},
		FieldGlobalId:            {"Global ID", "GlobalID", "Global Id", "Member ID"},
		FieldName:                {"Name", "Member Name", "Full Name"},
		FieldState:               {"State", "State Name"},
		FieldEmail:               {"Email Id", "Email ID", "Email", "E-mail"},
		FieldRegistration:        {"Registration", "Reg No", "Registration No"},
		FieldMembership:          {"Membership", "Membership Type"},
		FieldMonthTotal:          {"Month Total", "Monthly Total", "Total Amount", "Total"},
		FieldCgst9:               {"CGST 9%", "CGST – 9%", "CGST-9%", "CGST 9", "CGST"},
		FieldSgst9:               {"SGST 9%", "SGST – 9%", "SGST-9%", "SGST 9", "SGST"},
		FieldCgst18:              {"CGST 18%", "CGST – 18%", "CGST-18%", "CGST 18", "IGST – 18%", "IGST 18%"},
		FieldSgst18:              {"SGST 18%", "SGST – 18%", "SGST-18%", "SGST 18"},
		FieldTotalTax:            {"Total Tax", "Tax Total", "Tax Amount"},
		FieldDescription:         {"Description", "Description 1", "Desc"},
		FieldMembershipStartDate: {"Membership Start Date", "Start Date", "Member Start"},
		FieldMembershipEndDate:   {"Membership End Date", "End Date", "Member End"},
		FieldPaymentStartDate:    {"Payment Start Date", "Pay Start Date"},
		FieldPaymentEndDate:      {"Payment End Date", "Pay End Date"},
		FieldRenewalType:         {"Renewal/Quarterly", "Renewal / Quarterly", "Renewal", "Type"},
		FieldProduct:             {"Product", "Product Name", "Product Type"},
		FieldMonths:              {"Months", "Months (Tenure)", "Tenure", "Duration"},
		FieldCalculationMonth:    {"Calculations of Month", "Calculation of Month", "Calc Month"},
	}
}

// Resolver maps raw spreadsheet headers to canonical fields.
type Resolver struct {
	columns ColumnMap
}

func NewResolver(columns ColumnMap) *Resolver {
	return &Resolver{columns: columns}
}

// Resolve returns the cell value for a canonical field. Exact alias matches win
// in alias order; failing that, headers are compared in normalized form (still in
// alias order, so resolution is deterministic). The second return is false when
// no header matched at all.
func (r *Resolver) Resolve(row RawRow, field CanonicalField) (string, bool) {
	aliases := r.columns[field]

	for _, alias := range aliases {
		if value, ok := row.Get(alias); ok {
			return value, true
		}
	}

	// Map iteration order is random; sort keys so ties resolve the same way on
	// every call.
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, alias := range aliases {
		normalizedAlias := normalizeHeader(alias)
		for _, key := range keys {
			if normalizeHeader(key) == normalizedAlias {
				return row[key], true
			}
		}
	}

	return "", false
}

// normalizeHeader lowercases and collapses the punctuation variants seen across
// years of hand-edited sheets, so "CGST – 9%", "CGST-9%" and "cgst 9%" all match.
func normalizeHeader(header string) string {
	lower := strings.ToLower(header)
	replacer := strings.NewReplacer(".", " ", "-", " ", "–", " ", "_", " ")
	lower = replacer.Replace(lower)
	return strings.Join(strings.Fields(lower), " ")
}
