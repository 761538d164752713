package models

import (
	"strings"
	"time"
)

type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "ACTIVE"
	MemberStatusExpired   MemberStatus = "EXPIRED"
	MemberStatusRenewed   MemberStatus = "RENEWED"
	MemberStatusQuarterly MemberStatus = "QUARTERLY"
	MemberStatusFrozen    MemberStatus = "FROZEN"
)

type BillingCycle string

const (
	BillingCycleQuarterly  BillingCycle = "Quarterly"
	BillingCycleHalfYearly BillingCycle = "Half-Yearly"
	BillingCycleAnnual     BillingCycle = "Annual"
)

type UploadStatus string

const (
	UploadStatusCompleted           UploadStatus = "COMPLETED"
	UploadStatusCompletedWithErrors UploadStatus = "COMPLETED_WITH_ERRORS"
)

type UserRole string

const (
	UserRoleAdmin      UserRole = "ADMIN"
	UserRoleFinance    UserRole = "FINANCE"
	UserRoleManagement UserRole = "MANAGEMENT"
	UserRoleViewer     UserRole = "VIEWER"
)

// DeriveBillingCycle maps the accrual month count to the coarse tenure classification.
// Callers resolve the fallback chain (calculationMonth -> monthsTenure -> 1) first.
func DeriveBillingCycle(calculationMonth int) BillingCycle {
	switch {
	case calculationMonth >= 12:
		return BillingCycleAnnual
	case calculationMonth >= 6:
		return BillingCycleHalfYearly
	default:
		return BillingCycleQuarterly
	}
}

// DetermineMemberStatus recomputes a member's status on every upsert. Time passage
// alone can flip ACTIVE to EXPIRED, so "today" is an explicit argument.
func DetermineMemberStatus(membershipEndDate *time.Time, renewalType *string, today time.Time) MemberStatus {
	if membershipEndDate != nil && membershipEndDate.Before(today) {
		return MemberStatusExpired
	}
	if renewalType != nil {
		lower := strings.ToLower(*renewalType)
		if strings.Contains(lower, "renewal") {
			return MemberStatusRenewed
		}
		if strings.Contains(lower, "quarterly") {
			return MemberStatusQuarterly
		}
	}
	return MemberStatusActive
}

// IsRenewalText reports whether a free-text renewal type marks a renewal invoice.
func IsRenewalText(renewalType *string) bool {
	if renewalType == nil {
		return false
	}
	lower := strings.ToLower(*renewalType)
	return strings.Contains(lower, "renewal") || strings.Contains(lower, "renew")
}

// IsIntakeText reports whether a free-text renewal type marks a new-intake invoice.
// An empty value counts as intake.
func IsIntakeText(renewalType *string) bool {
	if renewalType == nil || strings.TrimSpace(*renewalType) == "" {
		return true
	}
	lower := strings.ToLower(*renewalType)
	return strings.Contains(lower, "new") || strings.Contains(lower, "intake")
}
