package models_test

import (
	"testing"
	"time"

	"github.com/mmdatafocus/membership_backend/models"
)

func strPtr(s string) *string { return &s }

func TestDeriveBillingCycle(t *testing.T) {
	cases := map[int]models.BillingCycle{
		1:  models.BillingCycleQuarterly,
		3:  models.BillingCycleQuarterly,
		5:  models.BillingCycleQuarterly,
		6:  models.BillingCycleHalfYearly,
		11: models.BillingCycleHalfYearly,
		12: models.BillingCycleAnnual,
		18: models.BillingCycleAnnual,
		60: models.BillingCycleAnnual,
	}
	for months, want := range cases {
		if got := models.DeriveBillingCycle(months); got != want {
			t.Fatalf("%d months: got %s, want %s", months, got, want)
		}
	}
}

func TestDetermineMemberStatus(t *testing.T) {
	today := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	past := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC)

	// Expiry beats everything, including a renewal marker.
	if got := models.DetermineMemberStatus(&past, strPtr("Renewal"), today); got != models.MemberStatusExpired {
		t.Fatalf("past end date: got %s, want EXPIRED", got)
	}
	if got := models.DetermineMemberStatus(&future, strPtr("Annual Renewal"), today); got != models.MemberStatusRenewed {
		t.Fatalf("renewal text: got %s, want RENEWED", got)
	}
	if got := models.DetermineMemberStatus(&future, strPtr("Quarterly"), today); got != models.MemberStatusQuarterly {
		t.Fatalf("quarterly text: got %s, want QUARTERLY", got)
	}
	if got := models.DetermineMemberStatus(&future, nil, today); got != models.MemberStatusActive {
		t.Fatalf("no marker: got %s, want ACTIVE", got)
	}
	if got := models.DetermineMemberStatus(nil, nil, today); got != models.MemberStatusActive {
		t.Fatalf("no end date: got %s, want ACTIVE", got)
	}
}

func TestDetermineMemberStatusTimeAlone(t *testing.T) {
	end := time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC)
	before := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)

	// Same data, advancing clock: the status flips without any new upload field.
	if got := models.DetermineMemberStatus(&end, nil, before); got != models.MemberStatusActive {
		t.Fatalf("before expiry: got %s, want ACTIVE", got)
	}
	if got := models.DetermineMemberStatus(&end, nil, after); got != models.MemberStatusExpired {
		t.Fatalf("after expiry: got %s, want EXPIRED", got)
	}
}

func TestRenewalTextClassifiers(t *testing.T) {
	if !models.IsRenewalText(strPtr("Renewal")) || !models.IsRenewalText(strPtr("renew 2024")) {
		t.Fatalf("renewal variants should classify as renewal")
	}
	if models.IsRenewalText(nil) || models.IsRenewalText(strPtr("New Intake")) {
		t.Fatalf("non-renewal text misclassified")
	}

	if !models.IsIntakeText(nil) || !models.IsIntakeText(strPtr("")) {
		t.Fatalf("absent renewal type counts as intake")
	}
	if !models.IsIntakeText(strPtr("New")) || !models.IsIntakeText(strPtr("Intake 2024")) {
		t.Fatalf("intake variants should classify as intake")
	}
	if models.IsIntakeText(strPtr("Renewal")) {
		t.Fatalf("renewal text must not count as intake")
	}
}
