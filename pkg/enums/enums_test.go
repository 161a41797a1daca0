package enums

import "testing"

func TestParseRole(t *testing.T) {
	role, err := ParseRole("retailer")
	if err != nil || role != RoleRetailer {
		t.Fatalf("expected retailer, got %q err=%v", role, err)
	}
	if !role.IsRetailer() {
		t.Fatalf("retailer role should report IsRetailer")
	}
	if _, err := ParseRole("guest"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
	if Role("").IsValid() {
		t.Fatalf("empty role should be invalid")
	}
}

func TestParseWarrantyChoiceDefaultsToStandard(t *testing.T) {
	choice, err := ParseWarrantyChoice("")
	if err != nil || choice != WarrantyStandard {
		t.Fatalf("expected standard, got %q err=%v", choice, err)
	}
	if _, err := ParseWarrantyChoice("lifetime"); err == nil {
		t.Fatalf("expected error for unknown warranty")
	}
}

func TestGateReasonBlocking(t *testing.T) {
	if GateProceed.Blocking() {
		t.Fatalf("proceed must not block")
	}
	for _, reason := range []GateReason{GateRequiresAuth, GateRequiresQuote, GateMissingDocument, GatePaymentUnavailable} {
		if !reason.Blocking() {
			t.Fatalf("%s should block", reason)
		}
	}
}

func TestPaymentOutcomeIsValid(t *testing.T) {
	if !PaymentDismissed.IsValid() {
		t.Fatalf("dismissed should be valid")
	}
	if PaymentOutcome("pending").IsValid() {
		t.Fatalf("pending should be invalid")
	}
}
