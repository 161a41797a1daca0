package enums

// GateReason classifies the outcome of the checkout gate.
type GateReason string

const (
	GateProceed            GateReason = "proceed"
	GateRequiresAuth       GateReason = "requires_auth"
	GateRequiresQuote      GateReason = "requires_quote"
	GateExceedsDirectLimit GateReason = "exceeds_direct_limit"
	GateIncompleteAddress  GateReason = "incomplete_address"
	GateMissingGroups      GateReason = "missing_groups"
	GateOverAllocated      GateReason = "over_allocated"
	GateMissingDocument    GateReason = "missing_document"
	GatePaymentUnavailable GateReason = "payment_unavailable"
	GateEmptyCart          GateReason = "empty_cart"
)

// String implements fmt.Stringer.
func (g GateReason) String() string {
	return string(g)
}

// Blocking reports whether the reason stops checkout.
func (g GateReason) Blocking() bool {
	return g != GateProceed
}
