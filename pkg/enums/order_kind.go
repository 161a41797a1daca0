package enums

// OrderKind tags the shape of an order payload.
type OrderKind string

const (
	OrderKindStandard OrderKind = "standard"
	OrderKindDropship OrderKind = "dropship"
)

// PaymentOutcome is the provider's terminal result for a hosted checkout.
type PaymentOutcome string

const (
	PaymentSucceeded PaymentOutcome = "succeeded"
	PaymentFailed    PaymentOutcome = "failed"
	PaymentDismissed PaymentOutcome = "dismissed"
)

// IsValid reports whether the value is a known PaymentOutcome.
func (p PaymentOutcome) IsValid() bool {
	switch p {
	case PaymentSucceeded, PaymentFailed, PaymentDismissed:
		return true
	}
	return false
}
